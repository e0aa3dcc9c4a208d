// Package memory is the in-memory snapshot store, suitable for development
// and tests only.
package memory

import (
	"context"
	"sync"

	"github.com/aurelia-care/aurelia/internal/domain"
)

type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[domain.ProfileID]*domain.ProfileSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[domain.ProfileID]*domain.ProfileSnapshot),
	}
}

// Load returns the stored snapshot, or nil when the profile has no data yet.
func (s *SnapshotStore) Load(ctx context.Context, id domain.ProfileID) (*domain.ProfileSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[id].Clone(), nil
}

func (s *SnapshotStore) Save(ctx context.Context, id domain.ProfileID, snap *domain.ProfileSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[id] = snap.Clone()
	return nil
}

func (s *SnapshotStore) Profiles(ctx context.Context) ([]domain.ProfileID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProfileID, 0, len(s.snapshots))
	for id := range s.snapshots {
		out = append(out, id)
	}
	return out, nil
}
