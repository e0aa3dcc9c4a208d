package session

import (
	"context"
	"sync"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// Manager hands out one Store per profile, loading the persisted snapshot on
// first access. A failed or malformed load is treated as "no data yet".
type Manager struct {
	mu        sync.Mutex
	stores    map[domain.ProfileID]*Store
	snapshots domain.SnapshotStore
}

func NewManager(snapshots domain.SnapshotStore) *Manager {
	return &Manager{
		stores:    make(map[domain.ProfileID]*Store),
		snapshots: snapshots,
	}
}

// ForProfile returns the store for a profile, creating it from the persisted
// snapshot when seen for the first time.
func (m *Manager) ForProfile(ctx context.Context, id domain.ProfileID) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s
	}

	var snap *domain.ProfileSnapshot
	if m.snapshots != nil {
		loaded, err := m.snapshots.Load(ctx, id)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("snapshot load failed, starting empty",
				"profile_id", id, "error", err)
		} else {
			snap = loaded
		}
	}

	s := NewStore(id, snap, m.snapshots)
	m.stores[id] = s
	return s
}
