// Package firestore persists profile snapshots in Cloud Firestore.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// Store implements domain.SnapshotStore. One document per profile under the
// "profiles" collection, the whole snapshot as a JSON document.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) profileDoc(id domain.ProfileID) *firestore.DocumentRef {
	return s.client.Collection("profiles").Doc(string(id))
}

type snapshotDoc struct {
	Snapshot  string    `firestore:"snapshot_json"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// Load reads a profile snapshot. A missing document or a malformed payload
// is "no data yet", never an error.
func (s *Store) Load(ctx context.Context, id domain.ProfileID) (*domain.ProfileSnapshot, error) {
	snap, err := s.profileDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: firestore load: %v", domain.ErrPersistenceFailure, err)
	}

	var doc snapshotDoc
	if err := snap.DataTo(&doc); err != nil {
		observability.Logger().Warn("malformed snapshot document, starting empty",
			"profile_id", id, "error", err)
		return nil, nil
	}

	var out domain.ProfileSnapshot
	if err := json.Unmarshal([]byte(doc.Snapshot), &out); err != nil {
		observability.Logger().Warn("malformed snapshot payload, starting empty",
			"profile_id", id, "error", err)
		return nil, nil
	}
	return &out, nil
}

func (s *Store) Save(ctx context.Context, id domain.ProfileID, snap *domain.ProfileSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrPersistenceFailure, err)
	}

	doc := snapshotDoc{
		Snapshot:  string(raw),
		UpdatedAt: time.Now(),
	}
	if _, err := s.profileDoc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("%w: firestore save: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}

// Profiles lists every profile with a stored snapshot.
func (s *Store) Profiles(ctx context.Context) ([]domain.ProfileID, error) {
	iter := s.client.Collection("profiles").Documents(ctx)
	defer iter.Stop()

	var out []domain.ProfileID
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("%w: firestore list profiles: %v", domain.ErrPersistenceFailure, err)
		}
		out = append(out, domain.ProfileID(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
