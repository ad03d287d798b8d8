// Package memory is a concurrency-safe in-memory parcel store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
)

// Store keeps parcels in a map keyed by tracking ID.
type Store struct {
	mu      sync.RWMutex
	parcels map[string]domain.ParcelData
}

// New creates a Store holding the given parcels. Later duplicates replace
// earlier ones.
func New(parcels []domain.ParcelData) *Store {
	s := &Store{parcels: make(map[string]domain.ParcelData, len(parcels))}
	for _, p := range parcels {
		s.parcels[p.TrackingID] = p
	}
	return s
}

// Lookup returns the parcel for trackingID, or domain.ErrNotFound.
func (s *Store) Lookup(_ context.Context, trackingID string) (domain.ParcelData, error) {
	id := domain.NormalizeTrackingID(trackingID)
	if err := domain.ValidateTrackingID(id); err != nil {
		return domain.ParcelData{}, err
	}

	s.mu.RLock()
	p, ok := s.parcels[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: %w", id, domain.ErrNotFound)
	}
	return clone(p), nil
}

// Put inserts or replaces a parcel.
func (s *Store) Put(p domain.ParcelData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parcels[p.TrackingID] = clone(p)
}

// CheckReadiness always succeeds; the store has no external dependency.
func (s *Store) CheckReadiness(_ context.Context) error { return nil }

// clone copies the activity slice so callers cannot mutate stored history.
func clone(p domain.ParcelData) domain.ParcelData {
	p.Activities = append([]domain.ActivityLog(nil), p.Activities...)
	return p
}
