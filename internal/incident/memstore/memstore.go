// Package memstore provides an in-memory implementation of incident.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// Store holds incident records in memory for the lifetime of the process.
// This is the default store; durability is an explicit non-goal.
type Store struct {
	mu      sync.RWMutex
	records map[string]*incident.Record // incident ID -> record
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*incident.Record),
	}
}

// Get retrieves a record by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*incident.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return r.Clone(), true, nil
}

// Put stores a copy of the record. The write is guarded by the record's
// version: a stale version yields incident.ErrVersionConflict, a matching
// one replaces the row and bumps the stored version.
func (s *Store) Put(_ context.Context, r *incident.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[r.ID]
	if ok && r.Version != cur.Version {
		return incident.ErrVersionConflict
	}

	cp := r.Clone()
	cp.Version = 1
	if ok {
		cp.Version = cur.Version + 1
	}
	s.records[r.ID] = cp
	return nil
}

// List returns copies of all records, unordered.
func (s *Store) List(_ context.Context) ([]*incident.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*incident.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

// Delete removes a record. Deleting an absent ID is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
