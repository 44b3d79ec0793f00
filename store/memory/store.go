// Package memory provides an in-memory store for the book ledger. It is
// intended for tests and single-process hosts that do not need durability.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	"github.com/xraph/bookledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Entry storage
	entries map[id.EntryID]*entry.Entry

	// Last issued identity
	seq uint64

	closed bool
}

func New() *Store {
	return &Store{
		entries: make(map[id.EntryID]*entry.Entry),
	}
}

// Entry Store implementation

func (s *Store) InsertEntry(_ context.Context, e *entry.Entry, step sequence.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	next, err := step(s.seq)
	if err != nil {
		return err
	}

	entryID := id.EntryID(next)
	if _, exists := s.entries[entryID]; exists {
		return fmt.Errorf("bookledger/memory: insert entry %s: %w", entryID, bookledger.ErrSequenceConflict)
	}

	stored := e.Clone()
	stored.ID = entryID
	s.entries[entryID] = stored
	s.seq = next

	e.ID = entryID
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID id.EntryID) (*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, bookledger.ErrStoreClosed
	}

	if e, ok := s.entries[entryID]; ok {
		return e.Clone(), nil
	}
	return nil, bookledger.ErrNotFound
}

func (s *Store) ListEntries(_ context.Context, opts entry.ListOpts) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, bookledger.ErrStoreClosed
	}

	ids := make([]id.EntryID, 0, len(s.entries))
	for entryID := range s.entries {
		if opts.After != nil && entryID <= *opts.After {
			continue
		}
		ids = append(ids, entryID)
	}
	slices.Sort(ids)

	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}

	result := make([]*entry.Entry, 0, len(ids))
	for _, entryID := range ids {
		result = append(result, s.entries[entryID].Clone())
	}
	return result, nil
}

func (s *Store) UpdateEntry(_ context.Context, e *entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	if _, exists := s.entries[e.ID]; !exists {
		return bookledger.ErrNotFound
	}
	s.entries[e.ID] = e.Clone()
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, entryID id.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	if _, exists := s.entries[entryID]; !exists {
		return bookledger.ErrNotFound
	}
	delete(s.entries, entryID)
	return nil
}

// Sequence Store implementation

func (s *Store) Sequence(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, bookledger.ErrStoreClosed
	}
	return s.seq, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
