// Package pebble implements store.Store on an embedded Pebble key-value
// database. Every transition commits as a single synced batch.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	pdb "github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	"github.com/xraph/bookledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a Pebble-backed implementation of store.Store.
type Store struct {
	// mu serializes writers so the counter read and the batch commit in
	// InsertEntry see no interleaved transition.
	mu     sync.RWMutex
	db     *pdb.DB
	closed bool
}

// Option configures how the database is opened.
type Option func(*pdb.Options)

// WithFS opens the database on fs instead of the host filesystem.
func WithFS(fs vfs.FS) Option {
	return func(o *pdb.Options) {
		o.FS = fs
	}
}

// Open opens (or creates) a Pebble database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	o := &pdb.Options{
		Logger: newLogger(nil),
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := pdb.Open(dir, o)
	if err != nil {
		return nil, fmt.Errorf("bookledger/pebble: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a database backed by an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	return Open("", WithFS(vfs.NewMem()))
}

// ==================== Entry Store ====================

func (s *Store) InsertEntry(_ context.Context, e *entry.Entry, step sequence.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	current, err := s.sequence()
	if err != nil {
		return err
	}

	next, err := step(current)
	if err != nil {
		return err
	}
	entryID := id.EntryID(next)

	if _, err := s.get(entryID); err == nil {
		return fmt.Errorf("bookledger/pebble: insert entry %s: %w", entryID, bookledger.ErrSequenceConflict)
	} else if !errors.Is(err, bookledger.ErrNotFound) {
		return err
	}

	stored := e.Clone()
	stored.ID = entryID
	data, err := encodeEntry(stored)
	if err != nil {
		return fmt.Errorf("bookledger/pebble: insert entry: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Set(seqKey(store.SequenceName), encodeCounter(next), nil); err != nil {
		return fmt.Errorf("bookledger/pebble: insert entry: %w", err)
	}
	if err := b.Set(entryKey(entryID), data, nil); err != nil {
		return fmt.Errorf("bookledger/pebble: insert entry: %w", err)
	}
	if err := b.Commit(pdb.Sync); err != nil {
		return fmt.Errorf("bookledger/pebble: insert entry: %w", err)
	}

	e.ID = entryID
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID id.EntryID) (*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, bookledger.ErrStoreClosed
	}
	return s.get(entryID)
}

func (s *Store) ListEntries(_ context.Context, opts entry.ListOpts) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, bookledger.ErrStoreClosed
	}

	lower := entryKey(0)
	if opts.After != nil {
		if *opts.After == math.MaxUint64 {
			return []*entry.Entry{}, nil
		}
		lower = entryKey(*opts.After + 1)
	}

	iter, err := s.db.NewIter(&pdb.IterOptions{
		LowerBound: lower,
		UpperBound: entryUpperBound(),
	})
	if err != nil {
		return nil, fmt.Errorf("bookledger/pebble: list entries: %w", err)
	}
	defer iter.Close()

	result := make([]*entry.Entry, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("bookledger/pebble: list entries: %w", err)
		}
		result = append(result, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("bookledger/pebble: list entries: %w", err)
	}
	return result, nil
}

func (s *Store) UpdateEntry(_ context.Context, e *entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	if _, err := s.get(e.ID); err != nil {
		return err
	}

	data, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("bookledger/pebble: update entry: %w", err)
	}
	if err := s.db.Set(entryKey(e.ID), data, pdb.Sync); err != nil {
		return fmt.Errorf("bookledger/pebble: update entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, entryID id.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookledger.ErrStoreClosed
	}

	if _, err := s.get(entryID); err != nil {
		return err
	}
	if err := s.db.Delete(entryKey(entryID), pdb.Sync); err != nil {
		return fmt.Errorf("bookledger/pebble: delete entry: %w", err)
	}
	return nil
}

// ==================== Sequence Store ====================

func (s *Store) Sequence(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, bookledger.ErrStoreClosed
	}
	return s.sequence()
}

// ==================== Core ====================

// Migrate is a no-op: the key layout needs no schema.
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

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// ==================== Helpers ====================

func (s *Store) get(entryID id.EntryID) (*entry.Entry, error) {
	val, closer, err := s.db.Get(entryKey(entryID))
	if errors.Is(err, pdb.ErrNotFound) {
		return nil, bookledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookledger/pebble: get entry %s: %w", entryID, err)
	}
	defer closeQuietly(closer)

	e, err := decodeEntry(val)
	if err != nil {
		return nil, fmt.Errorf("bookledger/pebble: get entry %s: %w", entryID, err)
	}
	return e, nil
}

func (s *Store) sequence() (uint64, error) {
	val, closer, err := s.db.Get(seqKey(store.SequenceName))
	if errors.Is(err, pdb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("bookledger/pebble: read sequence: %w", err)
	}
	defer closeQuietly(closer)

	v, err := decodeCounter(val)
	if err != nil {
		return 0, fmt.Errorf("bookledger/pebble: read sequence: %w", err)
	}
	return v, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close() //nolint:errcheck // read-only value handle
}
