package store

import (
	"context"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
)

// Store is the unified storage interface for the book ledger.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every method is one atomic transition: it either applies its whole effect
// or returns an error having applied none of it.
type Store interface {
	// Entry methods
	InsertEntry(ctx context.Context, e *entry.Entry, step sequence.Step) error
	GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error)
	ListEntries(ctx context.Context, opts entry.ListOpts) ([]*entry.Entry, error)
	UpdateEntry(ctx context.Context, e *entry.Entry) error
	DeleteEntry(ctx context.Context, entryID id.EntryID) error

	// Sequence methods
	Sequence(ctx context.Context) (uint64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// SequenceName is the key under which backends persist the entry counter.
const SequenceName = "book_entry_seq"
