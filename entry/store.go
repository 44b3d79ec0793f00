package entry

import (
	"context"

	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
)

type Store interface {
	// Insert assigns e.ID by applying step to the stored counter and persists
	// both the counter and the entry in one atomic commit.
	Insert(ctx context.Context, e *Entry, step sequence.Step) error
	Get(ctx context.Context, entryID id.EntryID) (*Entry, error)
	List(ctx context.Context, opts ListOpts) ([]*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, entryID id.EntryID) error
}

// ListOpts selects a page of entries in ascending id order.
type ListOpts struct {
	// After is an exclusive lower bound. Nil starts at the smallest id.
	After *id.EntryID
	// Limit is the page size. Callers resolve defaults before reaching the store.
	Limit int
}
