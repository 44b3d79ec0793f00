// Package storetest provides a conformance suite that every store.Store
// backend runs from its own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	"github.com/xraph/bookledger/store"
	"github.com/xraph/bookledger/types"
)

// Factory returns a fresh, migrated, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises s against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EmptyStore", testEmptyStore},
		{"InsertAssignsSequentialIDs", testInsertAssignsSequentialIDs},
		{"IDsNeverReused", testIDsNeverReused},
		{"InsertOverflowWritesNothing", testInsertOverflowWritesNothing},
		{"GetReturnsCopy", testGetReturnsCopy},
		{"UpdateReplacesFields", testUpdateReplacesFields},
		{"UpdateMissing", testUpdateMissing},
		{"DeleteMissing", testDeleteMissing},
		{"ListOrderAndBounds", testListOrderAndBounds},
		{"ListAfterMissingID", testListAfterMissingID},
		{"LargeQuantities", testLargeQuantities},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewEntry builds an entry for owner with small distinct quantities.
func NewEntry(owner string, amount, price uint64) *entry.Entry {
	return &entry.Entry{
		Owner:  id.MustParseAddress(owner),
		Asset:  id.MustParseAddress("asset"),
		Amount: types.NewQuantity(amount),
		Price:  types.NewQuantity(price),
	}
}

func insert(t *testing.T, s store.Store, a *sequence.Allocator, e *entry.Entry) id.EntryID {
	t.Helper()
	require.NoError(t, s.InsertEntry(context.Background(), e, a.Step))
	return e.ID
}

func testEmptyStore(t *testing.T, s store.Store) {
	ctx := context.Background()

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cur)

	_, err = s.GetEntry(ctx, 1)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)

	list, err := s.ListEntries(ctx, entry.ListOpts{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Ping(ctx))
}

func testInsertAssignsSequentialIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	for want := uint64(1); want <= 5; want++ {
		e := NewEntry("alice", want, want*10)
		got := insert(t, s, a, e)
		assert.Equal(t, id.EntryID(want), got)

		cur, err := s.Sequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, cur)

		stored, err := s.GetEntry(ctx, got)
		require.NoError(t, err)
		assert.True(t, e.Equal(stored), "stored %+v, inserted %+v", stored, e)
	}
}

func testIDsNeverReused(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	first := insert(t, s, a, NewEntry("alice", 1, 1))
	second := insert(t, s, a, NewEntry("alice", 2, 2))

	require.NoError(t, s.DeleteEntry(ctx, second))
	require.NoError(t, s.DeleteEntry(ctx, first))

	third := insert(t, s, a, NewEntry("bob", 3, 3))
	assert.Equal(t, id.EntryID(3), third)

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cur)

	_, err = s.GetEntry(ctx, first)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)
}

func testInsertOverflowWritesNothing(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s, sequence.WithCeiling(2))

	insert(t, s, a, NewEntry("alice", 1, 1))
	insert(t, s, a, NewEntry("alice", 2, 2))

	e := NewEntry("alice", 3, 3)
	err := s.InsertEntry(ctx, e, a.Step)
	require.ErrorIs(t, err, bookledger.ErrSequenceOverflow)
	assert.Equal(t, id.Nil, e.ID)

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cur)

	list, err := s.ListEntries(ctx, entry.ListOpts{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Existing entries stay mutable once the allocator is exhausted.
	updated := list[0].Clone()
	updated.Price = types.NewQuantity(99)
	require.NoError(t, s.UpdateEntry(ctx, updated))
	require.NoError(t, s.DeleteEntry(ctx, list[1].ID))
}

func testGetReturnsCopy(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	entryID := insert(t, s, a, NewEntry("alice", 5, 7))

	got, err := s.GetEntry(ctx, entryID)
	require.NoError(t, err)
	got.Amount = types.NewQuantity(500)

	again, err := s.GetEntry(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, "5", again.Amount.String())
}

func testUpdateReplacesFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	entryID := insert(t, s, a, NewEntry("alice", 5, 7))

	updated := &entry.Entry{
		ID:     entryID,
		Owner:  id.MustParseAddress("alice"),
		Asset:  id.MustParseAddress("other-asset"),
		Amount: types.NewQuantity(0),
		Price:  types.MustQuantity("340282366920938463463374607431768211455"),
	}
	require.NoError(t, s.UpdateEntry(ctx, updated))

	got, err := s.GetEntry(ctx, entryID)
	require.NoError(t, err)
	assert.True(t, updated.Equal(got), "got %+v", got)

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cur)
}

func testUpdateMissing(t *testing.T, s store.Store) {
	e := NewEntry("alice", 1, 1)
	e.ID = 42
	err := s.UpdateEntry(context.Background(), e)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	err := s.DeleteEntry(ctx, 42)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)

	entryID := insert(t, s, a, NewEntry("alice", 1, 1))
	require.NoError(t, s.DeleteEntry(ctx, entryID))

	err = s.DeleteEntry(ctx, entryID)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)
}

func testListOrderAndBounds(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	for i := uint64(1); i <= 6; i++ {
		insert(t, s, a, NewEntry("alice", i, i))
	}
	require.NoError(t, s.DeleteEntry(ctx, 4))

	all, err := s.ListEntries(ctx, entry.ListOpts{Limit: 30})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{1, 2, 3, 5, 6}, ids(all))

	page, err := s.ListEntries(ctx, entry.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{1, 2}, ids(page))

	after := id.EntryID(2)
	page, err = s.ListEntries(ctx, entry.ListOpts{After: &after, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{3, 5}, ids(page))

	after = 6
	page, err = s.ListEntries(ctx, entry.ListOpts{After: &after, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func testListAfterMissingID(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	for i := uint64(1); i <= 5; i++ {
		insert(t, s, a, NewEntry("alice", i, i))
	}
	require.NoError(t, s.DeleteEntry(ctx, 3))

	after := id.EntryID(3)
	page, err := s.ListEntries(ctx, entry.ListOpts{After: &after, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{4, 5}, ids(page))

	after = 100
	page, err = s.ListEntries(ctx, entry.ListOpts{After: &after, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func testLargeQuantities(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := sequence.New(s)

	e := NewEntry("alice", 0, 0)
	e.Amount = types.MustQuantity("340282366920938463463374607431768211455")
	e.Price = types.MustQuantity("18446744073709551616")
	entryID := insert(t, s, a, e)

	got, err := s.GetEntry(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", got.Amount.String())
	assert.Equal(t, "18446744073709551616", got.Price.String())
}

func ids(entries []*entry.Entry) []id.EntryID {
	out := make([]id.EntryID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
