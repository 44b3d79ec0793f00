package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	"github.com/xraph/bookledger/store"
	"github.com/xraph/bookledger/store/storetest"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	ctx := context.Background()

	sdb := sqlitedriver.New()
	require.NoError(t, sdb.Open(ctx, path))
	db, err := grove.Open(sdb)
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	return openStore(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return tempStore(t) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))

	e := storetest.NewEntry("alice", 1, 2)
	require.NoError(t, s.InsertEntry(ctx, e, sequence.New(s).Step))
	assert.Equal(t, id.EntryID(1), e.ID)
}

func TestReopenKeepsSequence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s := openStore(t, path)
	a := sequence.New(s)
	require.NoError(t, s.InsertEntry(ctx, storetest.NewEntry("alice", 1, 1), a.Step))
	second := storetest.NewEntry("bob", 2, 2)
	require.NoError(t, s.InsertEntry(ctx, second, a.Step))
	require.NoError(t, s.DeleteEntry(ctx, second.ID))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	defer s.Close()

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cur)

	third := storetest.NewEntry("carol", 3, 3)
	require.NoError(t, s.InsertEntry(ctx, third, sequence.New(s).Step))
	assert.Equal(t, id.EntryID(3), third.ID)
}

func TestInsertRejectsStaleSequence(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	defer s.Close()

	a := sequence.New(s)
	require.NoError(t, s.InsertEntry(ctx, storetest.NewEntry("alice", 1, 1), a.Step))

	// Another writer advances the counter between the read and the insert.
	racing := func(current uint64) (uint64, error) {
		_, err := s.sdb.NewRaw(`UPDATE bookledger_sequences SET value = value + 1 WHERE name = ?`,
			store.SequenceName).Exec(ctx)
		require.NoError(t, err)
		return a.Step(current)
	}

	e := storetest.NewEntry("bob", 2, 2)
	err := s.InsertEntry(ctx, e, racing)
	require.ErrorIs(t, err, bookledger.ErrSequenceConflict)
	assert.True(t, e.ID.IsNil())

	_, err = s.GetEntry(ctx, 2)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)

	next := storetest.NewEntry("bob", 2, 2)
	require.NoError(t, s.InsertEntry(ctx, next, a.Step))
	assert.Equal(t, id.EntryID(3), next.ID)
}

func TestIDsAboveColumnRange(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	defer s.Close()

	_, err := s.sdb.NewRaw(`UPDATE bookledger_sequences SET value = ? WHERE name = ?`,
		int64(math.MaxInt64), store.SequenceName).Exec(ctx)
	require.NoError(t, err)

	e := storetest.NewEntry("alice", 1, 1)
	err = s.InsertEntry(ctx, e, sequence.New(s).Step)
	require.ErrorIs(t, err, bookledger.ErrSequenceOverflow)
	assert.True(t, e.ID.IsNil())

	cur, err := s.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), cur)

	beyond := id.EntryID(uint64(math.MaxInt64) + 1)

	_, err = s.GetEntry(ctx, beyond)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)

	missing := storetest.NewEntry("alice", 1, 1)
	missing.ID = beyond
	assert.ErrorIs(t, s.UpdateEntry(ctx, missing), bookledger.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEntry(ctx, beyond), bookledger.ErrNotFound)

	list, err := s.ListEntries(ctx, entry.ListOpts{After: &beyond, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLedgerStartMigrates(t *testing.T) {
	ctx := context.Background()

	sdb := sqlitedriver.New()
	require.NoError(t, sdb.Open(ctx, filepath.Join(t.TempDir(), "ledger.db")))
	db, err := grove.Open(sdb)
	require.NoError(t, err)

	l := bookledger.New(New(db))
	require.NoError(t, l.Start(ctx))

	receipt, err := l.Create(ctx, "alice", "asset", bookledger.NewQuantity(5), bookledger.NewQuantity(7))
	require.NoError(t, err)
	assert.Equal(t, id.EntryID(1), receipt.EntryID)

	got, err := l.Get(ctx, receipt.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "5", got.Amount.String())

	require.NoError(t, l.Stop())
}
