package bookledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/store/memory"
)

var (
	alice = id.MustParseAddress("alice")
	bob   = id.MustParseAddress("bob")
	asset = id.MustParseAddress("asset")
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLedger(t *testing.T, opts ...bookledger.Option) *bookledger.Ledger {
	t.Helper()
	opts = append([]bookledger.Option{bookledger.WithLogger(quietLogger())}, opts...)
	l := bookledger.New(memory.New(), opts...)
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func create(t *testing.T, l *bookledger.Ledger, owner id.Address, amount, price uint64) id.EntryID {
	t.Helper()
	r, err := l.Create(context.Background(), owner, asset, bookledger.NewQuantity(amount), bookledger.NewQuantity(price))
	require.NoError(t, err)
	return r.EntryID
}

func entryIDs(entries []*entry.Entry) []id.EntryID {
	out := make([]id.EntryID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func u32(v uint32) *uint32 { return &v }

func eid(v uint64) *id.EntryID {
	e := id.EntryID(v)
	return &e
}

func TestScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)

	// Five creates by A yield ids 1..5.
	for want := uint64(1); want <= 5; want++ {
		got := create(t, l, alice, want*100, want)
		assert.Equal(t, id.EntryID(want), got)
	}

	all, err := l.List(ctx, bookledger.ListOpts{})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{1, 2, 3, 4, 5}, entryIDs(all))

	page, err := l.List(ctx, bookledger.ListOpts{StartAfter: eid(3), Limit: u32(2)})
	require.NoError(t, err)
	assert.Equal(t, []id.EntryID{4, 5}, entryIDs(page))

	// B may not touch A's entry.
	_, err = l.Update(ctx, bob, 2, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(1))
	require.ErrorIs(t, err, bookledger.ErrUnauthorized)

	unchanged, err := l.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "200", unchanged.Amount.String())

	// A deletes 2; the identity is gone for good.
	_, err = l.Delete(ctx, alice, 2)
	require.NoError(t, err)

	_, err = l.Get(ctx, 2)
	require.ErrorIs(t, err, bookledger.ErrNotFound)

	next := create(t, l, alice, 600, 6)
	assert.Equal(t, id.EntryID(6), next)
}

func TestCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)

	r, err := l.Create(ctx, bob, asset, bookledger.NewQuantity(10), bookledger.MustQuantity("340282366920938463463374607431768211455"))
	require.NoError(t, err)

	assert.Equal(t, bookledger.MethodCreate, r.Method)
	assert.Equal(t, id.EntryID(1), r.EntryID)
	v, ok := r.Attribute(bookledger.AttrNewEntry)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	e, err := l.Get(ctx, r.EntryID)
	require.NoError(t, err)
	assert.Equal(t, bob, e.Owner)
	assert.Equal(t, asset, e.Asset)
	assert.Equal(t, "10", e.Amount.String())
	assert.Equal(t, "340282366920938463463374607431768211455", e.Price.String())

	seq, err := l.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

func TestUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)
	entryID := create(t, l, alice, 1, 1)
	other := id.MustParseAddress("other-asset")

	t.Run("owner overwrites fields", func(t *testing.T) {
		r, err := l.Update(ctx, alice, entryID, other, bookledger.NewQuantity(0), bookledger.NewQuantity(99))
		require.NoError(t, err)
		assert.Equal(t, bookledger.MethodUpdate, r.Method)
		v, ok := r.Attribute(bookledger.AttrUpdatedEntryID)
		require.True(t, ok)
		assert.Equal(t, entryID.String(), v)

		e, err := l.Get(ctx, entryID)
		require.NoError(t, err)
		assert.Equal(t, entryID, e.ID)
		assert.Equal(t, alice, e.Owner)
		assert.Equal(t, other, e.Asset)
		assert.True(t, e.Amount.IsZero())
		assert.Equal(t, "99", e.Price.String())
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := l.Update(ctx, alice, 42, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(1))
		assert.True(t, bookledger.IsNotFound(err))
	})

	t.Run("non owner", func(t *testing.T) {
		_, err := l.Update(ctx, bob, entryID, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(1))
		assert.True(t, bookledger.IsUnauthorized(err))
		assert.NotContains(t, err.Error(), alice.String())
	})

	t.Run("sequence untouched", func(t *testing.T) {
		seq, err := l.Sequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), seq)
	})
}

func TestDelete(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)
	entryID := create(t, l, alice, 1, 1)

	_, err := l.Delete(ctx, bob, entryID)
	require.ErrorIs(t, err, bookledger.ErrUnauthorized)

	_, err = l.Get(ctx, entryID)
	require.NoError(t, err)

	r, err := l.Delete(ctx, alice, entryID)
	require.NoError(t, err)
	assert.Equal(t, bookledger.MethodDelete, r.Method)
	v, ok := r.Attribute(bookledger.AttrDeletedEntryID)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, err = l.Delete(ctx, alice, entryID)
	assert.ErrorIs(t, err, bookledger.ErrNotFound)
}

func TestListLimits(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)
	for i := uint64(1); i <= 35; i++ {
		create(t, l, alice, i, i)
	}

	tests := []struct {
		name  string
		opts  bookledger.ListOpts
		want  int
		first id.EntryID
	}{
		{"default", bookledger.ListOpts{}, 10, 1},
		{"explicit", bookledger.ListOpts{Limit: u32(5)}, 5, 1},
		{"clamped", bookledger.ListOpts{Limit: u32(1000)}, 30, 1},
		{"zero", bookledger.ListOpts{Limit: u32(0)}, 0, 0},
		{"after", bookledger.ListOpts{StartAfter: eid(30), Limit: u32(30)}, 5, 31},
		{"after end", bookledger.ListOpts{StartAfter: eid(35)}, 0, 0},
		{"after max", bookledger.ListOpts{StartAfter: eid(^uint64(0))}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := l.List(ctx, tt.opts)
			require.NoError(t, err)
			require.Len(t, page, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.first, page[0].ID)
			}
			for i := 1; i < len(page); i++ {
				assert.Less(t, page[i-1].ID, page[i].ID)
			}
		})
	}
}

func TestPaginationVisitsEveryEntryOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)
	for i := uint64(1); i <= 23; i++ {
		create(t, l, alice, i, i)
	}
	for _, del := range []id.EntryID{4, 10, 11, 23} {
		_, err := l.Delete(ctx, alice, del)
		require.NoError(t, err)
	}

	var seen []id.EntryID
	var cursor *id.EntryID
	for {
		page, err := l.List(ctx, bookledger.ListOpts{StartAfter: cursor, Limit: u32(4)})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		seen = append(seen, entryIDs(page)...)
		last := page[len(page)-1].ID
		cursor = &last
	}

	all, err := l.List(ctx, bookledger.ListOpts{Limit: u32(30)})
	require.NoError(t, err)
	assert.Equal(t, entryIDs(all), seen)
	assert.Len(t, seen, 19)
}

func TestPageLimitOption(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t, bookledger.WithPageLimits(50, 3))
	for i := uint64(1); i <= 5; i++ {
		create(t, l, alice, i, i)
	}

	page, err := l.List(ctx, bookledger.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestSequenceOverflow(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	rec := &recorder{}
	l := newLedger(t, bookledger.WithMaxEntryID(2), bookledger.WithPlugin(rec))

	create(t, l, alice, 1, 1)
	create(t, l, alice, 2, 2)

	_, err := l.Create(ctx, alice, asset, bookledger.NewQuantity(3), bookledger.NewQuantity(3))
	require.ErrorIs(t, err, bookledger.ErrSequenceOverflow)
	assert.Equal(t, bookledger.KindOverflow, bookledger.KindOf(err))

	seq, err := l.Sequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	// Existing entries remain usable.
	_, err = l.Update(ctx, alice, 1, asset, bookledger.NewQuantity(7), bookledger.NewQuantity(7))
	require.NoError(t, err)
	_, err = l.Delete(ctx, alice, 2)
	require.NoError(t, err)

	// Deleting does not free an identity.
	_, err = l.Create(ctx, alice, asset, bookledger.NewQuantity(3), bookledger.NewQuantity(3))
	require.ErrorIs(t, err, bookledger.ErrSequenceOverflow)

	assert.Equal(t, []uint64{2, 2}, rec.exhausted())
}

func TestDeterministicReplay(t *testing.T) {
	defer goleak.VerifyNone(t)

	run := func() ([]bookledger.Receipt, []*entry.Entry) {
		ctx := context.Background()
		l := newLedger(t)
		var receipts []bookledger.Receipt

		steps := []func() (bookledger.Receipt, error){
			func() (bookledger.Receipt, error) {
				return l.Create(ctx, alice, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(2))
			},
			func() (bookledger.Receipt, error) {
				return l.Create(ctx, bob, asset, bookledger.NewQuantity(3), bookledger.NewQuantity(4))
			},
			func() (bookledger.Receipt, error) {
				return l.Update(ctx, alice, 1, asset, bookledger.NewQuantity(5), bookledger.NewQuantity(6))
			},
			func() (bookledger.Receipt, error) { return l.Delete(ctx, bob, 2) },
			func() (bookledger.Receipt, error) { return l.Delete(ctx, bob, 1) },
		}
		for _, step := range steps {
			r, err := step()
			if err == nil {
				receipts = append(receipts, r)
			}
		}

		all, err := l.List(ctx, bookledger.ListOpts{Limit: u32(30)})
		require.NoError(t, err)
		return receipts, all
	}

	r1, s1 := run()
	r2, s2 := run()
	assert.Equal(t, r1, r2)
	require.Len(t, s2, len(s1))
	for i := range s1 {
		assert.True(t, s1[i].Equal(s2[i]))
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	boom := errors.New("disk on fire")
	s := &failingStore{Store: memory.New(), err: boom}
	l := bookledger.New(s, bookledger.WithLogger(quietLogger()))
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	r, err := l.Create(ctx, alice, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(1))
	require.NoError(t, err)

	s.failWrites = true
	_, err = l.Update(ctx, alice, r.EntryID, asset, bookledger.NewQuantity(2), bookledger.NewQuantity(2))
	require.ErrorIs(t, err, boom)
	assert.True(t, bookledger.IsStoreFailure(err))

	e, err := l.Get(ctx, r.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "1", e.Amount.String())
}

// ──────────────────────────────────────────────────
// Test doubles
// ──────────────────────────────────────────────────

type failingStore struct {
	*memory.Store
	err        error
	failWrites bool
}

func (f *failingStore) UpdateEntry(ctx context.Context, e *entry.Entry) error {
	if f.failWrites {
		return f.err
	}
	return f.Store.UpdateEntry(ctx, e)
}

type recorder struct {
	mu   sync.Mutex
	seqs []uint64
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnSequenceExhausted(_ context.Context, last uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, last)
	return nil
}

func (r *recorder) exhausted() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs...)
}

func TestReceiptAttributes(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	l := newLedger(t)

	created, err := l.Create(ctx, alice, asset, bookledger.NewQuantity(1), bookledger.NewQuantity(2))
	require.NoError(t, err)
	updated, err := l.Update(ctx, alice, created.EntryID, asset, bookledger.NewQuantity(3), bookledger.NewQuantity(4))
	require.NoError(t, err)
	deleted, err := l.Delete(ctx, alice, created.EntryID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		receipt bookledger.Receipt
		method  string
		key     string
	}{
		{"create", created, "execute_create_book_entry", "new_book_entry"},
		{"update", updated, "execute_update_book_entry", "updated_book_entry_id"},
		{"delete", deleted, "execute_delete_book_entry", "deleted_book_entry_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []bookledger.Attribute{
				{Key: "method", Value: tt.method},
				{Key: tt.key, Value: "1"},
			}, tt.receipt.Attributes)
		})
	}
}
