package observability

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/store/memory"
)

type fakeCounter struct {
	mu sync.Mutex
	v  float64
}

func (c *fakeCounter) Inc() { c.Add(1) }

func (c *fakeCounter) Add(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v += d
}

func (c *fakeCounter) value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

type fakeHistogram struct {
	mu  sync.Mutex
	obs []float64
}

func (h *fakeHistogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.obs = append(h.obs, v)
}

type fakeFactory struct {
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) Counter {
	c := &fakeCounter{}
	f.counters[name] = c
	return c
}

func (f *fakeFactory) Histogram(name string) Histogram {
	h := &fakeHistogram{}
	f.histograms[name] = h
	return h
}

func TestMetricsThroughLedger(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	l := bookledger.New(memory.New(),
		bookledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		bookledger.WithPlugin(m),
	)
	require.NoError(t, l.Start(ctx))

	alice, bob := id.Address("alice"), id.Address("bob")

	r, err := l.Create(ctx, alice, "asset", bookledger.NewQuantity(100), bookledger.NewQuantity(15))
	require.NoError(t, err)
	_, err = l.Create(ctx, alice, "asset", bookledger.NewQuantity(1), bookledger.NewQuantity(1))
	require.NoError(t, err)
	_, err = l.Update(ctx, bob, r.EntryID, "asset", bookledger.NewQuantity(1), bookledger.NewQuantity(1))
	require.Error(t, err)
	_, err = l.Delete(ctx, bob, r.EntryID)
	require.Error(t, err)
	_, err = l.Update(ctx, alice, r.EntryID, "asset", bookledger.NewQuantity(50), bookledger.NewQuantity(15))
	require.NoError(t, err)
	_, err = l.Delete(ctx, alice, r.EntryID)
	require.NoError(t, err)

	require.NoError(t, l.Stop())

	assert.InDelta(t, 1, f.counters["bookledger.started"].value(), 0)
	assert.InDelta(t, 1, f.counters["bookledger.stopped"].value(), 0)
	assert.InDelta(t, 2, f.counters["bookledger.entry.created"].value(), 0)
	assert.InDelta(t, 1, f.counters["bookledger.entry.updated"].value(), 0)
	assert.InDelta(t, 1, f.counters["bookledger.entry.deleted"].value(), 0)
	assert.InDelta(t, 2, f.counters["bookledger.access.denied"].value(), 0)
	assert.InDelta(t, 1, f.counters["bookledger.access.denied.update"].value(), 0)
	assert.InDelta(t, 1, f.counters["bookledger.access.denied.delete"].value(), 0)
	assert.InDelta(t, 0, f.counters["bookledger.sequence.exhausted"].value(), 0)

	assert.Equal(t, []float64{100, 1, 50}, f.histograms["bookledger.entry.amount"].obs)
}
