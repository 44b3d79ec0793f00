// Package observability provides a metrics extension for the book ledger
// that records event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnShutdown          = (*MetricsExtension)(nil)
	_ plugin.OnEntryCreated      = (*MetricsExtension)(nil)
	_ plugin.OnEntryUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnEntryDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnAccessDenied      = (*MetricsExtension)(nil)
	_ plugin.OnSequenceExhausted = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger event metrics.
// Register it as a Ledger plugin to track entry activity automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle metrics
	Started Counter
	Stopped Counter

	// Entry metrics
	EntryCreated Counter
	EntryUpdated Counter
	EntryDeleted Counter
	EntryAmount  Histogram
	EntryPrice   Histogram

	// Access metrics
	AccessDenied       Counter
	AccessDeniedUpdate Counter
	AccessDeniedDelete Counter

	// Sequence metrics
	SequenceExhausted Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Lifecycle metrics
		Started: factory.Counter("bookledger.started"),
		Stopped: factory.Counter("bookledger.stopped"),

		// Entry metrics
		EntryCreated: factory.Counter("bookledger.entry.created"),
		EntryUpdated: factory.Counter("bookledger.entry.updated"),
		EntryDeleted: factory.Counter("bookledger.entry.deleted"),
		EntryAmount:  factory.Histogram("bookledger.entry.amount"),
		EntryPrice:   factory.Histogram("bookledger.entry.price"),

		// Access metrics
		AccessDenied:       factory.Counter("bookledger.access.denied"),
		AccessDeniedUpdate: factory.Counter("bookledger.access.denied.update"),
		AccessDeniedDelete: factory.Counter("bookledger.access.denied.delete"),

		// Sequence metrics
		SequenceExhausted: factory.Counter("bookledger.sequence.exhausted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	m.Started.Inc()
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (m *MetricsExtension) OnShutdown(_ context.Context) error {
	m.Stopped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Entry hooks
// ──────────────────────────────────────────────────

// OnEntryCreated implements plugin.OnEntryCreated.
func (m *MetricsExtension) OnEntryCreated(_ context.Context, e *entry.Entry) error {
	m.EntryCreated.Inc()
	m.observe(e)
	return nil
}

// OnEntryUpdated implements plugin.OnEntryUpdated.
func (m *MetricsExtension) OnEntryUpdated(_ context.Context, _, newEntry *entry.Entry) error {
	m.EntryUpdated.Inc()
	m.observe(newEntry)
	return nil
}

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (m *MetricsExtension) OnEntryDeleted(_ context.Context, _ *entry.Entry) error {
	m.EntryDeleted.Inc()
	return nil
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (m *MetricsExtension) OnAccessDenied(_ context.Context, _ id.Address, _ id.EntryID, op string) error {
	m.AccessDenied.Inc()
	switch op {
	case bookledger.OpUpdate:
		m.AccessDeniedUpdate.Inc()
	case bookledger.OpDelete:
		m.AccessDeniedDelete.Inc()
	}
	return nil
}

// OnSequenceExhausted implements plugin.OnSequenceExhausted.
func (m *MetricsExtension) OnSequenceExhausted(_ context.Context, _ uint64) error {
	m.SequenceExhausted.Inc()
	return nil
}

// observe records the quantities of e. Values above float64 precision are
// approximated.
func (m *MetricsExtension) observe(e *entry.Entry) {
	m.EntryAmount.Observe(e.Amount.Decimal().InexactFloat64())
	m.EntryPrice.Observe(e.Price.Decimal().InexactFloat64())
}
