// Package audithook bridges book ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnEntryCreated      = (*Extension)(nil)
	_ plugin.OnEntryUpdated      = (*Extension)(nil)
	_ plugin.OnEntryDeleted      = (*Extension)(nil)
	_ plugin.OnAccessDenied      = (*Extension)(nil)
	_ plugin.OnSequenceExhausted = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges book ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Entry hooks
// ──────────────────────────────────────────────────

// OnEntryCreated implements plugin.OnEntryCreated.
func (e *Extension) OnEntryCreated(ctx context.Context, en *entry.Entry) error {
	return e.record(ctx, ActionEntryCreated, SeverityInfo, OutcomeSuccess,
		ResourceEntry, en.ID.String(), CategoryLedger, nil,
		"owner", en.Owner.String(),
		"asset", en.Asset.String(),
		"amount", en.Amount.String(),
		"price", en.Price.String(),
	)
}

// OnEntryUpdated implements plugin.OnEntryUpdated.
func (e *Extension) OnEntryUpdated(ctx context.Context, oldEntry, newEntry *entry.Entry) error {
	return e.record(ctx, ActionEntryUpdated, SeverityInfo, OutcomeSuccess,
		ResourceEntry, newEntry.ID.String(), CategoryLedger, nil,
		"owner", newEntry.Owner.String(),
		"old_asset", oldEntry.Asset.String(),
		"asset", newEntry.Asset.String(),
		"old_amount", oldEntry.Amount.String(),
		"amount", newEntry.Amount.String(),
		"old_price", oldEntry.Price.String(),
		"price", newEntry.Price.String(),
	)
}

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (e *Extension) OnEntryDeleted(ctx context.Context, en *entry.Entry) error {
	return e.record(ctx, ActionEntryDeleted, SeverityInfo, OutcomeSuccess,
		ResourceEntry, en.ID.String(), CategoryLedger, nil,
		"owner", en.Owner.String(),
	)
}

// OnAccessDenied implements plugin.OnAccessDenied. The event names the
// requester only; the entry's owner is not disclosed.
func (e *Extension) OnAccessDenied(ctx context.Context, requester id.Address, entryID id.EntryID, op string) error {
	return e.record(ctx, ActionEntryAccessDenied, SeverityWarning, OutcomeFailure,
		ResourceEntry, entryID.String(), CategoryAccess, bookledger.ErrUnauthorized,
		"requester", requester.String(),
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Sequence hooks
// ──────────────────────────────────────────────────

// OnSequenceExhausted implements plugin.OnSequenceExhausted.
func (e *Extension) OnSequenceExhausted(ctx context.Context, last uint64) error {
	return e.record(ctx, ActionSequenceExhausted, SeverityCritical, OutcomeFailure,
		ResourceSequence, "", CategoryLedger, bookledger.ErrSequenceOverflow,
		"last_entry_id", last,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
