// Package plugin provides an extensible plugin system for the book ledger.
// Plugins can hook into lifecycle and entry events to extend functionality.
//
// Hooks run after a transition's result is final. A failing or slow plugin
// is logged and skipped; it never changes what the ledger returned.
package plugin

import (
	"context"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Entry hooks
// ──────────────────────────────────────────────────

// OnEntryCreated is called after a new entry is committed.
type OnEntryCreated interface {
	Plugin
	OnEntryCreated(ctx context.Context, e *entry.Entry) error
}

// OnEntryUpdated is called after an entry is overwritten.
type OnEntryUpdated interface {
	Plugin
	OnEntryUpdated(ctx context.Context, oldEntry, newEntry *entry.Entry) error
}

// OnEntryDeleted is called after an entry is removed.
type OnEntryDeleted interface {
	Plugin
	OnEntryDeleted(ctx context.Context, e *entry.Entry) error
}

// OnAccessDenied is called when a requester tries to mutate an entry it
// does not own. op is "update" or "delete".
type OnAccessDenied interface {
	Plugin
	OnAccessDenied(ctx context.Context, requester id.Address, entryID id.EntryID, op string) error
}

// ──────────────────────────────────────────────────
// Sequence hooks
// ──────────────────────────────────────────────────

// OnSequenceExhausted is called when a create fails because no further
// identities can be issued.
type OnSequenceExhausted interface {
	Plugin
	OnSequenceExhausted(ctx context.Context, last uint64) error
}
