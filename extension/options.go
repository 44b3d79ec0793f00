package extension

import (
	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/plugin"
	"github.com/xraph/bookledger/store"
)

// Option configures the book ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a bookledger.Option through to the underlying engine.
func WithLedgerOption(opt bookledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, bookledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPageLimits sets the default and maximum List page sizes.
func WithPageLimits(defaultLimit, maxLimit uint32) Option {
	return func(e *Extension) {
		e.config.DefaultPageLimit = defaultLimit
		e.config.MaxPageLimit = maxLimit
	}
}

// WithMaxEntryID caps issued identities.
func WithMaxEntryID(ceiling uint64) Option {
	return func(e *Extension) { e.config.MaxEntryID = ceiling }
}

// WithPebblePath opens a Pebble store at dir when no store is set.
func WithPebblePath(dir string) Option {
	return func(e *Extension) { e.config.PebblePath = dir }
}
