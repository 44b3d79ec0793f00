package bookledger

import (
	"context"
	"log/slog"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/plugin"
	"github.com/xraph/bookledger/sequence"
	"github.com/xraph/bookledger/store"
	"github.com/xraph/bookledger/types"
)

// Page size bounds applied by List.
const (
	DefaultPageLimit uint32 = 10
	MaxPageLimit     uint32 = 30
)

// Operation names reported to OnAccessDenied hooks.
const (
	OpUpdate = "update"
	OpDelete = "delete"
)

// Ledger is the book entry state machine. Each method is one transition: it
// reads persisted state, applies at most one change and commits it
// atomically through the store before returning.
type Ledger struct {
	store   store.Store
	alloc   *sequence.Allocator
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	defaultLimit   uint32
	maxLimit       uint32
	maxEntryID     uint64
	migrateOnStart bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		defaultLimit:   DefaultPageLimit,
		maxLimit:       MaxPageLimit,
		migrateOnStart: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.alloc = sequence.New(s, sequence.WithCeiling(l.maxEntryID))

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPageLimits sets the List page size used when no limit is given and
// the largest page a caller may request. A zero max is ignored; a default
// above max is lowered to max.
func WithPageLimits(defaultLimit, maxLimit uint32) Option {
	return func(l *Ledger) {
		if maxLimit == 0 {
			return
		}
		l.maxLimit = maxLimit
		l.defaultLimit = min(defaultLimit, maxLimit)
	}
}

// WithMaxEntryID caps the identities the ledger will issue. Creation fails
// with ErrSequenceOverflow once the counter reaches the cap. Zero means no
// cap beyond the store's own.
func WithMaxEntryID(ceiling uint64) Option {
	return func(l *Ledger) {
		l.maxEntryID = ceiling
	}
}

// WithMigrateOnStart controls whether Start migrates the store. It is on
// by default.
func WithMigrateOnStart(migrate bool) Option {
	return func(l *Ledger) {
		l.migrateOnStart = migrate
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.migrateOnStart {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("bookledger started",
		"plugins", l.plugins.Count(),
		"default_page_limit", l.defaultLimit,
		"max_page_limit", l.maxLimit,
		"max_entry_id", l.alloc.Ceiling(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// ──────────────────────────────────────────────────
// Entry Management
// ──────────────────────────────────────────────────

// Create records a new entry owned by requester. Anyone may create. The
// returned receipt carries the issued identity.
func (l *Ledger) Create(ctx context.Context, requester, asset id.Address, amount, price types.Quantity) (Receipt, error) {
	e := &entry.Entry{
		Owner:  requester,
		Asset:  asset,
		Amount: amount,
		Price:  price,
	}

	if err := l.store.InsertEntry(ctx, e, l.alloc.Step); err != nil {
		if IsOverflow(err) {
			l.sequenceExhausted(ctx)
		}
		return Receipt{}, err
	}

	l.logger.Debug("entry created",
		"entry_id", e.ID,
		"requester", requester,
	)
	l.plugins.EmitEntryCreated(ctx, e)

	return newReceipt(MethodCreate, AttrNewEntry, e.ID), nil
}

// Update overwrites the asset, amount and price of an entry the requester
// owns. Identity and owner are preserved.
func (l *Ledger) Update(ctx context.Context, requester id.Address, entryID id.EntryID, asset id.Address, amount, price types.Quantity) (Receipt, error) {
	current, err := l.authorize(ctx, requester, entryID, OpUpdate)
	if err != nil {
		return Receipt{}, err
	}

	updated := current.Clone()
	updated.Asset = asset
	updated.Amount = amount
	updated.Price = price

	if err := l.store.UpdateEntry(ctx, updated); err != nil {
		return Receipt{}, err
	}

	l.logger.Debug("entry updated",
		"entry_id", entryID,
		"requester", requester,
	)
	l.plugins.EmitEntryUpdated(ctx, current, updated)

	return newReceipt(MethodUpdate, AttrUpdatedEntryID, entryID), nil
}

// Delete removes an entry the requester owns. Its identity is never reissued.
func (l *Ledger) Delete(ctx context.Context, requester id.Address, entryID id.EntryID) (Receipt, error) {
	current, err := l.authorize(ctx, requester, entryID, OpDelete)
	if err != nil {
		return Receipt{}, err
	}

	if err := l.store.DeleteEntry(ctx, entryID); err != nil {
		return Receipt{}, err
	}

	l.logger.Debug("entry deleted",
		"entry_id", entryID,
		"requester", requester,
	)
	l.plugins.EmitEntryDeleted(ctx, current)

	return newReceipt(MethodDelete, AttrDeletedEntryID, entryID), nil
}

// Get returns the entry with the given identity. Reads are public.
func (l *Ledger) Get(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	return l.store.GetEntry(ctx, entryID)
}

// ListOpts selects a page of entries.
type ListOpts struct {
	// StartAfter is an exclusive lower bound. It need not name an existing entry.
	StartAfter *id.EntryID
	// Limit is the page size. Nil uses the default; larger values are clamped.
	Limit *uint32
}

// List returns entries in strictly ascending id order.
func (l *Ledger) List(ctx context.Context, opts ListOpts) ([]*entry.Entry, error) {
	limit := l.pageLimit(opts.Limit)
	if limit == 0 {
		return []*entry.Entry{}, nil
	}

	return l.store.ListEntries(ctx, entry.ListOpts{
		After: opts.StartAfter,
		Limit: int(limit),
	})
}

// Sequence returns the last identity issued, or 0 if none has been.
func (l *Ledger) Sequence(ctx context.Context) (uint64, error) {
	return l.alloc.Current(ctx)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// authorize resolves entryID and checks that requester owns it. The store is
// never written before this returns nil.
func (l *Ledger) authorize(ctx context.Context, requester id.Address, entryID id.EntryID, op string) (*entry.Entry, error) {
	current, err := l.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !current.OwnedBy(requester) {
		l.logger.Warn("entry access denied",
			"entry_id", entryID,
			"requester", requester,
			"op", op,
		)
		l.plugins.EmitAccessDenied(ctx, requester, entryID, op)
		return nil, ErrUnauthorized
	}

	return current, nil
}

func (l *Ledger) pageLimit(requested *uint32) uint32 {
	if requested == nil {
		return l.defaultLimit
	}
	return min(*requested, l.maxLimit)
}

func (l *Ledger) sequenceExhausted(ctx context.Context) {
	last, err := l.alloc.Current(ctx)
	if err != nil {
		l.logger.Error("entry sequence exhausted",
			"ceiling", l.alloc.Ceiling(),
			"error", err,
		)
		return
	}

	l.logger.Error("entry sequence exhausted",
		"last_entry_id", last,
		"ceiling", l.alloc.Ceiling(),
	)
	l.plugins.EmitSequenceExhausted(ctx, last)
}
