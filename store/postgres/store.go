package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	ledgerstore "github.com/xraph/bookledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bookledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bookledger/postgres: %w: %w", bookledger.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Entry Store ====================

// insertEntrySQL advances the sequence row only if it still holds the value
// the step was computed from, and inserts the entry only if the sequence
// moved. Both happen in one statement.
const insertEntrySQL = `
	WITH seq AS (
		INSERT INTO bookledger_sequences (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
		WHERE bookledger_sequences.value = $3
		RETURNING value
	)
	INSERT INTO bookledger_entries (id, owner, asset, amount, price)
	SELECT value, $4, $5, $6, $7 FROM seq
	RETURNING id
`

func (s *Store) InsertEntry(ctx context.Context, e *entry.Entry, step sequence.Step) error {
	current, err := s.Sequence(ctx)
	if err != nil {
		return err
	}

	next, err := step(current)
	if err != nil {
		return err
	}
	if next > math.MaxInt64 {
		return bookledger.ErrSequenceOverflow
	}

	m := toEntryModel(e)
	m.ID = int64(next)

	var inserted int64
	err = s.pg.NewRaw(insertEntrySQL,
		ledgerstore.SequenceName, m.ID, int64(current), //nolint:gosec // current < next <= MaxInt64
		m.Owner, m.Asset, m.Amount, m.Price,
	).Scan(ctx, &inserted)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("bookledger/postgres: insert entry: %w", bookledger.ErrSequenceConflict)
		}
		return fmt.Errorf("bookledger/postgres: insert entry: %w", err)
	}

	e.ID = id.EntryID(uint64(inserted))
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	if !fitsColumn(entryID) {
		return nil, bookledger.ErrNotFound
	}

	m := new(entryModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(entryID.Uint64())). //nolint:gosec // checked by fitsColumn
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bookledger.ErrNotFound
		}
		return nil, err
	}
	return fromEntryModel(m)
}

func (s *Store) ListEntries(ctx context.Context, opts entry.ListOpts) ([]*entry.Entry, error) {
	var models []entryModel
	q := s.pg.NewSelect(&models)

	if opts.After != nil {
		if !fitsColumn(*opts.After) {
			return []*entry.Entry{}, nil
		}
		q = q.Where("id > $1", int64(opts.After.Uint64())) //nolint:gosec // checked by fitsColumn
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*entry.Entry, len(models))
	for i := range models {
		e, err := fromEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *entry.Entry) error {
	if !fitsColumn(e.ID) {
		return bookledger.ErrNotFound
	}

	m := toEntryModel(e)
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bookledger.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, entryID id.EntryID) error {
	if !fitsColumn(entryID) {
		return bookledger.ErrNotFound
	}

	res, err := s.pg.NewDelete((*entryModel)(nil)).
		Where("id = $1", int64(entryID.Uint64())). //nolint:gosec // checked by fitsColumn
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return bookledger.ErrNotFound
	}
	return nil
}

// ==================== Sequence Store ====================

func (s *Store) Sequence(ctx context.Context) (uint64, error) {
	var value int64
	err := s.pg.NewRaw(`
		SELECT COALESCE((SELECT value FROM bookledger_sequences WHERE name = $1), 0)
	`, ledgerstore.SequenceName).Scan(ctx, &value)
	if err != nil {
		return 0, fmt.Errorf("bookledger/postgres: read sequence: %w", err)
	}
	if value < 0 {
		return 0, fmt.Errorf("bookledger/postgres: read sequence: negative value %d", value)
	}
	return uint64(value), nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
