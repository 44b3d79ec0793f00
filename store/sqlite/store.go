package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	ledgerstore "github.com/xraph/bookledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
//
// The sequence row is advanced by a trigger on bookledger_entries, so the
// conditional insert in InsertEntry moves the entry and the counter in one
// statement.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables, trigger and seed row using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("bookledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bookledger/sqlite: %w: %w", bookledger.ErrMigrationFailed, err)
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
	err = s.sdb.NewRaw(`
		INSERT INTO bookledger_entries (id, owner, asset, amount, price)
		SELECT ?, ?, ?, ?, ?
		WHERE COALESCE((SELECT value FROM bookledger_sequences WHERE name = ?), 0) = ?
		RETURNING id
	`, m.ID, m.Owner, m.Asset, m.Amount, m.Price, ledgerstore.SequenceName, int64(current)).Scan(ctx, &inserted) //nolint:gosec // current <= next <= MaxInt64
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("bookledger/sqlite: insert entry: %w", bookledger.ErrSequenceConflict)
		}
		return fmt.Errorf("bookledger/sqlite: insert entry: %w", err)
	}

	e.ID = id.EntryID(uint64(inserted))
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	if !fitsColumn(entryID) {
		return nil, bookledger.ErrNotFound
	}

	m := new(entryModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(entryID.Uint64())). //nolint:gosec // checked by fitsColumn
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
	q := s.sdb.NewSelect(&models)

	if opts.After != nil {
		if !fitsColumn(*opts.After) {
			return []*entry.Entry{}, nil
		}
		q = q.Where("id > ?", int64(opts.After.Uint64())) //nolint:gosec // checked by fitsColumn
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
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

	res, err := s.sdb.NewDelete((*entryModel)(nil)).
		Where("id = ?", int64(entryID.Uint64())). //nolint:gosec // checked by fitsColumn
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
	err := s.sdb.NewRaw(`
		SELECT COALESCE((SELECT value FROM bookledger_sequences WHERE name = ?), 0)
	`, ledgerstore.SequenceName).Scan(ctx, &value)
	if err != nil {
		return 0, fmt.Errorf("bookledger/sqlite: read sequence: %w", err)
	}
	if value < 0 {
		return 0, fmt.Errorf("bookledger/sqlite: read sequence: negative value %d", value)
	}
	return uint64(value), nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
