package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/sequence"
	ledgerstore "github.com/xraph/bookledger/store"
)

// Collection name constants.
const (
	colEntries   = "bookledger_entries"
	colSequences = "bookledger_sequences"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// InsertEntry runs in a multi-document transaction, so the server must be a
// replica set or sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the ledger collections and seeds the sequence.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bookledger/mongo: %w: %s indexes: %w", bookledger.ErrMigrationFailed, col, err)
		}
	}

	// Seed the counter without touching an existing value.
	_, err := s.mdb.Collection(colSequences).UpdateOne(ctx,
		bson.M{"_id": ledgerstore.SequenceName},
		bson.M{"$setOnInsert": bson.M{"value": int64(0)}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("bookledger/mongo: %w: seed sequence: %w", bookledger.ErrMigrationFailed, err)
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
	entries := s.mdb.Collection(colEntries)
	seqs := s.mdb.Collection(colSequences)

	sess, err := entries.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("bookledger/mongo: insert entry: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		var seq struct {
			Value int64 `bson:"value"`
		}
		err := seqs.FindOne(ctx, bson.M{"_id": ledgerstore.SequenceName}).Decode(&seq)
		if err != nil && !isNoDocuments(err) {
			return nil, err
		}
		if seq.Value < 0 {
			return nil, fmt.Errorf("negative sequence value %d", seq.Value)
		}

		next, err := step(uint64(seq.Value))
		if err != nil {
			return nil, err
		}
		if next > math.MaxInt64 {
			return nil, bookledger.ErrSequenceOverflow
		}

		m := toEntryModel(e)
		m.ID = int64(next)

		if _, err := seqs.UpdateOne(ctx,
			bson.M{"_id": ledgerstore.SequenceName},
			bson.M{"$set": bson.M{"value": m.ID}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return nil, err
		}
		if _, err := entries.InsertOne(ctx, bson.D{
			{Key: "_id", Value: m.ID},
			{Key: "owner", Value: m.Owner},
			{Key: "asset", Value: m.Asset},
			{Key: "amount", Value: m.Amount},
			{Key: "price", Value: m.Price},
		}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, bookledger.ErrSequenceConflict
			}
			return nil, err
		}
		return id.EntryID(next), nil
	})
	if err != nil {
		if errors.Is(err, bookledger.ErrSequenceOverflow) {
			return err
		}
		return fmt.Errorf("bookledger/mongo: insert entry: %w", err)
	}

	entryID, ok := result.(id.EntryID)
	if !ok {
		return fmt.Errorf("bookledger/mongo: insert entry: unexpected result %T", result)
	}
	e.ID = entryID
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	if !fitsField(entryID) {
		return nil, bookledger.ErrNotFound
	}

	var m entryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(entryID.Uint64())}). //nolint:gosec // checked by fitsField
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookledger.ErrNotFound
		}
		return nil, fmt.Errorf("bookledger/mongo: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) ListEntries(ctx context.Context, opts entry.ListOpts) ([]*entry.Entry, error) {
	var models []entryModel

	filter := bson.M{}
	if opts.After != nil {
		if !fitsField(*opts.After) {
			return []*entry.Entry{}, nil
		}
		filter["_id"] = bson.M{"$gt": int64(opts.After.Uint64())} //nolint:gosec // checked by fitsField
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bookledger/mongo: list entries: %w", err)
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
	if !fitsField(e.ID) {
		return bookledger.ErrNotFound
	}

	m := toEntryModel(e)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bookledger/mongo: update entry: %w", err)
	}
	if res.MatchedCount() == 0 {
		return bookledger.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, entryID id.EntryID) error {
	if !fitsField(entryID) {
		return bookledger.ErrNotFound
	}

	res, err := s.mdb.NewDelete((*entryModel)(nil)).
		Filter(bson.M{"_id": int64(entryID.Uint64())}). //nolint:gosec // checked by fitsField
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bookledger/mongo: delete entry: %w", err)
	}
	if res.DeletedCount() == 0 {
		return bookledger.ErrNotFound
	}
	return nil
}

// ==================== Sequence Store ====================

func (s *Store) Sequence(ctx context.Context) (uint64, error) {
	var m sequenceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ledgerstore.SequenceName}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("bookledger/mongo: read sequence: %w", err)
	}
	if m.Value < 0 {
		return 0, fmt.Errorf("bookledger/mongo: read sequence: negative value %d", m.Value)
	}
	return uint64(m.Value), nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colEntries: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
