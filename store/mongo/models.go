package mongo

import (
	"fmt"
	"math"

	"github.com/xraph/grove"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/types"
)

// ==================== Entry models ====================

type entryModel struct {
	grove.BaseModel `grove:"table:bookledger_entries"`

	ID     int64  `grove:"id,pk"  bson:"_id"`
	Owner  string `grove:"owner"  bson:"owner"`
	Asset  string `grove:"asset"  bson:"asset"`
	Amount string `grove:"amount" bson:"amount"`
	Price  string `grove:"price"  bson:"price"`
}

func toEntryModel(e *entry.Entry) *entryModel {
	return &entryModel{
		ID:     int64(e.ID.Uint64()), //nolint:gosec // callers check fitsField first
		Owner:  e.Owner.String(),
		Asset:  e.Asset.String(),
		Amount: e.Amount.String(),
		Price:  e.Price.String(),
	}
}

func fromEntryModel(m *entryModel) (*entry.Entry, error) {
	if m.ID <= 0 {
		return nil, fmt.Errorf("invalid entry id %d", m.ID)
	}
	amount, err := types.ParseQuantity(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("entry %d amount: %w", m.ID, err)
	}
	price, err := types.ParseQuantity(m.Price)
	if err != nil {
		return nil, fmt.Errorf("entry %d price: %w", m.ID, err)
	}
	return &entry.Entry{
		ID:     id.EntryID(uint64(m.ID)),
		Owner:  id.Address(m.Owner),
		Asset:  id.Address(m.Asset),
		Amount: amount,
		Price:  price,
	}, nil
}

// ==================== Sequence models ====================

type sequenceModel struct {
	grove.BaseModel `grove:"table:bookledger_sequences"`

	Name  string `grove:"id,pk" bson:"_id"`
	Value int64  `grove:"value" bson:"value"`
}

// fitsField reports whether entryID can be stored as a BSON int64.
func fitsField(entryID id.EntryID) bool {
	return entryID.Uint64() <= math.MaxInt64
}
