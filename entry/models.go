package entry

import (
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/types"
)

// Entry is a book entry: an owner-tagged listing of an amount of some asset
// at a price. ID and Owner are fixed at creation.
type Entry struct {
	ID     id.EntryID     `json:"id"`
	Owner  id.Address     `json:"owner"`
	Asset  id.Address     `json:"asset"`
	Amount types.Quantity `json:"amount"`
	Price  types.Quantity `json:"price"`
}

// OwnedBy reports whether requester is the entry's owner.
func (e *Entry) OwnedBy(requester id.Address) bool {
	return e.Owner == requester
}

// Clone returns a copy that shares no mutable state with e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// Equal reports whether two entries hold identical fields.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.ID == other.ID &&
		e.Owner == other.Owner &&
		e.Asset == other.Asset &&
		e.Amount.Equal(other.Amount) &&
		e.Price.Equal(other.Price)
}
