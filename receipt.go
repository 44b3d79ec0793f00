package bookledger

import "github.com/xraph/bookledger/id"

// Method names a ledger transition in a Receipt.
type Method string

const (
	MethodCreate Method = "execute_create_book_entry"
	MethodUpdate Method = "execute_update_book_entry"
	MethodDelete Method = "execute_delete_book_entry"
)

// Attribute keys carried by receipts.
const (
	AttrNewEntry       = "new_book_entry"
	AttrUpdatedEntryID = "updated_book_entry_id"
	AttrDeletedEntryID = "deleted_book_entry_id"
)

// Attribute is a key/value pair describing the effect of a transition.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Receipt describes a committed transition. Equal prior state and equal
// input always yield an equal receipt.
type Receipt struct {
	Method     Method      `json:"method"`
	EntryID    id.EntryID  `json:"entry_id"`
	Attributes []Attribute `json:"attributes"`
}

func newReceipt(method Method, key string, entryID id.EntryID) Receipt {
	return Receipt{
		Method:  method,
		EntryID: entryID,
		Attributes: []Attribute{
			{Key: "method", Value: string(method)},
			{Key: key, Value: entryID.String()},
		},
	}
}

// Attribute returns the value stored under key and whether it was present.
func (r Receipt) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
