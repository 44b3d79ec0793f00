package bookledger

import "github.com/xraph/bookledger/id"

// EntryID is the identity of a book entry.
type EntryID = id.EntryID

// Address is an opaque account or asset address.
type Address = id.Address

// ParseEntryID parses an entry identity supplied for field. Failures are
// reported as ValidationError.
func ParseEntryID(field, s string) (id.EntryID, error) {
	entryID, err := id.ParseEntryID(s)
	if err != nil {
		return id.Nil, ValidationError{Field: field, Message: err.Error()}
	}
	return entryID, nil
}

// ParseAddress parses an address supplied for field. Failures are reported
// as ValidationError.
func ParseAddress(field, s string) (id.Address, error) {
	addr, err := id.ParseAddress(s)
	if err != nil {
		return "", ValidationError{Field: field, Message: err.Error()}
	}
	return addr, nil
}
