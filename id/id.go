// Package id defines the identity types used by the book ledger.
//
// Entries are identified by EntryID, a positive integer handed out by the
// sequence allocator in strictly increasing order. Accounts and the assets
// an entry refers to are identified by Address, an opaque string that the
// ledger compares byte for byte and never interprets.
package id

import (
	"fmt"
	"strconv"
	"strings"
)

// EntryID identifies a book entry. The zero value is never issued.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type EntryID uint64

// Nil is the zero-value EntryID. No entry is ever assigned it.
const Nil EntryID = 0

// ParseEntryID parses a base-10 entry identity. Zero is rejected since the
// allocator never issues it.
func ParseEntryID(s string) (EntryID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	if v == 0 {
		return Nil, fmt.Errorf("id: parse %q: entry ids start at 1", s)
	}

	return EntryID(v), nil
}

// MustParseEntryID is like ParseEntryID but panics on error. Use for hardcoded values.
func MustParseEntryID(s string) EntryID {
	parsed, err := ParseEntryID(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// String returns the base-10 representation.
func (i EntryID) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// IsNil reports whether this ID is the zero value.
func (i EntryID) IsNil() bool {
	return i == Nil
}

// Uint64 returns the raw sequence value.
func (i EntryID) Uint64() uint64 {
	return uint64(i)
}

// MarshalText implements encoding.TextMarshaler.
func (i EntryID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *EntryID) UnmarshalText(data []byte) error {
	parsed, err := ParseEntryID(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// ──────────────────────────────────────────────────
// Address
// ──────────────────────────────────────────────────

// Address is an opaque account or asset reference. The host verifies
// requester addresses before they reach the ledger.
type Address string

// ParseAddress validates an address at a decode boundary. It rejects empty
// strings and strings with surrounding whitespace, which would otherwise
// compare unequal to the canonical form.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", fmt.Errorf("id: parse address: empty string")
	}

	if strings.TrimSpace(s) != s {
		return "", fmt.Errorf("id: parse address %q: surrounding whitespace", s)
	}

	return Address(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	parsed, err := ParseAddress(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse address: %v", err))
	}

	return parsed
}

// String returns the address as given.
func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return a == "" }
