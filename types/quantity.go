// Package types provides value types shared across the book ledger.
package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// maxQuantity is 2^128-1, the largest amount or price an entry can carry.
var maxQuantity = decimal.RequireFromString("340282366920938463463374607431768211455")

// Quantity is a non-negative integer amount or price. The ledger treats it
// as unit-less: it is stored and compared, never converted.
//
// The zero value is 0. Values built through the constructors below are
// always integral, non-negative and at most 2^128-1.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type Quantity struct {
	d decimal.Decimal
}

// NewQuantity creates a Quantity from an unsigned integer.
func NewQuantity(v uint64) Quantity {
	return Quantity{d: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)}
}

// ParseQuantity parses a decimal string such as "1500" or "1.5e3".
// The value must be integral, non-negative and fit in 128 bits.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity: parse %q: %w", s, err)
	}

	switch {
	case d.IsNegative():
		return Quantity{}, fmt.Errorf("quantity: parse %q: negative", s)
	case !d.IsInteger():
		return Quantity{}, fmt.Errorf("quantity: parse %q: not an integer", s)
	case d.GreaterThan(maxQuantity):
		return Quantity{}, fmt.Errorf("quantity: parse %q: exceeds 128 bits", s)
	}

	// Normalize to exponent 0 so equal values print identically.
	return Quantity{d: decimal.NewFromBigInt(d.BigInt(), 0)}, nil
}

// MustQuantity is like ParseQuantity but panics on error. Use for hardcoded values.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the canonical base-10 representation.
func (q Quantity) String() string {
	return q.d.String()
}

// Decimal returns the underlying decimal value.
func (q Quantity) Decimal() decimal.Decimal {
	return q.d
}

// BigInt returns the value as a new big.Int.
func (q Quantity) BigInt() *big.Int {
	return q.d.BigInt()
}

// IsZero reports whether the quantity is 0.
func (q Quantity) IsZero() bool {
	return q.d.IsZero()
}

// Equal reports whether two quantities hold the same value.
func (q Quantity) Equal(other Quantity) bool {
	return q.d.Equal(other.d)
}

// Cmp compares two quantities and returns -1, 0 or +1.
func (q Quantity) Cmp(other Quantity) int {
	return q.d.Cmp(other.d)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It applies the same
// validation as ParseQuantity.
func (q *Quantity) UnmarshalText(data []byte) error {
	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
