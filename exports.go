package bookledger

import (
	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/types"
)

// Re-export common types for convenience so users don't have to import the
// entry and types packages.

// Entry is re-exported from the entry package.
type Entry = entry.Entry

// Quantity is re-exported from the types package.
type Quantity = types.Quantity

// Re-export Quantity constructors
var (
	NewQuantity  = types.NewQuantity
	MustQuantity = types.MustQuantity
)

// ParseQuantity parses a decimal amount or price supplied for field. Failures
// are reported as ValidationError.
func ParseQuantity(field, s string) (types.Quantity, error) {
	q, err := types.ParseQuantity(s)
	if err != nil {
		return types.Quantity{}, ValidationError{Field: field, Message: err.Error()}
	}
	return q, nil
}
