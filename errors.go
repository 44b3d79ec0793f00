package bookledger

import (
	"errors"
	"fmt"

	"github.com/xraph/bookledger/sequence"
)

// Sentinel errors for the outcomes a transition can report.
var (
	// ErrNotFound is returned when an operation names an id with no entry.
	ErrNotFound = errors.New("bookledger: entry not found")

	// ErrUnauthorized is returned when the requester does not own the entry.
	// It deliberately carries no information about the actual owner.
	ErrUnauthorized = errors.New("bookledger: unauthorized")

	// ErrSequenceOverflow is returned when no further identities can be
	// issued. Existing entries remain readable, mutable and deletable.
	ErrSequenceOverflow = sequence.ErrOverflow

	// ErrStoreClosed is returned by backends used after Close.
	ErrStoreClosed = errors.New("bookledger: store is closed")

	// ErrSequenceConflict is returned by backends whose counter changed
	// between read and commit. The host runs one transition at a time, so
	// seeing it means that contract was broken.
	ErrSequenceConflict = errors.New("bookledger: sequence changed during commit")

	// ErrMigrationFailed wraps backend migration failures.
	ErrMigrationFailed = errors.New("bookledger: migration failed")
)

// ErrorKind classifies an error returned by the ledger.
type ErrorKind int

// Error kinds, in the order they are checked by KindOf.
const (
	KindNone ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindOverflow
	KindStoreFailure
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindOverflow:
		return "overflow"
	case KindStoreFailure:
		return "store_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf classifies err. Anything that is not one of the ledger's own
// outcomes came from the persistence layer.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrSequenceOverflow):
		return KindOverflow
	default:
		return KindStoreFailure
	}
}

// ValidationError represents a decode-boundary validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bookledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsUnauthorized returns true if the requester was denied.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsOverflow returns true if the sequence allocator is exhausted.
func IsOverflow(err error) bool {
	return KindOf(err) == KindOverflow
}

// IsStoreFailure returns true if the error came from the persistence layer.
func IsStoreFailure(err error) bool {
	return KindOf(err) == KindStoreFailure
}
