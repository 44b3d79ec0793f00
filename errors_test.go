package bookledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/sequence"
)

func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bookledger.ErrorKind
	}{
		{"nil", nil, bookledger.KindNone},
		{"not found", bookledger.ErrNotFound, bookledger.KindNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", bookledger.ErrNotFound), bookledger.KindNotFound},
		{"unauthorized", bookledger.ErrUnauthorized, bookledger.KindUnauthorized},
		{"overflow", sequence.ErrOverflow, bookledger.KindOverflow},
		{"wrapped overflow", fmt.Errorf("bookledger/pebble: %w", bookledger.ErrSequenceOverflow), bookledger.KindOverflow},
		{"store", errors.New("connection reset"), bookledger.KindStoreFailure},
		{"closed", bookledger.ErrStoreClosed, bookledger.KindStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bookledger.KindOf(tt.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "not_found", bookledger.KindNotFound.String())
	assert.Equal(t, "store_failure", bookledger.KindStoreFailure.String())
	assert.Equal(t, "kind(42)", bookledger.ErrorKind(42).String())
}

func TestValidationError(t *testing.T) {
	err := bookledger.ValidationError{Field: "price", Message: "negative"}
	assert.Equal(t, "bookledger: validation failed for price: negative", err.Error())
}
