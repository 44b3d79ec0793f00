// Package sequence allocates book entry identities.
//
// The allocator owns a single persisted counter. It never touches storage
// directly when issuing an identity: instead it hands the store a Step
// function, and the store applies that step to the stored value inside the
// same atomic commit that persists the new entry. The read, the increment
// and the write therefore happen in one transition or not at all.
package sequence

import (
	"context"
	"errors"
	"math"
)

// ErrOverflow is returned when the counter has reached its ceiling. It is
// terminal: no further identities can be issued.
var ErrOverflow = errors.New("sequence: overflow")

// Step maps the current counter value to the next one.
type Step func(current uint64) (uint64, error)

// Store reads the persisted counter.
type Store interface {
	Sequence(ctx context.Context) (uint64, error)
}

// Allocator hands out strictly increasing identities.
type Allocator struct {
	store   Store
	ceiling uint64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCeiling lowers the largest identity the allocator will issue.
// A zero ceiling is ignored.
func WithCeiling(ceiling uint64) Option {
	return func(a *Allocator) {
		if ceiling > 0 {
			a.ceiling = ceiling
		}
	}
}

// New creates an Allocator reading from s. The default ceiling is
// math.MaxUint64.
func New(s Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:   s,
		ceiling: math.MaxUint64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Step returns current+1. It is the only function that produces identities.
func (a *Allocator) Step(current uint64) (uint64, error) {
	if current >= a.ceiling {
		return current, ErrOverflow
	}
	return current + 1, nil
}

// Current returns the last identity issued, or 0 if none has been.
func (a *Allocator) Current(ctx context.Context) (uint64, error) {
	return a.store.Sequence(ctx)
}

// Ceiling returns the largest identity the allocator will issue.
func (a *Allocator) Ceiling() uint64 {
	return a.ceiling
}

// Exhausted reports whether the next Step would overflow.
func (a *Allocator) Exhausted(ctx context.Context) (bool, error) {
	cur, err := a.Current(ctx)
	if err != nil {
		return false, err
	}
	return cur >= a.ceiling, nil
}
