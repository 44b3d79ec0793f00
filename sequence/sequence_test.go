package sequence

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStore struct {
	value uint64
	err   error
}

func (f fixedStore) Sequence(context.Context) (uint64, error) { return f.value, f.err }

func TestStep(t *testing.T) {
	a := New(fixedStore{})

	next, err := a.Step(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	prev := next
	for i := 0; i < 100; i++ {
		n, err := a.Step(prev)
		require.NoError(t, err)
		assert.Equal(t, prev+1, n)
		prev = n
	}
}

func TestStepOverflow(t *testing.T) {
	a := New(fixedStore{})
	assert.Equal(t, uint64(math.MaxUint64), a.Ceiling())

	n, err := a.Step(math.MaxUint64 - 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)

	n, err = a.Step(math.MaxUint64)
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(math.MaxUint64), n)
}

func TestWithCeiling(t *testing.T) {
	a := New(fixedStore{}, WithCeiling(3))

	_, err := a.Step(2)
	require.NoError(t, err)

	_, err = a.Step(3)
	assert.ErrorIs(t, err, ErrOverflow)

	// Zero is ignored.
	b := New(fixedStore{}, WithCeiling(0))
	assert.Equal(t, uint64(math.MaxUint64), b.Ceiling())
}

func TestCurrentAndExhausted(t *testing.T) {
	ctx := context.Background()

	a := New(fixedStore{value: 5}, WithCeiling(5))
	cur, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cur)

	done, err := a.Exhausted(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	storeErr := errors.New("disk gone")
	b := New(fixedStore{err: storeErr})
	_, err = b.Exhausted(ctx)
	assert.ErrorIs(t, err, storeErr)
}
