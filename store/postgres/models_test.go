package postgres

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookledger/entry"
	"github.com/xraph/bookledger/id"
	"github.com/xraph/bookledger/types"
)

func TestEntryModelRoundTrip(t *testing.T) {
	e := &entry.Entry{
		ID:     7,
		Owner:  id.MustParseAddress("alice"),
		Asset:  id.MustParseAddress("asset"),
		Amount: types.MustQuantity("340282366920938463463374607431768211455"),
		Price:  types.NewQuantity(15),
	}

	m := toEntryModel(e)
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, "340282366920938463463374607431768211455", m.Amount)
	assert.Equal(t, "15", m.Price)

	got, err := fromEntryModel(m)
	require.NoError(t, err)
	assert.True(t, e.Equal(got))
}

func TestFromEntryModelRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name string
		m    entryModel
	}{
		{"zero id", entryModel{ID: 0, Amount: "1", Price: "1"}},
		{"negative amount", entryModel{ID: 1, Amount: "-1", Price: "1"}},
		{"fractional price", entryModel{ID: 1, Amount: "1", Price: "0.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromEntryModel(&tt.m)
			assert.Error(t, err)
		})
	}
}

func TestIDRange(t *testing.T) {
	assert.True(t, fitsColumn(1))
	assert.True(t, fitsColumn(id.EntryID(math.MaxInt64)))
	assert.False(t, fitsColumn(id.EntryID(math.MaxInt64+1)))
}
