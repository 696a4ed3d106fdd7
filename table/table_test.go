package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmatei2/pyrox-client/model"
)

func sampleRows() []Result {
	return []Result{
		{Name: "Ada", Gender: "female", Division: "pro", TotalTimeMin: 62.5},
		{Name: "Ben", Gender: "male", Division: "open", TotalTimeMin: 75.0},
		{Name: "Cleo", Gender: "female", Division: "open", TotalTimeMin: 88.25},
		{Name: "Dan", Gender: "male", Division: "open"}, // no parsed total time
	}
}

func TestFilter(t *testing.T) {
	tbl := Table{Rows: sampleRows()}

	t.Run("zero filters keep everything", func(t *testing.T) {
		assert.Equal(t, 4, tbl.Filter(model.Filters{}).Len())
	})

	t.Run("explicit all matches everything", func(t *testing.T) {
		got := tbl.Filter(model.Filters{Gender: "ALL", Division: " all "})
		assert.Equal(t, 4, got.Len())
	})

	t.Run("gender is case-insensitive", func(t *testing.T) {
		got := tbl.Filter(model.Filters{Gender: "Female"})
		require.Equal(t, 2, got.Len())
		assert.Equal(t, "Ada", got.Rows[0].Name)
		assert.Equal(t, "Cleo", got.Rows[1].Name)
	})

	t.Run("division and gender combine", func(t *testing.T) {
		got := tbl.Filter(model.Filters{Gender: "female", Division: "OPEN"})
		require.Equal(t, 1, got.Len())
		assert.Equal(t, "Cleo", got.Rows[0].Name)
	})

	t.Run("time bounds drop unparsed totals", func(t *testing.T) {
		got := tbl.Filter(model.Filters{MaxTotalTime: 80})
		require.Equal(t, 2, got.Len())
		assert.Equal(t, "Ada", got.Rows[0].Name)
		assert.Equal(t, "Ben", got.Rows[1].Name)
	})

	t.Run("min bound", func(t *testing.T) {
		got := tbl.Filter(model.Filters{MinTotalTime: 70})
		require.Equal(t, 2, got.Len())
		assert.Equal(t, "Ben", got.Rows[0].Name)
		assert.Equal(t, "Cleo", got.Rows[1].Name)
	})
}

func TestConcat(t *testing.T) {
	a := Table{Rows: sampleRows()[:2]}
	b := Table{}
	c := Table{Rows: sampleRows()[2:]}

	got := Concat(a, b, c)
	require.Equal(t, 4, got.Len())
	assert.Equal(t, "Ada", got.Rows[0].Name)
	assert.Equal(t, "Dan", got.Rows[3].Name)

	assert.True(t, Concat().Empty())
	assert.True(t, Concat(Table{}, Table{}).Empty())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl := Table{Rows: sampleRows()}

	data, err := tbl.Encode(nil)
	require.NoError(t, err)

	back, err := Decode(nil, data)
	require.NoError(t, err)
	assert.Equal(t, tbl, back)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(nil, []byte("not json"))
	assert.Error(t, err)
}
