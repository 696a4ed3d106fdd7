package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "1:15:30", want: 75.5, ok: true},
		{in: "0:04:30", want: 4.5, ok: true},
		{in: "4:30", want: 4.5, ok: true},
		{in: "4:30.6", want: 4.51, ok: true},
		{in: " 1:00:00 ", want: 60, ok: true},
		{in: "1: 02 :03", want: 62.05, ok: true},
		{in: "", ok: false},
		{in: "–", ok: false},
		{in: "DNF", ok: false},
		{in: "90", ok: false},
		{in: "-1:00", ok: false},
		{in: "1:2:3:4", ok: false},
		{in: "1:0.5:00", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMinutes(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestDecodeWireProcessedSchema(t *testing.T) {
	payload := []byte(`[
		{
			"name": "Ada", "gender": "female", "division": "pro",
			"season": 7, "location": "London", "year": 2025,
			"age_group": "30-34", "nationality": "GBR",
			"event_name": "London 2025",
			"total_time": "1:02:30", "total_time_min": 62.5,
			"run1_time_min": 4.1, "skiErg_time_min": 4.4,
			"wallBalls_time_min": 6.2
		}
	]`)

	tbl, err := DecodeWire(nil, payload)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	r := tbl.Rows[0]
	assert.Equal(t, "Ada", r.Name)
	assert.Equal(t, 7, r.Season)
	assert.Equal(t, "london", r.Location)
	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 62.5, r.TotalTimeMin)
	assert.Equal(t, 4.1, r.Run1TimeMin)
	assert.Equal(t, 4.4, r.SkiErgTimeMin)
	assert.Equal(t, 6.2, r.WallBallsTimeMin)
}

func TestDecodeWireLegacySchema(t *testing.T) {
	payload := []byte(`[
		{
			"name": " Ben ", "gender": "male", "division": "open",
			"season": "7", "location": "DUBLIN",
			"total_time": "1:10:00",
			"run_1": "0:04:30", "run_8": "0:05:00",
			"work_1": "0:04:00", "work_7": "0:05:30", "work_8": "0:06:00"
		}
	]`)

	tbl, err := DecodeWire(nil, payload)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	r := tbl.Rows[0]
	assert.Equal(t, "Ben", r.Name)
	assert.Equal(t, 7, r.Season)
	assert.Equal(t, "dublin", r.Location)
	assert.Equal(t, 70.0, r.TotalTimeMin)
	assert.Equal(t, 4.5, r.Run1TimeMin)
	assert.Equal(t, 5.0, r.Run8TimeMin)
	assert.Equal(t, 4.0, r.SkiErgTimeMin)
	assert.Equal(t, 5.5, r.SandbagLungesTimeMin)
	assert.Equal(t, 6.0, r.WallBallsTimeMin)
}

func TestDecodeWireEnvelope(t *testing.T) {
	payload := []byte(`{"count": 1, "races": [{"name": "Cleo", "gender": "female"}]}`)

	tbl, err := DecodeWire(nil, payload)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Cleo", tbl.Rows[0].Name)
}

func TestDecodeWireEmptyArray(t *testing.T) {
	tbl, err := DecodeWire(nil, []byte(`[]`))
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}

func TestDecodeWireGarbage(t *testing.T) {
	_, err := DecodeWire(nil, []byte(`{"rows": "nope"`))
	assert.Error(t, err)
}
