// Package table holds the normalized tabular form of race results.
//
// A Table is what every fetch resolves to: a flat slice of Result rows with
// canonical column names and derived minute values. Cached artifacts persist
// the normalized form, so decode-time normalization happens exactly once per
// remote fetch.
package table

import (
	"strings"

	"github.com/vmatei2/pyrox-client/codec"
	"github.com/vmatei2/pyrox-client/model"
)

// Result is one athlete's race result with canonical column semantics.
// Minute fields are zero when the source value was absent or unparseable,
// matching the source data's nullable time columns.
type Result struct {
	ResultID    string `json:"result_id,omitempty"`
	Season      int    `json:"season,omitempty"`
	Location    string `json:"location,omitempty"`
	Year        int    `json:"year,omitempty"`
	Name        string `json:"name"`
	Gender      string `json:"gender,omitempty"`
	Division    string `json:"division,omitempty"`
	AgeGroup    string `json:"age_group,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	EventName   string `json:"event_name,omitempty"`

	TotalTime      string  `json:"total_time,omitempty"`
	TotalTimeMin   float64 `json:"total_time_min,omitempty"`
	RunTimeMin     float64 `json:"run_time_min,omitempty"`
	WorkTimeMin    float64 `json:"work_time_min,omitempty"`
	RoxzoneTimeMin float64 `json:"roxzone_time_min,omitempty"`

	Run1TimeMin float64 `json:"run1_time_min,omitempty"`
	Run2TimeMin float64 `json:"run2_time_min,omitempty"`
	Run3TimeMin float64 `json:"run3_time_min,omitempty"`
	Run4TimeMin float64 `json:"run4_time_min,omitempty"`
	Run5TimeMin float64 `json:"run5_time_min,omitempty"`
	Run6TimeMin float64 `json:"run6_time_min,omitempty"`
	Run7TimeMin float64 `json:"run7_time_min,omitempty"`
	Run8TimeMin float64 `json:"run8_time_min,omitempty"`

	SkiErgTimeMin          float64 `json:"skiErg_time_min,omitempty"`
	SledPushTimeMin        float64 `json:"sledPush_time_min,omitempty"`
	SledPullTimeMin        float64 `json:"sledPull_time_min,omitempty"`
	BurpeeBroadJumpTimeMin float64 `json:"burpeeBroadJump_time_min,omitempty"`
	RowErgTimeMin          float64 `json:"rowErg_time_min,omitempty"`
	FarmersCarryTimeMin    float64 `json:"farmersCarry_time_min,omitempty"`
	SandbagLungesTimeMin   float64 `json:"sandbagLunges_time_min,omitempty"`
	WallBallsTimeMin       float64 `json:"wallBalls_time_min,omitempty"`
}

// Table is an ordered collection of Result rows. The zero value is usable
// and explicitly empty.
type Table struct {
	Rows []Result `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Filter returns the rows matching every set dimension of f. Gender and
// division compare case-insensitively, and an explicit "all" matches
// everything exactly like an unset dimension, keeping row selection
// consistent with cache-key canonicalization. Time bounds apply to
// TotalTimeMin; rows without a parsed total time are dropped when a bound
// is set.
func (t Table) Filter(f model.Filters) Table {
	if f.IsZero() {
		return t
	}

	gender := f.CanonicalGender()
	division := f.CanonicalDivision()

	out := make([]Result, 0, len(t.Rows))
	for _, r := range t.Rows {
		if gender != model.Unset && !strings.EqualFold(gender, r.Gender) {
			continue
		}
		if division != model.Unset && !strings.EqualFold(division, r.Division) {
			continue
		}
		if f.MinTotalTime > 0 && (r.TotalTimeMin == 0 || r.TotalTimeMin < f.MinTotalTime) {
			continue
		}
		if f.MaxTotalTime > 0 && (r.TotalTimeMin == 0 || r.TotalTimeMin > f.MaxTotalTime) {
			continue
		}
		out = append(out, r)
	}
	return Table{Rows: out}
}

// Concat merges tables in argument order. No inter-table ordering beyond
// that is implied.
func Concat(tables ...Table) Table {
	var n int
	for _, t := range tables {
		n += len(t.Rows)
	}
	if n == 0 {
		return Table{}
	}

	rows := make([]Result, 0, n)
	for _, t := range tables {
		rows = append(rows, t.Rows...)
	}
	return Table{Rows: rows}
}

// Encode serializes the normalized table with c (codec.Default when nil).
func (t Table) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(t.Rows)
}

// Decode deserializes an artifact previously produced by Encode.
func Decode(c codec.Codec, data []byte) (Table, error) {
	if c == nil {
		c = codec.Default
	}
	var rows []Result
	if err := c.Unmarshal(data, &rows); err != nil {
		return Table{}, err
	}
	return Table{Rows: rows}, nil
}
