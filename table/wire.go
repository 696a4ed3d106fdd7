package table

import (
	"strconv"
	"strings"

	"github.com/vmatei2/pyrox-client/codec"
)

// wireEnvelope covers responses that wrap the row array instead of returning
// it bare.
type wireEnvelope struct {
	Rows  []map[string]any `json:"rows"`
	Races []map[string]any `json:"races"`
}

// DecodeWire deserializes rows as published by the remote source and
// normalizes their column semantics. It accepts both the processed schema
// (canonical keys, precomputed *_time_min values) and the legacy raw schema
// (work_1..work_8 station keys, run_1..run_8 splits, time strings only),
// producing the same canonical Result either way. Minute values missing from
// the payload are derived from their time strings.
func DecodeWire(c codec.Codec, data []byte) (Table, error) {
	if c == nil {
		c = codec.Default
	}

	var raw []map[string]any
	if err := c.Unmarshal(data, &raw); err != nil {
		var env wireEnvelope
		if err2 := c.Unmarshal(data, &env); err2 != nil {
			return Table{}, err
		}
		raw = env.Rows
		if raw == nil {
			raw = env.Races
		}
	}

	rows := make([]Result, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, normalizeRow(r))
	}
	return Table{Rows: rows}, nil
}

func normalizeRow(row map[string]any) Result {
	return Result{
		ResultID:    str(row, "result_id"),
		Season:      integer(row, "season"),
		Location:    strings.ToLower(str(row, "location")),
		Year:        integer(row, "year"),
		Name:        str(row, "name", "name_raw"),
		Gender:      str(row, "gender"),
		Division:    str(row, "division"),
		AgeGroup:    str(row, "age_group"),
		Nationality: str(row, "nationality"),
		EventID:     str(row, "event_id"),
		EventName:   str(row, "event_name"),

		TotalTime:      str(row, "total_time"),
		TotalTimeMin:   minutes(row, "total_time_min", "total_time"),
		RunTimeMin:     minutes(row, "run_time_min", "run_time"),
		WorkTimeMin:    minutes(row, "work_time_min", "work_time"),
		RoxzoneTimeMin: minutes(row, "roxzone_time_min", "roxzone_time"),

		Run1TimeMin: minutes(row, "run1_time_min", "run1_time", "run_1"),
		Run2TimeMin: minutes(row, "run2_time_min", "run2_time", "run_2"),
		Run3TimeMin: minutes(row, "run3_time_min", "run3_time", "run_3"),
		Run4TimeMin: minutes(row, "run4_time_min", "run4_time", "run_4"),
		Run5TimeMin: minutes(row, "run5_time_min", "run5_time", "run_5"),
		Run6TimeMin: minutes(row, "run6_time_min", "run6_time", "run_6"),
		Run7TimeMin: minutes(row, "run7_time_min", "run7_time", "run_7"),
		Run8TimeMin: minutes(row, "run8_time_min", "run8_time", "run_8"),

		// Station order is fixed by the event format: work_1 is always the
		// SkiErg, work_8 always the wall balls.
		SkiErgTimeMin:          minutes(row, "skiErg_time_min", "skiErg_time", "work_1"),
		SledPushTimeMin:        minutes(row, "sledPush_time_min", "sledPush_time", "work_2"),
		SledPullTimeMin:        minutes(row, "sledPull_time_min", "sledPull_time", "work_3"),
		BurpeeBroadJumpTimeMin: minutes(row, "burpeeBroadJump_time_min", "burpeeBroadJump_time", "work_4"),
		RowErgTimeMin:          minutes(row, "rowErg_time_min", "rowErg_time", "work_5"),
		FarmersCarryTimeMin:    minutes(row, "farmersCarry_time_min", "farmersCarry_time", "work_6"),
		SandbagLungesTimeMin:   minutes(row, "sandbagLunges_time_min", "sandbagLunges_time", "work_7"),
		WallBallsTimeMin:       minutes(row, "wallBalls_time_min", "wallBalls_time", "work_8"),
	}
}

// ParseMinutes converts a race time string to minutes. It accepts "H:MM:SS"
// and "MM:SS" with an optional fractional seconds part and embedded
// whitespace. Anything else reports false.
func ParseMinutes(raw string) (float64, bool) {
	s := strings.Join(strings.Fields(raw), "")
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	for i, p := range parts {
		if !digitsMaybeFraction(p, i == len(parts)-1) {
			return 0, false
		}
	}

	var seconds float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		seconds = seconds*60 + v
	}
	return seconds / 60, true
}

// digitsMaybeFraction reports whether p is a run of digits, allowing one
// decimal point when fraction is true.
func digitsMaybeFraction(p string, fraction bool) bool {
	if p == "" {
		return false
	}
	dot := false
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && fraction && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}

func str(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func integer(row map[string]any, key string) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func minutes(row map[string]any, minKey string, strKeys ...string) float64 {
	if v, ok := row[minKey].(float64); ok && v > 0 {
		return v
	}
	for _, k := range strKeys {
		if s := str(row, k); s != "" {
			if m, ok := ParseMinutes(s); ok {
				return m
			}
		}
	}
	return 0
}
