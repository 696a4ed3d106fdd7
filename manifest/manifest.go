// Package manifest models the lookup table mapping (season, location) to
// remote object keys, and fetches it with ETag revalidation and stale
// fallback.
package manifest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
)

// Entry locates one race artifact in the content store.
type Entry struct {
	Season   int    `json:"season"`
	Location string `json:"location"`
	Year     int    `json:"year,omitempty"`
	Key      string `json:"key"`
}

// Manifest is an immutable snapshot of the published lookup table.
type Manifest struct {
	entries []Entry
}

// New builds a manifest from entries.
func New(entries []Entry) *Manifest {
	return &Manifest{entries: entries}
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Resolve returns the entry for season and location. Locations match
// case-insensitively. A year of zero accepts any edition; a non-zero year
// requires the entry to carry the same year or none.
func (m *Manifest) Resolve(season int, location string, year int) (Entry, bool) {
	for _, e := range m.entries {
		if e.Season != season || !strings.EqualFold(e.Location, location) {
			continue
		}
		if year != 0 && e.Year != 0 && e.Year != year {
			continue
		}
		return e, true
	}
	return Entry{}, false
}

// Locations returns the distinct locations holding results for a season,
// lowercased and sorted.
func (m *Manifest) Locations(season int) []string {
	seen := make(map[string]struct{})
	var locations []string
	for _, e := range m.entries {
		if e.Season != season {
			continue
		}
		loc := strings.ToLower(e.Location)
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return locations
}

// Races returns the distinct (season, location) pairs in the manifest,
// ordered by season then location. A positive season narrows the listing.
func (m *Manifest) Races(season int) []Entry {
	seen := make(map[string]struct{})
	var races []Entry
	for _, e := range m.entries {
		if season > 0 && e.Season != season {
			continue
		}
		loc := strings.ToLower(e.Location)
		id := strconv.Itoa(e.Season) + "\x00" + loc
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		races = append(races, Entry{Season: e.Season, Location: loc})
	}
	sort.Slice(races, func(i, j int) bool {
		if races[i].Season != races[j].Season {
			return races[i].Season < races[j].Season
		}
		return races[i].Location < races[j].Location
	})
	return races
}

// Decode parses a manifest document. Both published wire forms are accepted:
// the JSON rows served by the results API and the CSV kept in the bucket.
func Decode(data []byte) (*Manifest, error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return nil, errors.New("manifest: empty document")
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return decodeJSON(trimmed)
	}
	return decodeCSV(data)
}

func decodeJSON(data []byte) (*Manifest, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		var envelope struct {
			Races []map[string]any `json:"races"`
		}
		if err2 := json.Unmarshal(data, &envelope); err2 != nil || envelope.Races == nil {
			return nil, fmt.Errorf("manifest: parse json: %w", err)
		}
		rows = envelope.Races
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e := Entry{
			Season:   intField(row, "season"),
			Location: strField(row, "location"),
			Year:     intField(row, "year"),
			Key:      strField(row, "path", "s3_key", "key"),
		}
		if e.Season == 0 || e.Location == "" {
			return nil, fmt.Errorf("manifest: row %d missing season or location", i)
		}
		entries = append(entries, e)
	}
	return New(entries), nil
}

func decodeCSV(data []byte) (*Manifest, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("manifest: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("manifest: empty csv")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"season", "location"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("manifest: missing required column: %s", required)
		}
	}
	keyCol, ok := col["s3_key"]
	if !ok {
		if keyCol, ok = col["path"]; !ok {
			if keyCol, ok = col["key"]; !ok {
				return nil, errors.New("manifest: missing required column: s3_key")
			}
		}
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, record := range records[1:] {
		season, err := strconv.Atoi(strings.TrimSpace(record[col["season"]]))
		if err != nil {
			return nil, fmt.Errorf("manifest: row %d: bad season %q", i+1, record[col["season"]])
		}
		e := Entry{
			Season:   season,
			Location: strings.TrimSpace(record[col["location"]]),
			Key:      strings.TrimSpace(record[keyCol]),
		}
		if yearCol, hasYear := col["year"]; hasYear {
			if year, err := strconv.Atoi(strings.TrimSpace(record[yearCol])); err == nil {
				e.Year = year
			}
		}
		if e.Location == "" {
			return nil, fmt.Errorf("manifest: row %d missing location", i+1)
		}
		entries = append(entries, e)
	}
	return New(entries), nil
}

func strField(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func intField(row map[string]any, key string) int {
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
