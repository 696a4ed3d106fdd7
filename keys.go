package pyrox

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vmatei2/pyrox-client/model"
)

// raceKey builds the cache key for one race result set. Every filter
// dimension is embedded in canonical form, so queries that differ only in
// spelling share an artifact and queries that differ in meaning never do.
func raceKey(season int, location string, f model.Filters) string {
	parts := append([]string{
		"race",
		strconv.Itoa(season),
		canonicalLocation(location),
	}, f.KeyParts()...)
	return strings.Join(parts, "_")
}

// seasonKey builds the cache key for an aggregated season result set.
// locations must already be canonical and sorted; empty means the whole
// season.
func seasonKey(season int, locations []string, f model.Filters) string {
	scope := model.Unset
	if len(locations) > 0 {
		scope = strings.Join(locations, "+")
	}
	parts := append([]string{
		"season",
		strconv.Itoa(season),
		scope,
	}, f.KeyParts()...)
	return strings.Join(parts, "_")
}

func canonicalLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// canonicalLocations casefolds, dedupes and sorts a location subset. The
// result feeds both cache keys and the manifest intersection.
func canonicalLocations(locations []string) []string {
	if len(locations) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(locations))
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		l := canonicalLocation(loc)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
