package pyrox

import (
	"context"
)

// Race identifies one published race.
type Race struct {
	Season   int
	Location string
}

// ListRaces returns the distinct races the manifest lists, sorted by season
// then location. A non-positive season lists every season. WithForceRefresh
// bypasses the cached manifest.
func (c *Client) ListRaces(ctx context.Context, season int, optFns ...FetchOption) ([]Race, error) {
	fo := applyFetchOptions(optFns)

	man, err := c.fetchManifest(ctx, fo.forceRefresh)
	if err != nil {
		return nil, translateError(err)
	}

	entries := man.Races(season)
	races := make([]Race, len(entries))
	for i, e := range entries {
		races[i] = Race{Season: e.Season, Location: e.Location}
	}
	return races, nil
}
