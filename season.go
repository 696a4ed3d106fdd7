package pyrox

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmatei2/pyrox-client/model"
	"github.com/vmatei2/pyrox-client/table"
)

// taskState tracks one location fetch inside a season aggregation.
type taskState uint8

const (
	taskPending taskState = iota
	taskRunning
	taskSucceeded
	taskNotFound
	taskFailed
)

// String returns the state name for logs.
func (s taskState) String() string {
	switch s {
	case taskPending:
		return "pending"
	case taskRunning:
		return "running"
	case taskSucceeded:
		return "succeeded"
	case taskNotFound:
		return "not-found"
	case taskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// fetchTask is the unit of work FetchSeason schedules per location. state
// and err are written only by the task's own goroutine and read after the
// group's Wait returns.
type fetchTask struct {
	season   int
	location string
	state    taskState
	err      error
}

// FetchSeason fetches every race of a season and concatenates the result
// sets. A non-empty locations slice restricts the aggregation to that
// subset (case-insensitive). Races whose artifacts are missing remotely are
// skipped; any other failure aborts the whole call and cancels in-flight
// siblings.
//
// Row order follows task completion, not location order. A known season
// whose artifacts are all missing yields an empty table, not an error; a
// season the manifest does not list at all returns *ErrRaceNotFound.
func (c *Client) FetchSeason(ctx context.Context, season int, locations []string, filters model.Filters, optFns ...FetchOption) (table.Table, error) {
	fo := applyFetchOptions(optFns)

	start := time.Now()
	tbl, attempted, missing, err := c.fetchSeason(ctx, season, locations, filters, fo)
	err = translateError(err)

	c.metrics.RecordSeasonFetch(attempted, missing, time.Since(start))
	c.logger.LogSeasonFetch(ctx, season, attempted, missing, tbl.Len(), err)

	return tbl, err
}

func (c *Client) fetchSeason(ctx context.Context, season int, locations []string, filters model.Filters, fo fetchOptions) (table.Table, int, int, error) {
	subset := canonicalLocations(locations)
	key := seasonKey(season, subset, filters)

	if !fo.skipCache && !fo.forceRefresh {
		if tbl, ok := c.loadCached(key, c.seasonTTL); ok {
			c.metrics.RecordCacheHit()
			return tbl, 0, 0, nil
		}
		c.metrics.RecordCacheMiss()
	}

	man, err := c.fetchManifest(ctx, fo.forceRefresh)
	if err != nil {
		return table.Table{}, 0, 0, err
	}

	targets := man.Locations(season)
	if len(subset) > 0 {
		targets = intersect(targets, subset)
	}
	if len(targets) == 0 {
		return table.Table{}, 0, 0, &ErrRaceNotFound{Season: season}
	}

	tasks := make([]*fetchTask, len(targets))
	for i, loc := range targets {
		tasks[i] = &fetchTask{season: season, location: loc, state: taskPending}
	}

	var (
		mu    sync.Mutex
		parts []table.Table
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, t := range tasks {
		g.Go(func() error {
			t.state = taskRunning

			tbl, err := c.fetchRace(gctx, man, t.season, t.location, filters, fo)
			switch {
			case errors.Is(err, ErrNotFound):
				t.state = taskNotFound
				return nil
			case err != nil:
				t.state = taskFailed
				t.err = err
				return err
			}

			t.state = taskSucceeded
			if !tbl.Empty() {
				mu.Lock()
				parts = append(parts, tbl)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, t := range tasks {
			if t.state == taskFailed {
				c.logger.DebugContext(ctx, "season task failed",
					"season", t.season,
					"location", t.location,
					"state", t.state.String(),
					"error", t.err,
				)
			}
		}
		return table.Table{}, 0, 0, err
	}

	var missing int
	for _, t := range tasks {
		if t.state == taskNotFound {
			missing++
			c.logger.DebugContext(ctx, "race artifact missing, skipped",
				"season", t.season,
				"location", t.location,
			)
		}
	}

	combined := table.Concat(parts...)
	if !fo.skipCache {
		c.storeCached(ctx, key, combined, "")
	}

	return combined, len(tasks), missing, nil
}

// intersect keeps the known locations present in subset. Both slices must
// be canonical; order of known is preserved.
func intersect(known, subset []string) []string {
	allowed := make(map[string]struct{}, len(subset))
	for _, loc := range subset {
		allowed[loc] = struct{}{}
	}

	out := make([]string, 0, len(subset))
	for _, loc := range known {
		if _, ok := allowed[loc]; ok {
			out = append(out, loc)
		}
	}
	return out
}
