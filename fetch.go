package pyrox

import (
	"context"
	"fmt"
	"time"

	"github.com/vmatei2/pyrox-client/manifest"
	"github.com/vmatei2/pyrox-client/model"
	"github.com/vmatei2/pyrox-client/remote"
	"github.com/vmatei2/pyrox-client/table"
)

// FetchOption adjusts a single query.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	skipCache    bool
	forceRefresh bool
}

// WithoutCache bypasses the artifact cache for this call: nothing is read
// from it and nothing is written back.
func WithoutCache() FetchOption {
	return func(o *fetchOptions) {
		o.skipCache = true
	}
}

// WithForceRefresh ignores cached artifacts for this call but still writes
// the fresh result back to the cache.
func WithForceRefresh() FetchOption {
	return func(o *fetchOptions) {
		o.forceRefresh = true
	}
}

func applyFetchOptions(optFns []FetchOption) fetchOptions {
	var o fetchOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// FetchRace returns the result set for one race, identified by season and
// location. Filters narrow the returned rows and, through Year, pin the
// edition when a location hosted the same season twice.
//
// A race the manifest does not list, or whose artifact is gone from the
// remote store, returns *ErrRaceNotFound.
func (c *Client) FetchRace(ctx context.Context, season int, location string, filters model.Filters, optFns ...FetchOption) (table.Table, error) {
	fo := applyFetchOptions(optFns)

	start := time.Now()
	tbl, err := c.fetchRace(ctx, nil, season, location, filters, fo)
	err = translateError(err)

	c.metrics.RecordFetch(time.Since(start), err)
	c.logger.LogFetch(ctx, season, location, tbl.Len(), err)

	return tbl, err
}

// fetchRace serves one race, cache first. A nil man resolves against a
// freshly fetched manifest; season aggregation passes its shared manifest
// instead so tasks never refetch it.
func (c *Client) fetchRace(ctx context.Context, man *manifest.Manifest, season int, location string, filters model.Filters, fo fetchOptions) (table.Table, error) {
	key := raceKey(season, location, filters)

	if !fo.skipCache && !fo.forceRefresh {
		if tbl, ok := c.loadCached(key, c.raceTTL); ok {
			c.metrics.RecordCacheHit()
			return tbl, nil
		}
		c.metrics.RecordCacheMiss()
	}

	if man == nil {
		var err error
		man, err = c.fetchManifest(ctx, fo.forceRefresh)
		if err != nil {
			return table.Table{}, err
		}
	}

	entry, ok := man.Resolve(season, location, filters.Year)
	if !ok {
		return table.Table{}, &ErrRaceNotFound{Season: season, Location: location}
	}

	res, err := c.transport.Fetch(ctx, refFor(entry), "")
	if err != nil {
		return table.Table{}, fmt.Errorf("fetch race %d/%s: %w", season, location, err)
	}
	if res.Status == remote.StatusNotFound {
		return table.Table{}, &ErrRaceNotFound{Season: season, Location: location, cause: remote.ErrNotFound}
	}

	tbl, err := table.DecodeWire(c.codec, res.Body)
	if err != nil {
		return table.Table{}, fmt.Errorf("decode race %d/%s: %w", season, location, err)
	}
	tbl = tbl.Filter(filters)

	if !fo.skipCache {
		c.storeCached(ctx, key, tbl, res.ETag)
	}

	return tbl, nil
}

// refFor maps a manifest entry to a transport ref. Entries usually carry an
// explicit key; older manifests omit it, and the published bucket layout
// mirrors the API routes.
func refFor(entry manifest.Entry) string {
	if entry.Key != "" {
		return entry.Key
	}
	return fmt.Sprintf("v1/race/%d/%s", entry.Season, canonicalLocation(entry.Location))
}

// loadCached returns the cached table under key when it is fresh and
// decodable. Undecodable artifacts read as misses; the next store overwrites
// them.
func (c *Client) loadCached(key string, ttl time.Duration) (table.Table, bool) {
	if !c.store.Fresh(key, ttl) {
		return table.Table{}, false
	}
	data, ok := c.store.Load(key)
	if !ok {
		return table.Table{}, false
	}
	tbl, err := table.Decode(c.codec, data)
	if err != nil {
		return table.Table{}, false
	}
	return tbl, true
}

// storeCached persists tbl under key. Write failures are logged and
// swallowed; the result already in hand is still returned.
func (c *Client) storeCached(ctx context.Context, key string, tbl table.Table, etag string) {
	data, err := tbl.Encode(c.codec)
	if err == nil {
		err = c.store.Store(key, data, etag, tbl.Len())
	}
	if err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
