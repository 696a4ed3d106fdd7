// Package pyrox provides cached, filterable access to published race
// results.
//
// A Client resolves logical queries (a season and location, or a whole
// season) to tabular result sets, with production-ready features including:
//
//   - Persistent on-disk artifact cache with TTL and ETag bookkeeping,
//     zstd/lz4 compression and glob eviction
//   - Pluggable remote transports: public S3 bucket (anonymous), results
//     API (bearer auth), MinIO, fallback chaining and rate limiting
//   - Manifest-driven race resolution with conditional refresh and stale
//     fallback
//   - Bounded-concurrency season aggregation
//   - Row filtering by gender, division, edition year and total-time bounds
//   - Structured logging (log/slog) and pluggable metrics collection
//
// # Quick Start
//
// Create a client and fetch one race:
//
//	ctx := context.Background()
//
//	client, err := pyrox.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := client.FetchRace(ctx, 7, "london", model.Filters{
//	    Gender:   "female",
//	    Division: "open",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("rows: %d\n", results.Len())
//
// Aggregate a whole season, skipping races that were never published:
//
//	season, err := client.FetchSeason(ctx, 7, nil, model.Filters{})
//
// Discover what exists before fetching:
//
//	races, err := client.ListRaces(ctx, 0)
//
// # Caching
//
// Every fetched result set is persisted under a key derived from the query,
// so repeated queries are served from disk until their TTL lapses. Per-call
// behavior is adjustable:
//
//	client.FetchRace(ctx, 7, "london", filters, pyrox.WithForceRefresh())
//	client.FetchRace(ctx, 7, "london", filters, pyrox.WithoutCache())
//
// ClearCache("race_7_*") evicts by key pattern; CacheSummary reports
// occupancy.
package pyrox
