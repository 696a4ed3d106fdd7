package pyrox

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fetchCounter   prometheus.Counter
//	    fetchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFetch(duration time.Duration, err error) {
//	    p.fetchCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordFetch is called after each race fetch.
	// duration is the total time taken, err is nil if successful.
	RecordFetch(duration time.Duration, err error)

	// RecordSeasonFetch is called after each season aggregation.
	// locations is the number of races attempted, missing is the number
	// whose artifacts were absent remotely, duration is the total time taken.
	RecordSeasonFetch(locations, missing int, duration time.Duration)

	// RecordManifestFetch is called after each manifest fetch, whether it
	// was served from cache or refreshed remotely.
	RecordManifestFetch(duration time.Duration, err error)

	// RecordCacheHit is called when a query is served from the local cache.
	RecordCacheHit()

	// RecordCacheMiss is called when a query has to go remote.
	RecordCacheMiss()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFetch(time.Duration, error)          {}
func (NoopMetricsCollector) RecordSeasonFetch(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordManifestFetch(time.Duration, error)  {}
func (NoopMetricsCollector) RecordCacheHit()                           {}
func (NoopMetricsCollector) RecordCacheMiss()                          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FetchCount          atomic.Int64
	FetchErrors         atomic.Int64
	FetchTotalNanos     atomic.Int64
	SeasonFetchCount    atomic.Int64
	SeasonFetchRaces    atomic.Int64
	SeasonFetchMissing  atomic.Int64
	ManifestFetchCount  atomic.Int64
	ManifestFetchErrors atomic.Int64
	CacheHits           atomic.Int64
	CacheMisses         atomic.Int64
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordSeasonFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSeasonFetch(locations, missing int, duration time.Duration) {
	b.SeasonFetchCount.Add(1)
	b.SeasonFetchRaces.Add(int64(locations))
	b.SeasonFetchMissing.Add(int64(missing))
}

// RecordManifestFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordManifestFetch(duration time.Duration, err error) {
	b.ManifestFetchCount.Add(1)
	if err != nil {
		b.ManifestFetchErrors.Add(1)
	}
}

// RecordCacheHit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheHit() { b.CacheHits.Add(1) }

// RecordCacheMiss implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheMiss() { b.CacheMisses.Add(1) }

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FetchCount:          b.FetchCount.Load(),
		FetchErrors:         b.FetchErrors.Load(),
		FetchAvgNanos:       b.getAvgFetchNanos(),
		SeasonFetchCount:    b.SeasonFetchCount.Load(),
		SeasonFetchRaces:    b.SeasonFetchRaces.Load(),
		SeasonFetchMissing:  b.SeasonFetchMissing.Load(),
		ManifestFetchCount:  b.ManifestFetchCount.Load(),
		ManifestFetchErrors: b.ManifestFetchErrors.Load(),
		CacheHits:           b.CacheHits.Load(),
		CacheMisses:         b.CacheMisses.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFetchNanos() int64 {
	count := b.FetchCount.Load()
	if count == 0 {
		return 0
	}
	return b.FetchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FetchCount          int64
	FetchErrors         int64
	FetchAvgNanos       int64
	SeasonFetchCount    int64
	SeasonFetchRaces    int64
	SeasonFetchMissing  int64
	ManifestFetchCount  int64
	ManifestFetchErrors int64
	CacheHits           int64
	CacheMisses         int64
}
