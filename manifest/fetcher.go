package manifest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmatei2/pyrox-client/cache"
	"github.com/vmatei2/pyrox-client/remote"
)

const (
	// DefaultRef is where the content store publishes the manifest.
	DefaultRef = "v1/manifest"

	// CacheKey is the cache entry holding the manifest document.
	CacheKey = "manifest"

	// DefaultTTL matches the publisher's refresh cadence.
	DefaultTTL = 2 * time.Hour
)

// ErrUnavailable reports that no manifest could be produced: the remote fetch
// failed and no cached copy, fresh or stale, survives locally.
var ErrUnavailable = errors.New("manifest unavailable")

// Fetcher resolves the current manifest, preferring the local cache.
//
// Within the TTL the cached copy is served without network traffic. Past the
// TTL a cheap probe revalidates the cached validator before any download; a
// probe failure serves the cached copy outright when one exists. Downloads
// themselves are conditional, and a failed download falls back to the cached
// copy however stale. Only a failure with no cached copy at all surfaces
// ErrUnavailable.
type Fetcher struct {
	transport remote.Transport
	store     *cache.Store
	ref       string
	ttl       time.Duration
	logger    *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRef overrides the manifest's remote ref.
func WithRef(ref string) FetcherOption {
	return func(f *Fetcher) {
		f.ref = ref
	}
}

// WithTTL overrides the freshness window. A non-positive TTL revalidates on
// every fetch.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.ttl = ttl
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a fetcher reading through transport and caching in
// store.
func NewFetcher(transport remote.Transport, store *cache.Store, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		transport: transport,
		store:     store,
		ref:       DefaultRef,
		ttl:       DefaultTTL,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the current manifest. force bypasses both the freshness
// window and validator revalidation and downloads unconditionally.
func (f *Fetcher) Fetch(ctx context.Context, force bool) (*Manifest, error) {
	if !force && f.store.Fresh(CacheKey, f.ttl) {
		if m := f.cached(); m != nil {
			return m, nil
		}
	}

	// A cheap probe can revalidate the cached copy without a download. A
	// failed probe is never fatal on its own: any cached copy serves, and
	// with no cached copy the fetch below decides.
	if !force {
		token, err := f.transport.Probe(ctx, f.ref)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil || (token != "" && token == f.store.ETag(CacheKey)) {
			if m := f.cached(); m != nil {
				return m, nil
			}
		}
	}

	ifNoneMatch := ""
	if !force {
		ifNoneMatch = f.store.ETag(CacheKey)
	}

	res, err := f.transport.Fetch(ctx, f.ref, ifNoneMatch)
	if err != nil {
		return f.fallback(ctx, err)
	}

	switch res.Status {
	case remote.StatusNotModified:
		if m := f.cached(); m != nil {
			return m, nil
		}
		// Validator matched but the local artifact is gone. Refetch in full.
		res, err = f.transport.Fetch(ctx, f.ref, "")
		if err != nil {
			return f.fallback(ctx, err)
		}
		if res.Status != remote.StatusOK {
			return f.fallback(ctx, fmt.Errorf("refetch %s: unexpected status %s", f.ref, res.Status))
		}
	case remote.StatusNotFound:
		return f.fallback(ctx, fmt.Errorf("%s: %w", f.ref, remote.ErrNotFound))
	}

	m, err := Decode(res.Body)
	if err != nil {
		return f.fallback(ctx, err)
	}

	if err := f.store.Store(CacheKey, res.Body, res.ETag, m.Len()); err != nil {
		f.logger.WarnContext(ctx, "manifest cache write failed", "error", err)
	}
	f.logger.DebugContext(ctx, "manifest refreshed", "entries", m.Len(), "etag", res.ETag)
	return m, nil
}

// cached decodes the cached copy regardless of freshness.
func (f *Fetcher) cached() *Manifest {
	data, ok := f.store.Load(CacheKey)
	if !ok {
		return nil
	}
	m, err := Decode(data)
	if err != nil {
		return nil
	}
	return m
}

func (f *Fetcher) fallback(ctx context.Context, cause error) (*Manifest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if m := f.cached(); m != nil {
		f.logger.WarnContext(ctx, "manifest refresh failed, serving stale copy", "error", cause)
		return m, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, cause)
}
