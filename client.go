package pyrox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmatei2/pyrox-client/cache"
	"github.com/vmatei2/pyrox-client/codec"
	"github.com/vmatei2/pyrox-client/manifest"
	"github.com/vmatei2/pyrox-client/remote"
	s3transport "github.com/vmatei2/pyrox-client/remote/s3"
)

// Client resolves logical race queries against the published results data,
// serving from a persistent local cache whenever possible.
//
// A Client is safe for concurrent use.
type Client struct {
	store       *cache.Store
	transport   remote.Transport
	manifests   *manifest.Fetcher
	codec       codec.Codec
	concurrency int
	raceTTL     time.Duration
	seasonTTL   time.Duration
	metrics     MetricsCollector
	logger      *Logger
}

// New creates a Client. Without options it caches under the user cache
// directory and fetches from the public results bucket, falling back to the
// results API:
//
//	client, err := pyrox.New(ctx)
//
// ctx bounds transport construction only; each query carries its own.
func New(ctx context.Context, optFns ...Option) (*Client, error) {
	opts := applyOptions(optFns)

	cacheDir := opts.cacheDir
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "pyrox")
	}

	store, err := cache.New(cache.Config{
		RootDir:     cacheDir,
		Codec:       opts.codec,
		Compression: opts.compression,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	transport := opts.transport
	if transport == nil {
		transport = defaultTransport(ctx, opts)
	}
	if opts.rateLimit > 0 {
		transport = remote.NewRateLimitedTransport(transport, opts.rateLimit, opts.rateBurst)
	}

	manifests := manifest.NewFetcher(transport, store,
		manifest.WithRef(opts.manifestRef),
		manifest.WithTTL(opts.manifestTTL),
		manifest.WithLogger(opts.logger.Logger),
	)

	return &Client{
		store:       store,
		transport:   transport,
		manifests:   manifests,
		codec:       opts.codec,
		concurrency: opts.concurrency,
		raceTTL:     opts.raceTTL,
		seasonTTL:   opts.seasonTTL,
		metrics:     opts.metricsCollector,
		logger:      opts.logger,
	}, nil
}

// defaultTransport mirrors the published-data topology: the public bucket is
// authoritative and cheap, the results API covers whatever the bucket has
// not mirrored yet. When no S3 client can be built (no resolvable AWS
// config), the API serves alone.
func defaultTransport(ctx context.Context, opts options) remote.Transport {
	api := remote.NewHTTPTransport(opts.apiURL, remote.WithAPIKey(opts.apiKey))
	if opts.apiOnly {
		return api
	}

	bucket, err := s3transport.NewPublic(ctx, opts.bucket)
	if err != nil {
		opts.logger.WarnContext(ctx, "s3 transport unavailable, using results API only", "error", err)
		return api
	}

	return remote.NewFallbackTransport(bucket, api)
}

// ClearCache removes cached artifacts whose keys match pattern (path.Match
// syntax, e.g. "race_7_*"). An empty pattern clears everything. It returns
// the number of artifacts removed.
func (c *Client) ClearCache(pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}
	removed, err := c.store.Evict(pattern)

	c.logger.LogEvict(context.Background(), pattern, removed, err)

	return removed, err
}

// CacheSummary reports cache occupancy: artifact count, total size on disk
// and the cached keys.
func (c *Client) CacheSummary() cache.Summary {
	return c.store.Summary()
}

// fetchManifest loads the manifest, counting the fetch whether it was
// served locally or remotely.
func (c *Client) fetchManifest(ctx context.Context, force bool) (*manifest.Manifest, error) {
	start := time.Now()

	man, err := c.manifests.Fetch(ctx, force)

	c.metrics.RecordManifestFetch(time.Since(start), err)

	return man, err
}
