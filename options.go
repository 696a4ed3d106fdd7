package pyrox

import (
	"log/slog"
	"os"
	"time"

	"github.com/vmatei2/pyrox-client/cache"
	"github.com/vmatei2/pyrox-client/codec"
	"github.com/vmatei2/pyrox-client/manifest"
	"github.com/vmatei2/pyrox-client/remote"
)

const (
	// DefaultAPIURL is the public results API.
	DefaultAPIURL = "https://pyrox-api-proud-surf-3131.fly.dev"

	// DefaultConcurrency bounds parallel race fetches during season
	// aggregation.
	DefaultConcurrency = 8

	// DefaultRaceTTL is how long a cached race artifact is served without
	// consulting the remote store.
	DefaultRaceTTL = 2 * time.Hour

	// DefaultSeasonTTL is how long a cached season aggregate is served
	// without consulting the remote store.
	DefaultSeasonTTL = time.Hour

	// EnvAPIKey is the environment variable consulted for the results API
	// bearer token when WithAPIKey is not used.
	EnvAPIKey = "PYROX_API_KEY"

	// EnvCacheDir is the environment variable consulted for the cache root
	// when WithCacheDir is not used.
	EnvCacheDir = "PYROX_CACHE_DIR"

	// EnvBucket is the environment variable consulted for the artifact
	// bucket when WithBucket is not used.
	EnvBucket = "PYROX_BUCKET"
)

type options struct {
	cacheDir         string
	codec            codec.Codec
	compression      cache.Compression
	transport        remote.Transport
	apiURL           string
	apiKey           string
	bucket           string
	apiOnly          bool
	concurrency      int
	raceTTL          time.Duration
	seasonTTL        time.Duration
	manifestTTL      time.Duration
	manifestRef      string
	rateLimit        float64
	rateBurst        int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Client construction.
type Option func(*options)

// WithCacheDir sets the directory holding the artifact cache.
// Defaults to the PYROX_CACHE_DIR environment variable, then to
// <user cache dir>/pyrox.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithCodec configures the codec used for cached artifacts and the index.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the on-disk artifact framing.
func WithCompression(c cache.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithTransport replaces the default remote transport (public S3 bucket
// with results-API fallback). Useful for tests and self-hosted mirrors.
func WithTransport(t remote.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithAPIURL overrides the results API base URL.
func WithAPIURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.apiURL = url
		}
	}
}

// WithAPIKey sets the bearer token for the results API. Defaults to the
// PYROX_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBucket overrides the public S3 bucket holding published artifacts.
// Defaults to the PYROX_BUCKET environment variable.
func WithBucket(bucket string) Option {
	return func(o *options) {
		o.bucket = bucket
	}
}

// WithAPIOnly skips the S3 transport and fetches everything through the
// results API.
func WithAPIOnly() Option {
	return func(o *options) {
		o.apiOnly = true
	}
}

// WithConcurrency bounds parallel race fetches during season aggregation.
// Values below 1 fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.concurrency = n
		}
	}
}

// WithRaceTTL sets how long cached race artifacts stay fresh.
func WithRaceTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.raceTTL = ttl
	}
}

// WithSeasonTTL sets how long cached season aggregates stay fresh.
func WithSeasonTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.seasonTTL = ttl
	}
}

// WithManifestTTL sets how long the cached manifest stays fresh.
// A non-positive TTL revalidates on every fetch.
func WithManifestTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.manifestTTL = ttl
	}
}

// WithManifestRef overrides the remote ref the manifest is fetched from.
func WithManifestRef(ref string) Option {
	return func(o *options) {
		if ref != "" {
			o.manifestRef = ref
		}
	}
}

// WithRateLimit throttles remote calls to rps requests per second with the
// given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = rps
		o.rateBurst = burst
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pyrox.BasicMetricsCollector{}
//	client, _ := pyrox.New(ctx, pyrox.WithMetricsCollector(metrics))
//	// ... use client ...
//	stats := metrics.GetStats()
//	fmt.Printf("Fetches: %d, Avg latency: %dns\n", stats.FetchCount, stats.FetchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pyrox.NewJSONLogger(slog.LevelInfo)
//	client, _ := pyrox.New(ctx, pyrox.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cacheDir:         os.Getenv(EnvCacheDir),
		apiURL:           DefaultAPIURL,
		apiKey:           os.Getenv(EnvAPIKey),
		bucket:           os.Getenv(EnvBucket),
		codec:            codec.Default,
		compression:      cache.CompressionZstd,
		concurrency:      DefaultConcurrency,
		raceTTL:          DefaultRaceTTL,
		seasonTTL:        DefaultSeasonTTL,
		manifestTTL:      manifest.DefaultTTL,
		manifestRef:      manifest.DefaultRef,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
