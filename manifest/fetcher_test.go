package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmatei2/pyrox-client/cache"
	"github.com/vmatei2/pyrox-client/remote"
)

var manifestV1 = []byte(`[{"season": 7, "location": "london", "path": "v1/race/7/london"}]`)

var manifestV2 = []byte(`[
	{"season": 7, "location": "london", "path": "v1/race/7/london"},
	{"season": 7, "location": "berlin", "path": "v1/race/7/berlin"}
]`)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(cache.Config{RootDir: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestFetcherDownloadsAndCaches(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	f := NewFetcher(tr, store)

	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, `"v1"`, store.ETag(CacheKey))

	// Within the TTL the cached copy is served without any network traffic.
	m, err = f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, int64(1), tr.ProbeCalls())
	assert.Equal(t, int64(1), tr.FetchCalls())
}

func TestFetcherProbeRevalidates(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(ctx, false)
	require.NoError(t, err)
	fetchesAfterWarm := tr.FetchCalls()

	// Past the TTL an unchanged validator avoids the download.
	f := NewFetcher(tr, store, WithTTL(0))
	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, fetchesAfterWarm, tr.FetchCalls())
	assert.Equal(t, int64(2), tr.ProbeCalls())
}

func TestFetcherProbeFailureServesCached(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(ctx, false)
	require.NoError(t, err)
	fetchesAfterWarm := tr.FetchCalls()

	// An unreachable probe alone never forces a download.
	tr.FailProbes(errors.New("head blocked"))
	f := NewFetcher(tr, store, WithTTL(0))

	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, fetchesAfterWarm, tr.FetchCalls())
}

func TestFetcherDownloadFailureServesStale(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(ctx, false)
	require.NoError(t, err)

	// The probe sees a new version, so the fetcher must download; the
	// failing download falls back to the stale copy.
	tr.Put(DefaultRef, manifestV2, `"v2"`)
	tr.FailFetches(errors.New("unreachable"))

	f := NewFetcher(tr, store, WithTTL(0))
	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, `"v1"`, store.ETag(CacheKey))
}

func TestFetcherPicksUpChanges(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(ctx, false)
	require.NoError(t, err)

	tr.Put(DefaultRef, manifestV2, `"v2"`)

	f := NewFetcher(tr, store, WithTTL(0))
	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, `"v2"`, store.ETag(CacheKey))

	_, ok := m.Resolve(7, "berlin", 0)
	assert.True(t, ok)
}

func TestFetcherStaleFallback(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(ctx, false)
	require.NoError(t, err)

	// Remote gone entirely: the stale copy still serves.
	tr.FailProbes(errors.New("unreachable"))
	tr.FailFetches(errors.New("unreachable"))

	f := NewFetcher(tr, store, WithTTL(0))
	m, err := f.Fetch(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestFetcherUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure with empty cache", func(t *testing.T) {
		tr := remote.NewMemoryTransport()
		tr.FailProbes(errors.New("unreachable"))
		tr.FailFetches(errors.New("unreachable"))

		f := NewFetcher(tr, newTestStore(t))
		_, err := f.Fetch(ctx, false)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("manifest missing remotely", func(t *testing.T) {
		f := NewFetcher(remote.NewMemoryTransport(), newTestStore(t))
		_, err := f.Fetch(ctx, false)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})

	t.Run("undecodable body with empty cache", func(t *testing.T) {
		tr := remote.NewMemoryTransport()
		tr.Put(DefaultRef, []byte("%%%"), `"v1"`)

		f := NewFetcher(tr, newTestStore(t))
		_, err := f.Fetch(ctx, false)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestFetcherForceBypassesCache(t *testing.T) {
	ctx := context.Background()
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	f := NewFetcher(tr, store)
	_, err := f.Fetch(ctx, false)
	require.NoError(t, err)

	tr.Put(DefaultRef, manifestV2, `"v2"`)

	// force downloads even though the cached copy is fresh.
	m, err := f.Fetch(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, int64(2), tr.FetchCalls())
}

func TestFetcherCancelledContext(t *testing.T) {
	tr := remote.NewMemoryTransport()
	tr.Put(DefaultRef, manifestV1, `"v1"`)
	store := newTestStore(t)

	warm := NewFetcher(tr, store)
	_, err := warm.Fetch(context.Background(), false)
	require.NoError(t, err)

	// Cancellation wins over the stale fallback.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(tr, store, WithTTL(0))
	_, err = f.Fetch(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
