package pyrox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmatei2/pyrox-client/model"
	"github.com/vmatei2/pyrox-client/remote"
	"github.com/vmatei2/pyrox-client/table"
)

// testManifest lists three season-7 races (oslo has no artifact) and one
// season-6 race.
var testManifest = []byte(`[
	{"season": 7, "location": "london", "path": "v1/race/7/london"},
	{"season": 7, "location": "berlin", "path": "v1/race/7/berlin"},
	{"season": 7, "location": "oslo", "path": "v1/race/7/oslo"},
	{"season": 6, "location": "madrid", "path": "v1/race/6/madrid"}
]`)

var (
	londonRows = []byte(`[
		{"name": "Ada", "gender": "female", "division": "open", "total_time": "1:02:30"},
		{"name": "Bo", "gender": "male", "division": "open", "total_time": "1:10:00"}
	]`)
	berlinRows = []byte(`[
		{"name": "Cleo", "gender": "female", "division": "pro", "total_time": "0:58:00"}
	]`)
	madridRows = []byte(`[
		{"name": "Dev", "gender": "male", "division": "open", "total_time": "1:20:15"}
	]`)
)

func newSeededTransport() *remote.MemoryTransport {
	tr := remote.NewMemoryTransport()
	tr.Put("v1/manifest", testManifest, `"m-1"`)
	tr.Put("v1/race/7/london", londonRows, `"l-1"`)
	tr.Put("v1/race/7/berlin", berlinRows, `"b-1"`)
	tr.Put("v1/race/6/madrid", madridRows, `"d-1"`)
	return tr
}

func newTestClient(t *testing.T, transport remote.Transport, optFns ...Option) *Client {
	t.Helper()

	opts := append([]Option{
		WithCacheDir(t.TempDir()),
		WithTransport(transport),
	}, optFns...)

	client, err := New(context.Background(), opts...)
	require.NoError(t, err)
	return client
}

func rowNames(tbl table.Table) []string {
	names := make([]string, 0, tbl.Len())
	for _, r := range tbl.Rows {
		names = append(names, r.Name)
	}
	return names
}

func TestFetchRace(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchAndCache", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		tbl, err := client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Ada", "Bo"}, rowNames(tbl))

		// One fetch for the manifest, one for the race artifact.
		assert.EqualValues(t, 2, tr.FetchCalls())
		assert.EqualValues(t, 1, tr.ProbeCalls())

		// The second query is served from disk without touching the remote.
		tbl, err = client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())
		assert.EqualValues(t, 2, tr.FetchCalls())
		assert.EqualValues(t, 1, tr.ProbeCalls())
	})

	t.Run("CaseInsensitiveLocation", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		tbl, err := client.FetchRace(ctx, 7, "LONDON", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())

		// Spelling variants share a cache entry.
		tbl, err = client.FetchRace(ctx, 7, " london ", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())
		assert.EqualValues(t, 2, tr.FetchCalls())
	})

	t.Run("FilterNarrowsRows", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		tbl, err := client.FetchRace(ctx, 7, "london", model.Filters{Gender: "female"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ada"}, rowNames(tbl))

		// A different filter is a different artifact, so the race is
		// fetched again.
		tbl, err = client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())
		assert.EqualValues(t, 3, tr.FetchCalls())
	})

	t.Run("TimeBoundFilter", func(t *testing.T) {
		client := newTestClient(t, newSeededTransport())

		tbl, err := client.FetchRace(ctx, 7, "london", model.Filters{MaxTotalTime: 65})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ada"}, rowNames(tbl))
	})

	t.Run("UnknownRace", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		_, err := client.FetchRace(ctx, 7, "paris", model.Filters{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)

		var rnf *ErrRaceNotFound
		require.ErrorAs(t, err, &rnf)
		assert.Equal(t, 7, rnf.Season)
		assert.Equal(t, "paris", rnf.Location)

		// Resolution misses never hit the remote store.
		assert.EqualValues(t, 1, tr.FetchCalls())
	})

	t.Run("MissingArtifact", func(t *testing.T) {
		client := newTestClient(t, newSeededTransport())

		_, err := client.FetchRace(ctx, 7, "oslo", model.Filters{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})

	t.Run("WithoutCache", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		for range 2 {
			tbl, err := client.FetchRace(ctx, 7, "london", model.Filters{}, WithoutCache())
			require.NoError(t, err)
			assert.Equal(t, 2, tbl.Len())
		}

		// Both calls go remote; only the manifest is cached.
		assert.EqualValues(t, 3, tr.FetchCalls())
		sum := client.CacheSummary()
		assert.Equal(t, 1, sum.ItemCount)
		assert.Equal(t, []string{"manifest"}, sum.Keys)
	})

	t.Run("ForceRefresh", func(t *testing.T) {
		tr := newSeededTransport()
		client := newTestClient(t, tr)

		tbl, err := client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())

		tr.Put("v1/race/7/london", []byte(`[
			{"name": "Ada", "gender": "female", "division": "open", "total_time": "1:02:30"},
			{"name": "Bo", "gender": "male", "division": "open", "total_time": "1:10:00"},
			{"name": "Eli", "gender": "male", "division": "pro", "total_time": "1:05:00"}
		]`), `"l-2"`)

		// Within the TTL the stale copy keeps serving.
		tbl, err = client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Len())

		tbl, err = client.FetchRace(ctx, 7, "london", model.Filters{}, WithForceRefresh())
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.Len())

		// The refreshed artifact replaced the cached one.
		tbl, err = client.FetchRace(ctx, 7, "london", model.Filters{})
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.Len())
		assert.EqualValues(t, 4, tr.FetchCalls())
	})

	t.Run("YearPinsEdition", func(t *testing.T) {
		tr := remote.NewMemoryTransport()
		tr.Put("v1/manifest", []byte(`[
			{"season": 6, "location": "madrid", "year": 2024, "path": "v1/race/6/madrid-2024"},
			{"season": 6, "location": "madrid", "year": 2025, "path": "v1/race/6/madrid-2025"}
		]`), `"m-year"`)
		tr.Put("v1/race/6/madrid-2024", madridRows, `"d-24"`)
		tr.Put("v1/race/6/madrid-2025", berlinRows, `"d-25"`)
		client := newTestClient(t, tr)

		tbl, err := client.FetchRace(ctx, 6, "madrid", model.Filters{Year: 2024})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dev"}, rowNames(tbl))

		tbl, err = client.FetchRace(ctx, 6, "madrid", model.Filters{Year: 2025})
		require.NoError(t, err)
		assert.Equal(t, []string{"Cleo"}, rowNames(tbl))
	})
}
