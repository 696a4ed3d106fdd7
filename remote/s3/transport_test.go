package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmatei2/pyrox-client/remote"
)

func TestIntegration_Transport(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	tr, err := NewPublic(ctx, bucket)
	require.NoError(t, err)

	missing := fmt.Sprintf("test-pyrox-%d/nonexistent", time.Now().UnixNano())

	t.Run("ProbeMissing", func(t *testing.T) {
		_, err := tr.Probe(ctx, missing)
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})

	t.Run("FetchMissing", func(t *testing.T) {
		res, err := tr.Fetch(ctx, missing, "")
		require.NoError(t, err)
		assert.Equal(t, remote.StatusNotFound, res.Status)
	})

	obj := os.Getenv("S3_OBJECT")
	if obj == "" {
		t.Log("S3_OBJECT not set, skipping object round trip")
		return
	}

	t.Run("FetchObject", func(t *testing.T) {
		res, err := tr.Fetch(ctx, obj, "")
		require.NoError(t, err)
		require.Equal(t, remote.StatusOK, res.Status)
		assert.NotEmpty(t, res.Body)

		if res.ETag == "" {
			return
		}
		again, err := tr.Fetch(ctx, obj, res.ETag)
		require.NoError(t, err)
		assert.Equal(t, remote.StatusNotModified, again.Status)
	})
}
