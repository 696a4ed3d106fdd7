package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vmatei2/pyrox-client/remote"
)

// Transport reads manifests and race artifacts from a MinIO or other
// S3-compatible endpoint. It implements remote.Transport.
//
// Validator tokens are the unquoted ETags MinIO reports; conditional fetches
// accept both quoted and unquoted forms.
type Transport struct {
	client *minio.Client
	bucket string
	prefix string
	secure bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithPrefix prepends prefix to every ref (e.g. "results/").
func WithPrefix(prefix string) Option {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithInsecure makes NewAnonymous connect over plain HTTP. Meant for local
// MinIO deployments.
func WithInsecure() Option {
	return func(t *Transport) {
		t.secure = false
	}
}

// New creates a transport reading from bucket through client.
func New(client *minio.Client, bucket string, opts ...Option) *Transport {
	t := &Transport{
		client: client,
		bucket: bucket,
		secure: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewAnonymous creates a transport for a publicly readable bucket on an
// S3-compatible endpoint. Requests carry no credentials.
func NewAnonymous(endpoint, bucket string, opts ...Option) (*Transport, error) {
	t := New(nil, bucket, opts...)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("", "", ""),
		Secure: t.secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}
	t.client = client
	return t, nil
}

func (t *Transport) key(ref string) string {
	return path.Join(t.prefix, ref)
}

// Probe stats the object and returns its ETag.
func (t *Transport) Probe(ctx context.Context, ref string) (string, error) {
	info, err := t.client.StatObject(ctx, t.bucket, t.key(ref), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("minio: probe %s: %w", ref, remote.ErrNotFound)
		}
		return "", fmt.Errorf("minio: probe %s: %w", ref, err)
	}
	return info.ETag, nil
}

// Fetch downloads the object, conditionally when ifNoneMatch is set.
func (t *Transport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*remote.Result, error) {
	opts := minio.GetObjectOptions{}
	if ifNoneMatch != "" {
		// SetMatchETagExcept quotes the tag itself.
		if err := opts.SetMatchETagExcept(strings.Trim(ifNoneMatch, `"`)); err != nil {
			return nil, fmt.Errorf("minio: fetch %s: %w", ref, err)
		}
	}

	obj, err := t.client.GetObject(ctx, t.bucket, t.key(ref), opts)
	if err != nil {
		return nil, fmt.Errorf("minio: fetch %s: %w", ref, err)
	}
	defer func() { _ = obj.Close() }()

	// The request fires on first read, so errors surface here.
	body, err := io.ReadAll(obj)
	if err != nil {
		switch {
		case isNotModified(err):
			return &remote.Result{Status: remote.StatusNotModified, ETag: ifNoneMatch}, nil
		case isNotFound(err):
			return &remote.Result{Status: remote.StatusNotFound}, nil
		}
		return nil, fmt.Errorf("minio: fetch %s: %w", ref, err)
	}

	etag := ""
	if info, statErr := obj.Stat(); statErr == nil {
		etag = info.ETag
	}
	return &remote.Result{Status: remote.StatusOK, Body: body, ETag: etag}, nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}

func isNotModified(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NotModified" || errResp.StatusCode == http.StatusNotModified
}
