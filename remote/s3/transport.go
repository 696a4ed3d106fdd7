package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vmatei2/pyrox-client/remote"
)

const (
	// DefaultBucket is the public bucket publishing race results.
	DefaultBucket = "hyrox-results"
	// DefaultRegion is the region hosting DefaultBucket.
	DefaultRegion = "eu-west-2"

	// defaultPartSize is larger than the SDK default of 5MB for better
	// throughput on season-sized artifacts.
	defaultPartSize    = 8 * 1024 * 1024
	defaultConcurrency = 5
)

// Client is the subset of the S3 API the transport uses.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Transport reads manifests and race artifacts from an S3 bucket.
// It implements remote.Transport.
type Transport struct {
	client      Client
	bucket      string
	prefix      string
	region      string
	partSize    int64
	concurrency int
}

// Option configures a Transport.
type Option func(*Transport)

// WithPrefix prepends prefix to every ref (e.g. "results/").
func WithPrefix(prefix string) Option {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithRegion sets the bucket region used by NewPublic.
func WithRegion(region string) Option {
	return func(t *Transport) {
		t.region = region
	}
}

// WithDownloadPartSize sets the ranged-GET part size for unconditional
// fetches.
func WithDownloadPartSize(n int64) Option {
	return func(t *Transport) {
		if n > 0 {
			t.partSize = n
		}
	}
}

// WithDownloadConcurrency sets the number of parts downloaded in parallel.
func WithDownloadConcurrency(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// New creates a transport reading from bucket through client.
func New(client Client, bucket string, opts ...Option) *Transport {
	t := &Transport{
		client:      client,
		bucket:      bucket,
		region:      DefaultRegion,
		partSize:    defaultPartSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewPublic creates a transport for a publicly readable bucket. Requests are
// unsigned, so no AWS credentials are required. An empty bucket selects
// DefaultBucket.
func NewPublic(ctx context.Context, bucket string, opts ...Option) (*Transport, error) {
	t := New(nil, bucket, opts...)
	if t.bucket == "" {
		t.bucket = DefaultBucket
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(t.region))
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}
	t.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Credentials = aws.AnonymousCredentials{}
	})
	return t, nil
}

func (t *Transport) key(ref string) string {
	return path.Join(t.prefix, ref)
}

// Probe heads the object and returns its ETag.
func (t *Transport) Probe(ctx context.Context, ref string) (string, error) {
	head, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("s3: probe %s: %w", ref, remote.ErrNotFound)
		}
		return "", fmt.Errorf("s3: probe %s: %w", ref, err)
	}
	return aws.ToString(head.ETag), nil
}

// Fetch downloads the object. Conditional fetches go through a single
// GetObject carrying If-None-Match; unconditional fetches use concurrent
// ranged GETs.
func (t *Transport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*remote.Result, error) {
	if ifNoneMatch != "" {
		return t.fetchConditional(ctx, ref, ifNoneMatch)
	}
	return t.fetchFull(ctx, ref)
}

func (t *Transport) fetchConditional(ctx context.Context, ref, ifNoneMatch string) (*remote.Result, error) {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(t.key(ref)),
		IfNoneMatch: aws.String(ifNoneMatch),
	})
	if err != nil {
		switch {
		case isNotModified(err):
			return &remote.Result{Status: remote.StatusNotModified, ETag: ifNoneMatch}, nil
		case isNotFound(err):
			return &remote.Result{Status: remote.StatusNotFound}, nil
		}
		return nil, fmt.Errorf("s3: fetch %s: %w", ref, err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: fetch %s: read body: %w", ref, err)
	}
	return &remote.Result{Status: remote.StatusOK, Body: body, ETag: aws.ToString(out.ETag)}, nil
}

func (t *Transport) fetchFull(ctx context.Context, ref string) (*remote.Result, error) {
	capture := &etagCapture{Client: t.client}
	downloader := manager.NewDownloader(capture, func(d *manager.Downloader) {
		d.PartSize = t.partSize
		d.Concurrency = t.concurrency
	})

	buf := manager.NewWriteAtBuffer(nil)
	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return &remote.Result{Status: remote.StatusNotFound}, nil
		}
		return nil, fmt.Errorf("s3: fetch %s: %w", ref, err)
	}
	return &remote.Result{Status: remote.StatusOK, Body: buf.Bytes(), ETag: capture.etag()}, nil
}

// etagCapture records the validator of the first successful part response so
// multipart downloads still report the object's ETag. All parts of one
// download carry the same ETag; the downloader pins subsequent parts to the
// first via If-Match.
type etagCapture struct {
	Client
	once sync.Once
	tag  string
}

func (c *etagCapture) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	out, err := c.Client.GetObject(ctx, params, optFns...)
	if err == nil && out.ETag != nil {
		c.once.Do(func() { c.tag = *out.ETag })
	}
	return out, err
}

// etag must only be called after the download has completed.
func (c *etagCapture) etag() string {
	return c.tag
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

func isNotModified(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotModified" {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotModified
}
