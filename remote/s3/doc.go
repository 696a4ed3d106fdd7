// Package s3 provides a remote.Transport reading from an S3 bucket.
//
// # Usage
//
//	transport, err := s3.NewPublic(ctx, s3.DefaultBucket,
//	    s3.WithPrefix("v1/"),
//	)
//
//	client, err := pyrox.New(pyrox.WithTransport(transport))
//
// # Features
//
//   - Unsigned requests against publicly readable buckets
//   - Concurrent ranged GETs for large artifacts
//   - Conditional fetches via If-None-Match
//   - Configurable prefix for bucket layout changes
package s3
