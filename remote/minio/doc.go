// Package minio provides a remote.Transport using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This
// package works with MinIO itself and with other S3-compatible systems like
// Ceph, SeaweedFS, and Garage, which makes it useful for self-hosted mirrors
// of the results bucket.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	transport := miniotransport.New(client, "hyrox-results", miniotransport.WithPrefix("v1/"))
//	pc, err := pyrox.New(pyrox.WithTransport(transport))
//
// # Features
//
//   - Works with any S3-compatible storage
//   - Conditional fetches via If-None-Match
//   - Air-gap friendly (no AWS dependencies required)
package minio
