// Package remote abstracts access to the content store publishing manifests
// and race artifacts.
//
// A Transport is deliberately small: a cheap validator probe plus a
// conditional fetch. Implementations cover the results API (HTTP), S3 and
// MinIO buckets; combinators add fallback chaining and client-side rate
// limiting. MemoryTransport backs tests.
package remote

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Probe when the remote object does not exist.
//
// Implementations must return an error that satisfies
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("remote: object not found")

// Status discriminates fetch outcomes the caller handles distinctly.
type Status uint8

const (
	// StatusOK means Body carries the current object.
	StatusOK Status = iota
	// StatusNotModified means the caller's validator token still matches;
	// no body is carried.
	StatusNotModified
	// StatusNotFound means the object does not exist remotely. Missing
	// objects are an expected outcome, so they are a status, not an error.
	StatusNotFound
)

// String returns the status name for logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotModified:
		return "not-modified"
	case StatusNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Result is the outcome of a Fetch.
type Result struct {
	Status Status
	Body   []byte
	// ETag is the validator token of the fetched object, when the source
	// provides one.
	ETag string
}

// Transport fetches objects from the remote content store.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Probe cheaply obtains the current validator token for ref (a HEAD
	// equivalent). It returns ErrNotFound for a missing object and a
	// transport error otherwise. An empty token with nil error means the
	// source exposes no validator.
	Probe(ctx context.Context, ref string) (string, error)

	// Fetch downloads ref. A non-empty ifNoneMatch makes the fetch
	// conditional: the result may report StatusNotModified with no body.
	Fetch(ctx context.Context, ref string, ifNoneMatch string) (*Result, error)
}
