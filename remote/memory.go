package remote

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryTransport is an in-memory Transport for tests. It counts probe and
// fetch calls and supports failure injection. Thread-safe.
type MemoryTransport struct {
	mu       sync.RWMutex
	objects  map[string]memoryObject
	probeErr error
	fetchErr error

	probeCalls atomic.Int64
	fetchCalls atomic.Int64
}

type memoryObject struct {
	data []byte
	etag string
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		objects: make(map[string]memoryObject),
	}
}

// Put registers data under ref with the given validator token.
func (t *MemoryTransport) Put(ref string, data []byte, etag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	t.objects[ref] = memoryObject{data: copied, etag: etag}
}

// Delete removes ref.
func (t *MemoryTransport) Delete(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objects, ref)
}

// FailProbes makes every subsequent Probe return err; nil restores normal
// behavior.
func (t *MemoryTransport) FailProbes(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probeErr = err
}

// FailFetches makes every subsequent Fetch return err; nil restores normal
// behavior.
func (t *MemoryTransport) FailFetches(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetchErr = err
}

// ProbeCalls returns how many times Probe ran.
func (t *MemoryTransport) ProbeCalls() int64 { return t.probeCalls.Load() }

// FetchCalls returns how many times Fetch ran.
func (t *MemoryTransport) FetchCalls() int64 { return t.fetchCalls.Load() }

// Probe implements Transport.
func (t *MemoryTransport) Probe(ctx context.Context, ref string) (string, error) {
	t.probeCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.probeErr != nil {
		return "", t.probeErr
	}
	obj, ok := t.objects[ref]
	if !ok {
		return "", ErrNotFound
	}
	return obj.etag, nil
}

// Fetch implements Transport.
func (t *MemoryTransport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*Result, error) {
	t.fetchCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fetchErr != nil {
		return nil, t.fetchErr
	}
	obj, ok := t.objects[ref]
	if !ok {
		return &Result{Status: StatusNotFound}, nil
	}
	if ifNoneMatch != "" && ifNoneMatch == obj.etag {
		return &Result{Status: StatusNotModified, ETag: obj.etag}, nil
	}

	copied := make([]byte, len(obj.data))
	copy(copied, obj.data)
	return &Result{Status: StatusOK, Body: copied, ETag: obj.etag}, nil
}
