// Package cache implements the persistent artifact store backing the client.
//
// Artifacts are opaque blobs written once per key under a content-hash
// derived file name; one shared JSON index carries the per-key bookkeeping
// (creation time, validator token, size, row count). The in-memory index is
// the authority for freshness checks and may briefly be a superset of what
// is on disk: a read that finds its backing file missing or corrupt prunes
// the entry, so the store heals itself against partial writes and external
// deletion.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmatei2/pyrox-client/codec"
)

const indexFileName = "index.json"

// Entry is the bookkeeping record for one cached artifact. Values returned
// by the store are copies; mutating them has no effect on the index.
type Entry struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ETag      string    `json:"etag,omitempty"`
	Ref       string    `json:"ref"`
	Rows      int       `json:"rows,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
}

// Summary describes cache occupancy.
type Summary struct {
	ItemCount  int
	TotalBytes int64
	Keys       []string
}

// Config holds construction parameters for Store.
type Config struct {
	// RootDir is the directory holding the index and all artifacts.
	RootDir string
	// Codec encodes the index. codec.Default when nil.
	Codec codec.Codec
	// Compression selects the artifact framing. The zero value stores
	// artifacts raw.
	Compression Compression
}

// Store is a disk-backed key→artifact cache with TTL/ETag bookkeeping.
//
// Concurrency discipline: one mutex serializes every index mutation (store,
// evict, prune-on-failed-read). Artifact writes for different keys run
// outside the lock and may interleave freely; a store for an already-present
// key replaces blob and entry last-writer-wins.
type Store struct {
	rootDir     string
	codec       codec.Codec
	compression Compression
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]Entry

	hits   atomic.Int64
	misses atomic.Int64

	// testHookBeforeIndexUpdate, when non-nil, runs between the artifact
	// write and the index update inside Store. Tests use it to stage write
	// interleavings.
	testHookBeforeIndexUpdate func(key string)
}

// New opens (or initializes) the store rooted at cfg.RootDir. A missing or
// unreadable index starts empty; artifacts it referenced are re-adopted on
// their next Store and orphans are harmless.
func New(cfg Config) (*Store, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("cache: root dir must not be empty")
	}
	if err := os.MkdirAll(cfg.RootDir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create root dir: %w", err)
	}

	c := cfg.Codec
	if c == nil {
		c = codec.Default
	}

	s := &Store{
		rootDir:     cfg.RootDir,
		codec:       c,
		compression: cfg.Compression,
		now:         time.Now,
		entries:     make(map[string]Entry),
	}
	s.loadIndex()

	return s, nil
}

func (s *Store) loadIndex() {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFileName))
	if err != nil {
		return
	}

	var entries map[string]Entry
	if err := s.codec.Unmarshal(data, &entries); err != nil {
		return
	}

	for k, e := range entries {
		e.Key = k
		s.entries[k] = e
	}
}

// Fresh reports whether key has an entry younger than ttl. Missing entries
// are never fresh. Fresh consults only the in-memory index.
func (s *Store) Fresh(key string, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()

	return ok && s.now().Sub(e.CreatedAt) < ttl
}

// ETag returns the validator token stored for key, or "".
func (s *Store) ETag(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key].ETag
}

// Load returns the artifact stored under key. A miss returns ok=false and
// never an error. When the index claims presence but the backing file is
// missing or fails to decode, the entry is pruned, the index persisted, and
// the call reports a miss.
func (s *Store) Load(key string) ([]byte, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()

	if !ok {
		s.misses.Add(1)
		return nil, false
	}

	frame, err := os.ReadFile(filepath.Join(s.rootDir, e.Ref))
	if err != nil {
		s.prune(key)
		s.misses.Add(1)
		return nil, false
	}

	data, err := decompressArtifact(frame)
	if err != nil {
		s.prune(key)
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return data, true
}

// Store persists artifact under key and records etag and rows in the index.
// The artifact lands on disk first; only then does the entry become visible,
// so the index never references an object that is not durably written.
func (s *Store) Store(key string, artifact []byte, etag string, rows int) error {
	frame, err := compressArtifact(artifact, s.compression)
	if err != nil {
		return fmt.Errorf("cache: compress artifact: %w", err)
	}

	ref := artifactRef(key)
	if err := writeFileAtomic(filepath.Join(s.rootDir, ref), frame); err != nil {
		return fmt.Errorf("cache: write artifact: %w", err)
	}

	if s.testHookBeforeIndexUpdate != nil {
		s.testHookBeforeIndexUpdate(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{
		Key:       key,
		CreatedAt: s.now(),
		ETag:      etag,
		Ref:       ref,
		Rows:      rows,
		SizeBytes: int64(len(frame)),
	}
	return s.persistIndexLocked()
}

// Evict removes every entry whose key matches the shell-style pattern (see
// path.Match) together with its artifact, returning the number of entries
// removed. Artifacts already gone are tolerated.
func (s *Store) Evict(pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("cache: evict pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for key, e := range s.entries {
		if ok, _ := path.Match(pattern, key); !ok {
			continue
		}
		_ = os.Remove(filepath.Join(s.rootDir, e.Ref))
		delete(s.entries, key)
		removed++
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistIndexLocked()
}

// Snapshot returns a read-only copy of the entry for key.
func (s *Store) Snapshot(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// Summary reports item count, total artifact bytes and the sorted key set.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		ItemCount: len(s.entries),
		Keys:      make([]string, 0, len(s.entries)),
	}
	for k, e := range s.entries {
		sum.Keys = append(sum.Keys, k)
		sum.TotalBytes += e.SizeBytes
	}
	sort.Strings(sum.Keys)

	return sum
}

// Stats returns the hit/miss counters.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// prune drops key after a failed read and persists the shrunken index.
// Persistence is best-effort: on failure the on-disk index stays a superset
// and the next failed read prunes again.
func (s *Store) prune(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	_ = os.Remove(filepath.Join(s.rootDir, e.Ref))
	delete(s.entries, key)
	_ = s.persistIndexLocked()
}

// persistIndexLocked writes the whole index atomically. Callers must hold mu.
func (s *Store) persistIndexLocked() error {
	data, err := s.codec.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("cache: encode index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.rootDir, indexFileName), data); err != nil {
		return fmt.Errorf("cache: write index: %w", err)
	}
	return nil
}

// artifactRef derives the artifact file name from key. Keys may contain
// characters illegal in paths, so the name is a hash of the key, never the
// key itself.
func artifactRef(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".bin"
}

func writeFileAtomic(absPath string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(absPath), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, absPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
