package hasher

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

// DefaultCacheSize is the number of file digests kept in memory
const DefaultCacheSize = 65536

type digestEntry struct {
	Path    string
	Size    int64
	ModTime int64
	Digest  []byte
}

// DigestCache remembers per-file content digests between runs. An entry is
// valid while the file keeps the size and mtime it had when it was hashed.
type DigestCache struct {
	entries *lru.Cache[uint64, digestEntry]
	fs      afero.Fs
	path    string
}

// NewDigestCache creates an in-memory cache
func NewDigestCache(size int) (*DigestCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[uint64, digestEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest cache: %w", err)
	}
	return &DigestCache{entries: entries}, nil
}

// OpenDigestCache creates a cache backed by a gob file on fs. A missing or
// unreadable file gives an empty cache.
func OpenDigestCache(fs afero.Fs, path string, size int) (*DigestCache, error) {
	c, err := NewDigestCache(size)
	if err != nil {
		return nil, err
	}
	c.fs = fs
	c.path = path

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read digest cache: %w", err)
	}

	var stored []digestEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return c, fmt.Errorf("failed to decode digest cache: %w", err)
	}
	for _, e := range stored {
		c.entries.Add(key(e.Path), e)
	}
	return c, nil
}

// DefaultCachePath returns the digest cache location under the user cache dir
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(dir, "pyfinder", "digests.gob"), nil
}

// Get returns the digest of path if info still matches the cached entry
func (c *DigestCache) Get(path string, info os.FileInfo) ([]byte, bool) {
	e, ok := c.entries.Get(key(path))
	if !ok || e.Path != path || e.Size != info.Size() || e.ModTime != info.ModTime().UnixNano() {
		return nil, false
	}
	return e.Digest, true
}

// Put stores the digest of path
func (c *DigestCache) Put(path string, info os.FileInfo, digest []byte) {
	c.entries.Add(key(path), digestEntry{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Digest:  digest,
	})
}

// Len returns the number of cached digests
func (c *DigestCache) Len() int {
	return c.entries.Len()
}

// Save writes the cache to its file, oldest entries first.
// It is a no-op for an in-memory cache.
func (c *DigestCache) Save() error {
	if c.fs == nil || c.path == "" {
		return nil
	}

	keys := c.entries.Keys()
	stored := make([]digestEntry, 0, len(keys))
	for _, k := range keys {
		if e, ok := c.entries.Peek(k); ok {
			stored = append(stored, e)
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return fmt.Errorf("failed to encode digest cache: %w", err)
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write digest cache: %w", err)
	}
	return nil
}

func key(path string) uint64 {
	return xxh3.HashString(path)
}
