package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pders01/pyfinder/internal/logging"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

const (
	// LargeFileThreshold is the size from which only the head and tail are hashed
	LargeFileThreshold = 10 << 20
	// SampleSize is the length of the head and of the tail read from large files
	SampleSize = 1 << 20

	blockSize = 4096
)

// ErrMissingDirectory is returned when the directory to hash does not exist
var ErrMissingDirectory = errors.New("directory does not exist")

// Hasher computes folder hashes: SHA-256 over every included file's relative
// path, size, mtime and content digest, in sorted path order.
//
// Files of LargeFileThreshold bytes or more contribute only their first and
// last SampleSize bytes, so edits in the middle of a large file whose size and
// mtime are unchanged are not detected.
type Hasher struct {
	fs       afero.Fs
	patterns []string
	cache    *DigestCache
	log      *pterm.Logger
}

// New creates a hasher that skips files matching any of the ignored patterns.
// A pattern without glob characters is an extension (".jpg" matches "*.jpg").
// cache may be nil.
func New(fs afero.Fs, ignored []string, cache *DigestCache, log *pterm.Logger) *Hasher {
	patterns := make([]string, 0, len(ignored))
	for _, p := range ignored {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, "*?[{") {
			p = "*" + p
		}
		patterns = append(patterns, p)
	}
	return &Hasher{
		fs:       fs,
		patterns: patterns,
		cache:    cache,
		log:      logging.OrDiscard(log),
	}
}

// Excluded reports whether a file name matches an ignored pattern (case-insensitive)
func (h *Hasher) Excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range h.patterns {
		if ok, err := doublestar.Match(p, lower); err == nil && ok {
			return true
		}
	}
	return false
}

// Hash returns the hex folder hash of dir. Files that cannot be read are left
// out of the digest.
func (h *Hasher) Hash(ctx context.Context, dir string) (string, error) {
	info, err := h.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMissingDirectory, dir)
	}

	var files []string
	err = afero.Walk(h.fs, dir, func(path string, info os.FileInfo, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !h.Excluded(info.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	folder := sha256.New()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		info, err := h.fs.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		digest, err := h.fileDigest(path, info)
		if err != nil {
			h.log.Debug("skipping unreadable file", h.log.Args("path", path, "error", err))
			continue
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		fmt.Fprintf(folder, "%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().Unix())
		folder.Write(digest)
	}

	return hex.EncodeToString(folder.Sum(nil)), nil
}

// fileDigest returns the SHA-256 of a file, or of its head and tail when large
func (h *Hasher) fileDigest(path string, info os.FileInfo) ([]byte, error) {
	if h.cache != nil {
		if digest, ok := h.cache.Get(path, info); ok {
			return digest, nil
		}
	}

	f, err := h.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sum := sha256.New()
	if info.Size() < LargeFileThreshold {
		buf := make([]byte, blockSize)
		for {
			n, err := f.Read(buf)
			sum.Write(buf[:n])
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
		}
	} else {
		if _, err := io.CopyN(sum, f, SampleSize); err != nil {
			return nil, fmt.Errorf("failed to read file head: %w", err)
		}
		if _, err := f.Seek(-SampleSize, io.SeekEnd); err != nil {
			return nil, fmt.Errorf("failed to seek file tail: %w", err)
		}
		if _, err := io.CopyN(sum, f, SampleSize); err != nil {
			return nil, fmt.Errorf("failed to read file tail: %w", err)
		}
	}

	digest := sum.Sum(nil)
	if h.cache != nil {
		h.cache.Put(path, info, digest)
	}
	return digest, nil
}
