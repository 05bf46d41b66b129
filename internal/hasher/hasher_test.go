package hasher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mtime       = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mediaFilter = []string{".jpg", ".png", ".mp4"}
)

func writeFile(t *testing.T, fs afero.Fs, path string, content []byte) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func sampleProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/main.py", []byte("print('hi')\n"))
	writeFile(t, fs, "/p/pkg/util.py", []byte("def f():\n    return 1\n"))
	writeFile(t, fs, "/p/README.md", []byte("# p\n"))
	writeFile(t, fs, "/p/assets/logo.PNG", []byte("not really a png"))
	return fs
}

func hashOf(t *testing.T, h *Hasher, dir string) string {
	t.Helper()
	digest, err := h.Hash(context.Background(), dir)
	require.NoError(t, err)
	return digest
}

func TestHashKnownValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/a.txt", []byte("hello"))

	content := sha256.Sum256([]byte("hello"))
	folder := sha256.New()
	fmt.Fprintf(folder, "a.txt|5|%d", mtime.Unix())
	folder.Write(content[:])
	want := hex.EncodeToString(folder.Sum(nil))

	assert.Equal(t, want, hashOf(t, New(fs, nil, nil, nil), "/p"))
}

func TestHashEmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	empty := sha256.Sum256(nil)
	assert.Equal(t, hex.EncodeToString(empty[:]), hashOf(t, New(fs, nil, nil, nil), "/empty"))
}

func TestHashDeterministic(t *testing.T) {
	fs := sampleProject(t)
	h := New(fs, mediaFilter, nil, nil)

	assert.Equal(t, hashOf(t, h, "/p"), hashOf(t, h, "/p"))
}

func TestHashSensitivity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, fs afero.Fs)
		changed bool
	}{
		{
			name: "append one byte",
			mutate: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "/p/pkg/util.py", []byte("def f():\n    return 1\n\n"))
			},
			changed: true,
		},
		{
			name: "rename a file",
			mutate: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, fs.Rename("/p/main.py", "/p/app.py"))
			},
			changed: true,
		},
		{
			name: "touch an included file",
			mutate: func(t *testing.T, fs afero.Fs) {
				later := mtime.Add(time.Hour)
				require.NoError(t, fs.Chtimes("/p/README.md", later, later))
			},
			changed: true,
		},
		{
			name: "edit an excluded file",
			mutate: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "/p/assets/logo.PNG", []byte("a different image"))
				later := mtime.Add(time.Hour)
				require.NoError(t, fs.Chtimes("/p/assets/logo.PNG", later, later))
			},
			changed: false,
		},
		{
			name: "add an excluded file",
			mutate: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "/p/clip.mp4", []byte("video"))
			},
			changed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := sampleProject(t)
			h := New(fs, mediaFilter, nil, nil)
			before := hashOf(t, h, "/p")

			tt.mutate(t, fs)

			after := hashOf(t, h, "/p")
			if tt.changed {
				assert.NotEqual(t, before, after)
			} else {
				assert.Equal(t, before, after)
			}
		})
	}
}

func TestHashMissingDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/file.txt", []byte("x"))
	h := New(fs, nil, nil, nil)

	_, err := h.Hash(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrMissingDirectory)

	_, err = h.Hash(context.Background(), "/file.txt")
	assert.ErrorIs(t, err, ErrMissingDirectory)
}

func TestHashCancelled(t *testing.T) {
	fs := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fs, nil, nil, nil).Hash(ctx, "/p")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLargeFileSampling(t *testing.T) {
	fs := afero.NewMemMapFs()
	size := LargeFileThreshold + SampleSize
	content := bytes.Repeat([]byte{'a'}, size)
	writeFile(t, fs, "/big/blob.bin", content)
	h := New(fs, nil, nil, nil)

	info, err := fs.Stat("/big/blob.bin")
	require.NoError(t, err)
	original, err := h.fileDigest("/big/blob.bin", info)
	require.NoError(t, err)

	want := sha256.New()
	want.Write(content[:SampleSize])
	want.Write(content[size-SampleSize:])
	assert.Equal(t, want.Sum(nil), original)

	middle := append([]byte(nil), content...)
	middle[size/2] = 'b'
	writeFile(t, fs, "/big/blob.bin", middle)
	info, err = fs.Stat("/big/blob.bin")
	require.NoError(t, err)
	sampled, err := h.fileDigest("/big/blob.bin", info)
	require.NoError(t, err)
	assert.Equal(t, original, sampled, "middle of a large file is not sampled")

	tail := append([]byte(nil), content...)
	tail[size-1] = 'b'
	writeFile(t, fs, "/big/blob.bin", tail)
	info, err = fs.Stat("/big/blob.bin")
	require.NoError(t, err)
	changed, err := h.fileDigest("/big/blob.bin", info)
	require.NoError(t, err)
	assert.NotEqual(t, original, changed)
}

func TestSmallFileFullContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := bytes.Repeat([]byte("0123456789"), 1000)
	writeFile(t, fs, "/s/data.txt", content)

	info, err := fs.Stat("/s/data.txt")
	require.NoError(t, err)
	digest, err := New(fs, nil, nil, nil).fileDigest("/s/data.txt", info)
	require.NoError(t, err)

	want := sha256.Sum256(content)
	assert.Equal(t, want[:], digest)
}

func TestExcluded(t *testing.T) {
	h := New(afero.NewMemMapFs(), []string{".jpg", "*.min.js", "cache-*", " "}, nil, nil)

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"extension", "photo.jpg", true},
		{"extension any case", "PHOTO.JpG", true},
		{"glob pattern", "vendor.min.js", true},
		{"prefix glob", "cache-01.bin", true},
		{"source file", "main.py", false},
		{"extension inside name", "jpg_notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Excluded(tt.file))
		})
	}
}
