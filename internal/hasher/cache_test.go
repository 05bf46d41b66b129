package hasher

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestCacheGetPut(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/a.py", []byte("a"))
	info, err := fs.Stat("/p/a.py")
	require.NoError(t, err)

	c, err := NewDigestCache(16)
	require.NoError(t, err)

	_, ok := c.Get("/p/a.py", info)
	assert.False(t, ok)

	c.Put("/p/a.py", info, []byte{1, 2, 3})
	digest, ok := c.Get("/p/a.py", info)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, digest)
	assert.Equal(t, 1, c.Len())

	later := mtime.Add(time.Minute)
	require.NoError(t, fs.Chtimes("/p/a.py", later, later))
	touched, err := fs.Stat("/p/a.py")
	require.NoError(t, err)
	_, ok = c.Get("/p/a.py", touched)
	assert.False(t, ok, "changed mtime invalidates the entry")
}

func TestDigestCachePersistence(t *testing.T) {
	fs := sampleProject(t)
	cacheFS := afero.NewMemMapFs()

	c, err := OpenDigestCache(cacheFS, "/cache/digests.gob", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	uncached := hashOf(t, New(fs, mediaFilter, nil, nil), "/p")
	cached := hashOf(t, New(fs, mediaFilter, c, nil), "/p")
	assert.Equal(t, uncached, cached)
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.Save())

	reopened, err := OpenDigestCache(cacheFS, "/cache/digests.gob", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())

	digest, err := New(fs, mediaFilter, reopened, nil).Hash(context.Background(), "/p")
	require.NoError(t, err)
	assert.Equal(t, uncached, digest)
}

func TestOpenDigestCacheCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cache/digests.gob", []byte("garbage"), 0o644))

	c, err := OpenDigestCache(fs, "/cache/digests.gob", 8)
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryCacheSaveIsNoop(t *testing.T) {
	c, err := NewDigestCache(4)
	require.NoError(t, err)
	assert.NoError(t, c.Save())
}
