package scanner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

type recorder struct {
	events []Event
}

func (r *recorder) listen(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) paths(kind EventKind) []string {
	var paths []string
	for _, e := range r.events {
		if e.Kind == kind {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

func (r *recorder) last() Event {
	return r.events[len(r.events)-1]
}

func projectPaths(t *testing.T, s *Scanner, root string) ([]string, *recorder) {
	t.Helper()
	rec := &recorder{}
	var paths []string
	for _, p := range s.Scan(context.Background(), root, rec.listen) {
		paths = append(paths, p.Path())
	}
	return paths, rec
}

func TestScanRootIsNeverAProject(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/x.py":     "print()",
		"/r/sub/y.py": "print()",
	})

	paths, rec := projectPaths(t, New(fs, DefaultOptions(), nil), "/r")

	assert.Empty(t, paths)
	assert.Contains(t, rec.paths(EventDirectoryVisited), "/r/sub")
	assert.Equal(t, EventFinished, rec.last().Kind)
	assert.Equal(t, 0, rec.last().Count)
}

func TestScanDoesNotDescendIntoProjects(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/proj/main.py":         "import sub",
		"/r/proj/sub/deep.py":     "x = 1",
		"/r/proj/sub/inner/z.py":  "y = 2",
		"/r/proj/docs/README.md":  "# docs",
		"/r/other/notes/todo.txt": "nothing",
	})

	s := New(fs, DefaultOptions(), nil)
	rec := &recorder{}
	projects := s.Scan(context.Background(), "/r", rec.listen)

	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "/r/proj", p.Path())
	assert.Equal(t, "proj", p.Name)
	assert.Equal(t, []string{"/r/proj/main.py", "/r/proj/sub/deep.py", "/r/proj/sub/inner/z.py"}, p.SourceFiles)
	assert.Equal(t, 3, p.FileCount())
	assert.Empty(t, p.MarkerFiles)

	visited := rec.paths(EventDirectoryVisited)
	assert.NotContains(t, visited, "/r/proj/sub")
	assert.Contains(t, visited, "/r/other/notes")
}

func TestScanSkipsIgnoredDirectories(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/node_modules/pkg/x.py": "",
		"/r/venv/lib/site.py":      "",
		"/r/Venv/app.py":           "",
	})

	paths, rec := projectPaths(t, New(fs, DefaultOptions(), nil), "/r")

	assert.Equal(t, []string{"/r/Venv"}, paths)
	for _, visited := range rec.paths(EventDirectoryVisited) {
		assert.False(t, strings.Contains(visited, "node_modules"), visited)
		assert.False(t, strings.HasPrefix(visited, "/r/venv"), visited)
	}
}

func TestScanMarkerProject(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/svc/README.md":        "# svc",
		"/r/svc/requirements.txt": "flask\n",
		"/r/svc/logo.png":         "png",
		"/r/svc/app/main.py":      "app = 1",
	})

	projects := New(fs, DefaultOptions(), nil).Scan(context.Background(), "/r", nil)

	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "/r/svc", p.Path())
	assert.Equal(t, []string{"/r/svc/README.md", "/r/svc/requirements.txt"}, p.MarkerFiles)
	assert.Equal(t, []string{"/r/svc/app/main.py"}, p.SourceFiles)
	assert.Equal(t, int64(len("# svc")+len("flask\n")+len("app = 1")), p.Size)
	assert.True(t, p.HasFeature("readme"))
	assert.True(t, p.HasFeature("requirements"))
}

func TestScanLastModifiedIsNewestMatchedFile(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/proj/a.py":      "a",
		"/r/proj/b.py":      "b",
		"/r/proj/README.md": "r",
		"/r/proj/data.csv":  "not matched",
	})
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("/r/proj/a.py", old, old))
	require.NoError(t, fs.Chtimes("/r/proj/b.py", newer, newer))
	require.NoError(t, fs.Chtimes("/r/proj/README.md", old, old))
	require.NoError(t, fs.Chtimes("/r/proj/data.csv", newest, newest))

	projects := New(fs, DefaultOptions(), nil).Scan(context.Background(), "/r", nil)

	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].LastModified)
	assert.True(t, projects[0].LastModified.Equal(newer))
}

func TestScanDepthFirstOrder(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/b/README.md":     "",
		"/r/a/x.py":          "",
		"/r/c/nested/y.py":   "",
		"/r/c/nested/z/w.py": "",
	})

	paths, rec := projectPaths(t, New(fs, DefaultOptions(), nil), "/r")

	assert.Equal(t, []string{"/r/a", "/r/b", "/r/c/nested"}, paths)
	assert.Equal(t, paths, rec.paths(EventProjectFound))
	assert.Equal(t, EventStarted, rec.events[0].Kind)
	assert.Equal(t, 3, rec.last().Count)
}

func TestScanPathLengthGuard(t *testing.T) {
	long := "/r/" + strings.Repeat("d", 300)
	fs := newTree(t, map[string]string{
		long + "/main.py":     "",
		long + "/sub/deep.py": "",
	})

	paths, rec := projectPaths(t, New(fs, DefaultOptions(), nil), "/r")

	assert.Empty(t, paths)
	assert.Equal(t, []string{"/r", long}, rec.paths(EventDirectoryVisited))
	assert.Empty(t, rec.paths(EventFileObserved))
}

func TestScanPathLengthCountsCharacters(t *testing.T) {
	// 133 characters, 263 bytes
	accented := "/r/" + strings.Repeat("é", 130)
	fs := newTree(t, map[string]string{
		accented + "/main.py": "",
	})

	paths, _ := projectPaths(t, New(fs, DefaultOptions(), nil), "/r")

	assert.Equal(t, []string{accented}, paths)
}

func TestScanMaxDepth(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/a/b/main.py": "",
	})
	opts := DefaultOptions()
	opts.MaxDepth = 1

	paths, rec := projectPaths(t, New(fs, opts, nil), "/r")

	assert.Empty(t, paths)
	assert.Contains(t, rec.paths(EventDirectoryVisited), "/r/a/b")
}

func TestScanInvalidRoot(t *testing.T) {
	fs := newTree(t, map[string]string{"/r/file.txt": "x"})

	tests := []struct {
		name string
		root string
		want error
	}{
		{"missing", "/nope", ErrRootNotExist},
		{"not a directory", "/r/file.txt", ErrRootNotDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			projects := New(fs, DefaultOptions(), nil).Scan(context.Background(), tt.root, rec.listen)

			assert.Empty(t, projects)
			require.Len(t, rec.events, 3)
			assert.Equal(t, EventStarted, rec.events[0].Kind)
			assert.Equal(t, EventError, rec.events[1].Kind)
			assert.ErrorIs(t, rec.events[1].Err, tt.want)
			assert.NotEmpty(t, rec.events[1].Message())
			assert.Equal(t, EventFinished, rec.events[2].Kind)
			assert.Equal(t, 0, rec.events[2].Count)
		})
	}
}

func TestScanCancelledBeforeStart(t *testing.T) {
	fs := newTree(t, map[string]string{"/r/a/x.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	projects := New(fs, DefaultOptions(), nil).Scan(ctx, "/r", rec.listen)

	assert.Empty(t, projects)
	require.Len(t, rec.events, 2)
	assert.Equal(t, EventStarted, rec.events[0].Kind)
	assert.Equal(t, EventFinished, rec.events[1].Kind)
}

func TestScanCancelledMidway(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/a/x.py": "",
		"/r/b/y.py": "",
		"/r/c/z.py": "",
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	listener := func(e Event) {
		rec.listen(e)
		if e.Kind == EventProjectFound {
			cancel()
		}
	}
	projects := New(fs, DefaultOptions(), nil).Scan(ctx, "/r", listener)

	require.Len(t, projects, 1)
	assert.Equal(t, "/r/a", projects[0].Path())
	assert.Equal(t, EventFinished, rec.last().Kind)
	assert.Equal(t, 1, rec.last().Count)
	assert.NotContains(t, rec.paths(EventDirectoryVisited), "/r/b")
}

func TestScanRecoversFromListenerPanic(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/a/x.py": "",
		"/r/b/y.py": "",
	})

	rec := &recorder{}
	listener := func(e Event) {
		rec.listen(e)
		if e.Kind == EventProjectFound && e.Path == "/r/b" {
			panic("boom")
		}
	}
	projects := New(fs, DefaultOptions(), nil).Scan(context.Background(), "/r", listener)

	assert.Len(t, projects, 2)
	assert.Contains(t, rec.paths(EventError), "/r")
	assert.Equal(t, EventFinished, rec.last().Kind)
	assert.Equal(t, 2, rec.last().Count)
}

func TestStream(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/r/a/x.py": "",
		"/r/b/y.py": "",
	})

	var kinds []EventKind
	var found []string
	for e := range New(fs, DefaultOptions(), nil).Stream(context.Background(), "/r") {
		kinds = append(kinds, e.Kind)
		if e.Kind == EventProjectFound {
			found = append(found, e.Project.Path())
		}
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, EventStarted, kinds[0])
	assert.Equal(t, EventFinished, kinds[len(kinds)-1])
	assert.Equal(t, []string{"/r/a", "/r/b"}, found)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "project-found", EventProjectFound.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
