package scanner

import "strings"

// Default lists used when no configuration overrides them
var (
	DefaultIgnoredDirs = []string{
		"__pycache__", "venv", ".venv", "env", ".git", ".idea", ".vscode",
		"node_modules", "build", "dist", ".pytest_cache", ".mypy_cache",
		".tox", ".eggs", "cache", "thumbnails",
	}

	DefaultSourceExtensions = []string{".py", ".pyw", ".pyx", ".pyi", ".pyc"}

	DefaultIgnoredExtensions = []string{
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg", ".webp",
		".ico", ".heic", ".heif", ".psd", ".ai", ".eps", ".raw", ".cr2",
		".nef", ".dng", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".mkv",
	}

	DefaultRootMarkers = []string{
		"README.md", "README.txt", "readme.md", "readme.txt", ".env",
		"requirements.txt", "setup.py", "pyproject.toml", "Pipfile",
		"poetry.lock", ".gitignore", "LICENSE", "setup.cfg", "tox.ini",
		"manage.py", "README.rst", "MANIFEST.in", "Dockerfile",
		"docker-compose.yml",
	}
)

const (
	DefaultMaxPathLength = 255
	DefaultMaxDepth      = 10000
)

// Options configures classification and traversal
type Options struct {
	// IgnoredDirs are directory names never descended into (exact match)
	IgnoredDirs []string
	// SourceExtensions mark a directory as a source project (case-sensitive suffix)
	SourceExtensions []string
	// IgnoredExtensions exclude files from classification (case-insensitive suffix)
	IgnoredExtensions []string
	// RootMarkers are file names that mark the top of a project
	RootMarkers []string
	// MaxPathLength rejects longer directory paths
	MaxPathLength int
	// MaxDepth bounds recursion; zero or less means unbounded
	MaxDepth int
}

// DefaultOptions returns the built-in lists and limits
func DefaultOptions() Options {
	return Options{
		IgnoredDirs:       append([]string(nil), DefaultIgnoredDirs...),
		SourceExtensions:  append([]string(nil), DefaultSourceExtensions...),
		IgnoredExtensions: append([]string(nil), DefaultIgnoredExtensions...),
		RootMarkers:       append([]string(nil), DefaultRootMarkers...),
		MaxPathLength:     DefaultMaxPathLength,
		MaxDepth:          DefaultMaxDepth,
	}
}

// rules is Options compiled for lookups
type rules struct {
	ignoredDirs       map[string]struct{}
	markers           map[string]struct{}
	sourceExtensions  []string
	ignoredExtensions []string
	maxPathLength     int
	maxDepth          int
}

func compile(opts Options) rules {
	r := rules{
		ignoredDirs:      toSet(opts.IgnoredDirs),
		markers:          toSet(opts.RootMarkers),
		sourceExtensions: opts.SourceExtensions,
		maxPathLength:    opts.MaxPathLength,
		maxDepth:         opts.MaxDepth,
	}
	if r.maxPathLength <= 0 {
		r.maxPathLength = DefaultMaxPathLength
	}
	for _, ext := range opts.IgnoredExtensions {
		r.ignoredExtensions = append(r.ignoredExtensions, strings.ToLower(ext))
	}
	return r
}

func (r rules) isIgnoredDir(name string) bool {
	_, ok := r.ignoredDirs[name]
	return ok
}

func (r rules) isMarker(name string) bool {
	_, ok := r.markers[name]
	return ok
}

func (r rules) hasIgnoredExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range r.ignoredExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (r rules) hasSourceExtension(name string) bool {
	for _, ext := range r.sourceExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (r rules) tooDeep(depth int) bool {
	return r.maxDepth > 0 && depth > r.maxDepth
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
