package models

import (
	"fmt"
	"path/filepath"
	"time"
)

// Project is one detected project directory. Two projects are the same
// project iff their paths are equal; containers key projects by Path().
type Project struct {
	path string

	Name         string
	Size         int64
	LastModified *time.Time
	SourceFiles  []string
	MarkerFiles  []string

	// Computed on demand, absent until then.
	RealSize      *int64
	RealFileCount *int
	FolderHash    string

	lastFileModified *time.Time
	features         map[string]struct{}
}

// NewProject creates an empty project rooted at path
func NewProject(path string) *Project {
	path = filepath.Clean(path)
	return &Project{
		path:        path,
		Name:        filepath.Base(path),
		SourceFiles: []string{},
		MarkerFiles: []string{},
		features:    make(map[string]struct{}),
	}
}

// Path returns the directory of the project
func (p *Project) Path() string {
	return p.path
}

// FileCount returns the number of matched source files
func (p *Project) FileCount() int {
	return len(p.SourceFiles)
}

// Equal reports whether both projects point at the same directory
func (p *Project) Equal(other *Project) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.path == other.path
}

// HasHash reports whether a folder hash has been computed
func (p *Project) HasHash() bool {
	return p.FolderHash != ""
}

// HasRealSize reports whether the real size is known and non-zero
func (p *Project) HasRealSize() bool {
	return p.RealSize != nil && *p.RealSize > 0
}

// SetRealSize records the size and file count of the whole tree
func (p *Project) SetRealSize(size int64, count int) {
	p.RealSize = &size
	p.RealFileCount = &count
}

// LastFileModified returns the cached newest mtime of the tree, if computed
func (p *Project) LastFileModified() (time.Time, bool) {
	if p.lastFileModified == nil {
		return time.Time{}, false
	}
	return *p.lastFileModified, true
}

// SetLastFileModified caches the newest mtime of the tree
func (p *Project) SetLastFileModified(t time.Time) {
	p.lastFileModified = &t
}

// FormattedSize returns the declared size in a human-readable form
func (p *Project) FormattedSize() string {
	return FormatSize(p.Size)
}

func (p *Project) String() string {
	return fmt.Sprintf("%s (%d files, %s)", p.Name, p.FileCount(), p.FormattedSize())
}

// FormatSize renders bytes as B, KB (one decimal) or MB (two decimals)
func FormatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
	}
}
