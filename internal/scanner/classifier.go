package scanner

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Classifier decides from its direct children whether a directory is a project.
// Read errors make a directory count as not matching.
type Classifier struct {
	fs    afero.Fs
	rules rules
}

// NewClassifier creates a classifier over fs
func NewClassifier(fs afero.Fs, opts Options) *Classifier {
	return &Classifier{fs: fs, rules: compile(opts)}
}

// IsSourceProject reports whether dir directly contains a source file
func (c *Classifier) IsSourceProject(dir string) bool {
	_, ok := c.MatchSource(dir)
	return ok
}

// IsProjectRoot reports whether dir directly contains a root marker file
func (c *Classifier) IsProjectRoot(dir string) bool {
	_, ok := c.MatchMarker(dir)
	return ok
}

// MatchSource returns the first source file directly under dir, in listing order
func (c *Classifier) MatchSource(dir string) (string, bool) {
	return c.first(dir, c.rules.hasSourceExtension)
}

// MatchMarker returns the first root marker file directly under dir, in listing order
func (c *Classifier) MatchMarker(dir string) (string, bool) {
	return c.first(dir, c.rules.isMarker)
}

func (c *Classifier) first(dir string, match func(name string) bool) (string, bool) {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		name := entry.Name()
		if c.rules.hasIgnoredExtension(name) || !match(name) {
			continue
		}
		if _, ok := c.regularFile(dir, entry); ok {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// regularFile resolves symbolic links and reports whether the entry is a file
func (c *Classifier) regularFile(dir string, entry os.FileInfo) (os.FileInfo, bool) {
	if entry.Mode()&os.ModeSymlink != 0 {
		target, err := c.fs.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, false
		}
		entry = target
	}
	return entry, entry.Mode().IsRegular()
}

// directory resolves symbolic links and reports whether the entry is a directory
func (c *Classifier) directory(dir string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink != 0 {
		target, err := c.fs.Stat(filepath.Join(dir, entry.Name()))
		return err == nil && target.IsDir()
	}
	return entry.IsDir()
}
