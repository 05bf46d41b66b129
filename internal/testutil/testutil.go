package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TempTree is a directory tree on disk for tests
type TempTree struct {
	Path string
	T    *testing.T
}

// NewTempTree creates an empty tree removed when the test ends
func NewTempTree(t *testing.T) *TempTree {
	t.Helper()

	// resolve symlinks so paths match what git reports (macOS /var)
	path, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	return &TempTree{Path: path, T: t}
}

// Join returns the absolute path of rel inside the tree
func (tr *TempTree) Join(rel string) string {
	return filepath.Join(tr.Path, filepath.FromSlash(rel))
}

// CreateFile creates a file, with parent directories, in the tree
func (tr *TempTree) CreateFile(rel, content string) string {
	tr.T.Helper()
	path := tr.Join(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tr.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tr.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// CreateDir creates a directory in the tree
func (tr *TempTree) CreateDir(rel string) string {
	tr.T.Helper()
	path := tr.Join(rel)
	if err := os.MkdirAll(path, 0755); err != nil {
		tr.T.Fatalf("failed to create directory: %v", err)
	}
	return path
}

// Touch sets the modification time of a file in the tree
func (tr *TempTree) Touch(rel string, mtime time.Time) {
	tr.T.Helper()
	if err := os.Chtimes(tr.Join(rel), mtime, mtime); err != nil {
		tr.T.Fatalf("failed to set times: %v", err)
	}
}

// InitGit turns the directory rel into a git repository with one commit
func (tr *TempTree) InitGit(rel string) {
	tr.T.Helper()
	dir := tr.CreateDir(rel)

	tr.git(dir, "init")
	tr.git(dir, "config", "user.name", "Test User")
	tr.git(dir, "config", "user.email", "test@example.com")

	if _, err := os.Stat(filepath.Join(dir, "README.md")); os.IsNotExist(err) {
		tr.CreateFile(filepath.Join(rel, "README.md"), "# Test Repository\n")
	}
	tr.Commit(rel, "Initial commit")
}

// Commit stages and commits all changes of the repository at rel
func (tr *TempTree) Commit(rel, message string) {
	tr.T.Helper()
	dir := tr.Join(rel)
	tr.git(dir, "add", ".")
	tr.git(dir, "commit", "-m", message)
}

func (tr *TempTree) git(dir string, args ...string) {
	tr.T.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		tr.T.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
}
