package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RepoInfo describes the git state of a project directory
type RepoInfo struct {
	TopLevel   string     `json:"top_level" yaml:"top_level"`
	Branch     string     `json:"branch" yaml:"branch"`
	Commit     string     `json:"commit,omitempty" yaml:"commit,omitempty"`
	CommitTime *time.Time `json:"commit_time,omitempty" yaml:"commit_time,omitempty"`
	Remote     string     `json:"remote,omitempty" yaml:"remote,omitempty"`
	Dirty      bool       `json:"dirty" yaml:"dirty"`
}

// Available reports whether the git binary can be found
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRepo checks if dir is inside a git work tree
func IsRepo(dir string) bool {
	out, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the root of the work tree containing dir
func TopLevel(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to get repository root: %w", err)
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the checked out branch name
func CurrentBranch(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return out, nil
}

// HeadCommit returns the abbreviated hash of HEAD and its commit time
func HeadCommit(dir string) (string, time.Time, error) {
	out, err := run(dir, "log", "-1", "--format=%h %ct")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get head commit: %w", err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return "", time.Time{}, fmt.Errorf("unexpected git log output: %q", out)
	}
	secs, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse commit time: %w", err)
	}
	return fields[0], time.Unix(secs, 0), nil
}

// HasUncommittedChanges checks if the work tree has changes
func HasUncommittedChanges(dir string) (bool, error) {
	out, err := run(dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check git status: %w", err)
	}
	return out != "", nil
}

// RemoteURL returns the URL of the origin remote, or "" when there is none
func RemoteURL(dir string) string {
	out, err := run(dir, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}

// Info collects the git state of dir. Repositories without commits have an
// empty Commit.
func Info(dir string) (*RepoInfo, error) {
	if !IsRepo(dir) {
		return nil, fmt.Errorf("not a git repository: %s", dir)
	}

	top, err := TopLevel(dir)
	if err != nil {
		return nil, err
	}
	info := &RepoInfo{TopLevel: top, Remote: RemoteURL(dir)}

	if info.Branch, err = CurrentBranch(dir); err != nil {
		info.Branch = ""
	}
	if commit, when, err := HeadCommit(dir); err == nil {
		info.Commit = commit
		info.CommitTime = &when
	}
	if info.Dirty, err = HasUncommittedChanges(dir); err != nil {
		return nil, err
	}
	return info, nil
}
