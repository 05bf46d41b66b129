package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pders01/pyfinder/internal/finder"
	"github.com/pders01/pyfinder/internal/git"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/store"
	"github.com/spf13/cobra"
)

var (
	showHash   bool
	showFormat outputFormat
)

var showCmd = &cobra.Command{
	Use:   "show <path> [file]",
	Short: "Show the details of one project",
	Long: `Display everything known about a project of a scan file: its source and
marker files, real size, newest file, feature tags and git state.

Example:
  pyfinder show ~/code/myapp
  pyfinder show ~/code/myapp results.json --hash`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showHash, "hash", false, "Compute the folder hash")
	addFormatFlags(showCmd, &showFormat)
}

type projectDetails struct {
	store.Record     `yaml:",inline"`
	Features         []string      `json:"features" yaml:"features"`
	LastFileModified *time.Time    `json:"last_file_modified,omitempty" yaml:"last_file_modified,omitempty"`
	Git              *git.RepoInfo `json:"git,omitempty" yaml:"git,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.load(resultFile(args, 1)); err != nil {
		return err
	}

	p, err := findProject(a.finder, args[0])
	if err != nil {
		return err
	}

	if err := a.analyzer.RealSize(p); err != nil {
		return err
	}
	details := projectDetails{}
	if t, err := a.analyzer.LastFileModified(p); err == nil && !t.IsZero() {
		details.LastFileModified = &t
	}
	if showHash {
		if err := a.analyzer.Hash(commandContext(cmd), p); err != nil {
			return err
		}
	}
	a.analyzer.Features(p)

	details.Record = store.ToRecord(p)
	details.Features = p.Features()
	if git.Available() && git.IsRepo(p.Path()) {
		if info, err := git.Info(p.Path()); err == nil {
			details.Git = info
		} else {
			a.log.Debug("git info unavailable", a.log.Args("path", p.Path(), "error", err))
		}
	}

	if showFormat.enabled() {
		return showFormat.print(details)
	}

	printDetails(p, details)
	return nil
}

func printDetails(p *models.Project, d projectDetails) {
	fmt.Printf("Project: %s\n\n", p.Name)
	fmt.Printf("Path:          %s\n", p.Path())
	fmt.Printf("Source Files:  %d (%s)\n", p.FileCount(), p.FormattedSize())
	if p.RealSize != nil && p.RealFileCount != nil {
		fmt.Printf("Real Size:     %s in %d files\n", humanize.IBytes(uint64(*p.RealSize)), *p.RealFileCount)
	}
	if p.LastModified != nil {
		fmt.Printf("Modified:      %s\n", p.LastModified.Format("2006-01-02 15:04:05"))
	}
	if d.LastFileModified != nil {
		fmt.Printf("Newest File:   %s (%s)\n", d.LastFileModified.Format("2006-01-02 15:04:05"), humanize.Time(*d.LastFileModified))
	}
	if p.HasHash() {
		fmt.Printf("Folder Hash:   %s\n", p.FolderHash)
	}
	fmt.Printf("Features:      %s\n", joinFeatures(p))

	if len(p.MarkerFiles) > 0 {
		fmt.Printf("Markers:       %s\n", strings.Join(p.MarkerFiles, ", "))
	}

	if d.Git != nil {
		fmt.Printf("\nGit:\n")
		fmt.Printf("  Repository:  %s\n", d.Git.TopLevel)
		fmt.Printf("  Branch:      %s\n", d.Git.Branch)
		if d.Git.Commit != "" {
			fmt.Printf("  Commit:      %s\n", shortHash(d.Git.Commit))
		}
		if d.Git.CommitTime != nil {
			fmt.Printf("  Committed:   %s\n", humanize.Time(*d.Git.CommitTime))
		}
		if d.Git.Remote != "" {
			fmt.Printf("  Remote:      %s\n", d.Git.Remote)
		}
		if d.Git.Dirty {
			fmt.Printf("  Status:      uncommitted changes\n")
		}
	}

	if len(p.SourceFiles) > 0 {
		fmt.Printf("\nSource Files:\n")
		for _, f := range p.SourceFiles {
			fmt.Printf("  %s\n", f)
		}
	}
}

// findProject looks a project up by its stored path or, failing that, by
// the absolute form of path
func findProject(f *finder.Finder, path string) (*models.Project, error) {
	p, err := f.Project(path)
	if err == nil || !errors.Is(err, finder.ErrProjectNotFound) {
		return p, err
	}
	abs, absErr := filepath.Abs(path)
	if absErr != nil || abs == filepath.Clean(path) {
		return nil, err
	}
	return f.Project(abs)
}
