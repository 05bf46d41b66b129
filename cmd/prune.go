package cmd

import (
	"fmt"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var pruneForce bool

var pruneCmd = &cobra.Command{
	Use:   "prune [file]",
	Short: "Remove projects that no longer exist from a scan file",
	Long: `Check every project of a scan file and drop those whose directory has
been moved or deleted since the scan. The file is rewritten only with --force.

Example:
  pyfinder prune              # Show what would be pruned
  pyfinder prune --force      # Actually rewrite the scan file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually rewrite the file")
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	path := resultFile(args, 0)
	projects, err := a.load(path)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	kept, missing := splitMissing(a.fs, projects)

	if len(missing) == 0 {
		fmt.Println("No projects to prune")
		return nil
	}

	fmt.Printf("Projects to prune (%d):\n\n", len(missing))
	for _, p := range missing {
		fmt.Printf("  %s\n", p.Path())
	}
	fmt.Println()

	if pruneForce {
		a.finder.SetProjects(kept)
		if err := a.finder.Export(path); err != nil {
			return fmt.Errorf("failed to rewrite %s: %w", path, err)
		}
		fmt.Printf("✓ Pruned %d project(s), %d left in %s\n", len(missing), len(kept), path)
	} else {
		fmt.Println("This is a dry run. Use --force to actually prune projects.")
	}

	return nil
}

// splitMissing separates projects whose directory still exists from the rest
func splitMissing(fs afero.Fs, projects []*models.Project) (kept, missing []*models.Project) {
	for _, p := range projects {
		if ok, err := afero.DirExists(fs, p.Path()); err == nil && ok {
			kept = append(kept, p)
		} else {
			missing = append(missing, p)
		}
	}
	return kept, missing
}
