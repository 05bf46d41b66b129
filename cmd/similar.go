package cmd

import (
	"fmt"

	"github.com/pders01/pyfinder/internal/similarity"
	"github.com/spf13/cobra"
)

var (
	similarLimit  int
	similarMin    float64
	similarFormat outputFormat
)

var similarCmd = &cobra.Command{
	Use:   "similar <path> [file]",
	Short: "Find the projects most similar to a project",
	Long: `Score every project of a scan file against one project and list them,
most similar first.

Example:
  pyfinder similar ~/code/myapp
  pyfinder similar ~/code/myapp --limit 5 --min 0.5`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVar(&similarLimit, "limit", 10, "Maximum number of projects to show (0 for all)")
	similarCmd.Flags().Float64Var(&similarMin, "min", 0, "Minimum score")
	addFormatFlags(similarCmd, &similarFormat)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	projects, err := a.load(resultFile(args, 1))
	if err != nil {
		return err
	}

	target, err := findProject(a.finder, args[0])
	if err != nil {
		return err
	}

	var matches []similarity.Match
	for _, m := range similarity.Rank(target, projects) {
		if m.Breakdown.Score < similarMin {
			break
		}
		matches = append(matches, m)
		if similarLimit > 0 && len(matches) == similarLimit {
			break
		}
	}

	if similarFormat.enabled() {
		return similarFormat.print(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No similar projects found")
		return nil
	}

	threshold := a.finder.Threshold()
	fmt.Printf("Projects similar to %s:\n\n", target.Path())
	for _, m := range matches {
		marker := " "
		if m.Breakdown.Score >= threshold {
			marker = "*"
		}
		fmt.Printf("  %s %.2f  %s\n", marker, m.Breakdown.Score, m.Path)
	}
	fmt.Printf("\n* at or above the duplicate threshold %.2f\n", threshold)

	return nil
}
