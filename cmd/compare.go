package cmd

import (
	"fmt"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/similarity"
	"github.com/spf13/cobra"
)

var (
	compareReal   bool
	compareHash   bool
	compareFormat outputFormat
)

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b> [file]",
	Short: "Compare two projects",
	Long: `Show how similar two projects of a scan file are, component by component:
  - source file names
  - project names
  - real sizes (with --real)

Matching folder hashes (with --hash) make two projects identical.

Examples:
  pyfinder compare ~/code/app ~/backup/app
  pyfinder compare ~/code/app ~/backup/app --real --hash`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolVar(&compareReal, "real", false, "Include the real size of both projects")
	compareCmd.Flags().BoolVar(&compareHash, "hash", false, "Compare folder hashes")
	addFormatFlags(compareCmd, &compareFormat)
}

type comparison struct {
	A         string               `json:"a" yaml:"a"`
	B         string               `json:"b" yaml:"b"`
	Breakdown similarity.Breakdown `json:"breakdown" yaml:"breakdown"`
	Duplicate bool                 `json:"duplicate" yaml:"duplicate"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.load(resultFile(args, 2)); err != nil {
		return err
	}

	first, err := findProject(a.finder, args[0])
	if err != nil {
		return err
	}
	second, err := findProject(a.finder, args[1])
	if err != nil {
		return err
	}

	for _, p := range []*models.Project{first, second} {
		if compareReal {
			if err := a.analyzer.RealSize(p); err != nil {
				return err
			}
		}
		if compareHash {
			if err := a.analyzer.Hash(commandContext(cmd), p); err != nil {
				return err
			}
		}
	}

	result := comparison{
		A:         first.Path(),
		B:         second.Path(),
		Breakdown: similarity.Compare(first, second),
	}
	result.Duplicate = result.Breakdown.Score >= a.finder.Threshold()

	if compareFormat.enabled() {
		return compareFormat.print(result)
	}

	fmt.Printf("Comparing:\n  %s\n  %s\n\n", result.A, result.B)
	b := result.Breakdown
	switch {
	case b.HashMatch:
		fmt.Println("Folder hashes match: the projects are identical")
	case first.FileCount() == 0 || second.FileCount() == 0:
		fmt.Println("One of the projects has no source files")
	default:
		fmt.Printf("  Source files: %.2f\n", b.Files)
		fmt.Printf("  Name:         %.2f\n", b.Name)
		if b.Size != nil {
			fmt.Printf("  Size:         %.2f\n", *b.Size)
		} else {
			fmt.Printf("  Size:         n/a\n")
		}
	}
	fmt.Printf("\nScore: %.2f (threshold %.2f)\n", b.Score, a.finder.Threshold())
	if result.Duplicate {
		fmt.Println("These projects are likely duplicates")
	}

	return nil
}
