package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pders01/pyfinder/internal/analyze"
	"github.com/pders01/pyfinder/internal/store"
	"github.com/spf13/cobra"
)

var identicalFormat outputFormat

var identicalCmd = &cobra.Command{
	Use:   "identical [file]",
	Short: "Find projects with identical contents",
	Long: `Hash every project of a scan file and list the projects whose folder
hashes match. Matching hashes mean the same file names, sizes, modification
times and contents.

Examples:
  pyfinder identical
  pyfinder identical results.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIdentical,
}

func init() {
	rootCmd.AddCommand(identicalCmd)

	addFormatFlags(identicalCmd, &identicalFormat)
}

func runIdentical(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.load(resultFile(args, 0)); err != nil {
		return err
	}

	if err := analyzeProjects(commandContext(cmd), a, analyze.TaskHash|analyze.TaskRealSize); err != nil {
		return err
	}

	identical := a.finder.Identical()

	if identicalFormat.enabled() {
		out := make([][]store.Record, 0, len(identical))
		for _, bucket := range identical {
			records := make([]store.Record, 0, len(bucket))
			for _, p := range bucket {
				records = append(records, store.ToRecord(p))
			}
			out = append(out, records)
		}
		return identicalFormat.print(out)
	}

	if len(identical) == 0 {
		fmt.Println("No identical projects found")
		return nil
	}

	var wasted uint64
	fmt.Printf("Found %d set(s) of identical projects:\n\n", len(identical))
	for i, bucket := range identical {
		fmt.Printf("Set %d  hash %s\n", i+1, shortHash(bucket[0].FolderHash))
		for _, p := range bucket {
			fmt.Printf("  %s\n", p.Path())
		}
		if size := bucket[0].RealSize; size != nil {
			extra := uint64(*size) * uint64(len(bucket)-1)
			wasted += extra
			fmt.Printf("  %s each, %s in extra copies\n", humanize.IBytes(uint64(*size)), humanize.IBytes(extra))
		}
		fmt.Println()
	}
	if wasted > 0 {
		fmt.Printf("Removing the extra copies would free %s\n", humanize.IBytes(wasted))
	}

	return nil
}
