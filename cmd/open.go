package cmd

import (
	"fmt"

	"github.com/pders01/pyfinder/internal/opener"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a project directory in the file manager",
	Long: `Open a directory with the platform file manager (Explorer, Finder or
the xdg-open handler).

Example:
  pyfinder open ~/code/myapp`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := opener.Open(dir); err != nil {
		return err
	}

	fmt.Printf("✓ Opened %s\n", dir)
	return nil
}
