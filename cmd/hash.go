package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <dir>",
	Short: "Print the folder hash of a directory",
	Long: `Compute the folder hash used to detect identical projects. Two
directories with the same hash hold the same relative file names, sizes,
modification times and contents.

Files of 10 MiB or more are hashed by their first and last MiB only.

Example:
  pyfinder hash ~/code/myapp`,
	Args: cobra.ExactArgs(1),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func runHash(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	hash, err := a.hasher.Hash(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s\n", hash, args[0])
	return nil
}
