package cmd

import (
	"fmt"

	"github.com/pders01/pyfinder/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration file",
	Long: `Write the built-in settings to the config file so they can be edited.

The file is created at ~/.config/pyfinder/config.toml unless --config names
another path. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := config.WriteDefaults(path, initForce); err != nil {
		return err
	}

	fmt.Printf("✓ Created default config: %s\n", path)
	fmt.Println("  You can now use: pyfinder scan <root>")
	return nil
}
