package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pders01/pyfinder/internal/config"
	"github.com/spf13/cobra"
)

var configFormat outputFormat

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the effective settings or change one of them.

Settings are read from the config file and can be overridden with
PYFINDER_* environment variables, for example PYFINDER_SIMILARITY_THRESHOLD.

Examples:
  pyfinder config show
  pyfinder config show --json
  pyfinder config set similarity.threshold 0.8
  pyfinder config set scan.ignored_dirs node_modules,.venv,build`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting and save it to the config file",
	Long: `Change a setting and save it to the config file. Lists are comma
separated.

Keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	addFormatFlags(configShowCmd, &configFormat)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	if configFormat.enabled() {
		return configFormat.print(settings)
	}

	return toml.NewEncoder(os.Stdout).Encode(settings)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := config.Set(key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := config.Save(path); err != nil {
		return err
	}

	fmt.Printf("✓ %s = %s (saved to %s)\n", key, value, path)
	return nil
}
