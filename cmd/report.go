package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <template> [file]",
	Short: "Generate pre-defined reports",
	Long: `Generate formatted reports about a scan file using pre-defined templates.

Available templates:
  summary     - Project statistics and feature usage
  duplicates  - Summary stats followed by the duplicate groups

Examples:
  pyfinder report summary
  pyfinder report duplicates results.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	template := args[0]
	files := args[1:]

	switch template {
	case "summary":
		return generateSummaryReport(cmd, files)
	case "duplicates":
		return generateDuplicatesReport(cmd, files)
	default:
		return fmt.Errorf("unknown report template: %s (available: summary, duplicates)", template)
	}
}

func generateSummaryReport(cmd *cobra.Command, files []string) error {
	fmt.Println("Project Summary Report")
	fmt.Println("══════════════════════")
	fmt.Println()

	oldStats, oldFeatures := statsFormat, featuresFormat
	statsFormat, featuresFormat = outputFormat{}, outputFormat{}
	defer func() { statsFormat, featuresFormat = oldStats, oldFeatures }()

	if err := runStats(cmd, files); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Features")
	fmt.Println("────────")
	return runFeatures(cmd, files)
}

func generateDuplicatesReport(cmd *cobra.Command, files []string) error {
	fmt.Println("Duplicate Projects Report")
	fmt.Println("═════════════════════════")
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println("───────")
	oldStats := statsFormat
	statsFormat = outputFormat{}
	err := runStats(cmd, files)
	statsFormat = oldStats
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Duplicate Groups")
	fmt.Println("────────────────")

	// Temporarily set groups flags
	oldReal, oldHash, oldThreshold := groupsReal, groupsHash, groupsThreshold
	oldSave, oldFormat := groupsSave, groupsFormat

	groupsReal, groupsHash, groupsThreshold = true, false, -1
	groupsSave, groupsFormat = "", outputFormat{}

	err = runGroups(cmd, files)

	// Restore flags
	groupsReal, groupsHash, groupsThreshold = oldReal, oldHash, oldThreshold
	groupsSave, groupsFormat = oldSave, oldFormat

	return err
}
