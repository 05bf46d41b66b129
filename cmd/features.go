package cmd

import (
	"fmt"
	"sort"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/spf13/cobra"
)

var featuresFormat outputFormat

var featuresCmd = &cobra.Command{
	Use:   "features [file]",
	Short: "Count the feature tags of all projects",
	Long: `List the feature tags found across the projects of a scan file with
usage counts. Tags come from marker files such as requirements.txt,
pyproject.toml, Dockerfile or manage.py, and from test files.

Examples:
  pyfinder features
  pyfinder features results.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)

	addFormatFlags(featuresCmd, &featuresFormat)
}

type featureInfo struct {
	Feature string `json:"feature" yaml:"feature"`
	Count   int    `json:"count" yaml:"count"`
}

func runFeatures(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	projects, err := a.load(resultFile(args, 0))
	if err != nil {
		return err
	}

	features := countFeatures(projects)

	if featuresFormat.enabled() {
		return featuresFormat.print(features)
	}

	if len(features) == 0 {
		fmt.Println("No features found")
		return nil
	}

	fmt.Printf("Features across %d project(s):\n\n", len(projects))
	for _, f := range features {
		percentage := float64(f.Count) / float64(len(projects)) * 100
		fmt.Printf("  %-14s %4d  (%.1f%%)\n", f.Feature, f.Count, percentage)
	}

	return nil
}

// countFeatures returns the feature counts, most used first
func countFeatures(projects []*models.Project) []featureInfo {
	counts := make(map[string]int)
	for _, p := range projects {
		for _, f := range p.Features() {
			counts[f]++
		}
	}

	features := make([]featureInfo, 0, len(counts))
	for f, count := range counts {
		features = append(features, featureInfo{Feature: f, Count: count})
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Count != features[j].Count {
			return features[i].Count > features[j].Count
		}
		return features[i].Feature < features[j].Feature
	})
	return features
}
