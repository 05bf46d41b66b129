package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/store"
	"github.com/spf13/cobra"
)

var (
	listSort    string
	listName    string
	listFeature string
	listFormat  outputFormat
)

var listCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List the projects of a scan",
	Long: `List the projects stored in a scan file with optional filtering.

Examples:
  pyfinder list
  pyfinder list results.json --sort size
  pyfinder list --name api
  pyfinder list --feature django --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listSort, "sort", "name", "Sort by name, path, size, files or modified")
	listCmd.Flags().StringVar(&listName, "name", "", "Show only projects whose name contains this text")
	listCmd.Flags().StringVar(&listFeature, "feature", "", "Show only projects with this feature tag")
	addFormatFlags(listCmd, &listFormat)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	projects, err := a.load(resultFile(args, 0))
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	projects = filterProjects(projects, listName, listFeature)
	if len(projects) == 0 {
		fmt.Println("No projects match the filter criteria")
		return nil
	}

	if err := sortProjects(projects, listSort); err != nil {
		return err
	}

	if listFormat.enabled() {
		records := make([]store.Record, 0, len(projects))
		for _, p := range projects {
			records = append(records, store.ToRecord(p))
		}
		return listFormat.print(records)
	}

	fmt.Printf("Found %d project(s):\n\n", len(projects))
	for _, p := range projects {
		fmt.Printf("  %s\n", p.Name)
		fmt.Printf("    Path:     %s\n", p.Path())
		fmt.Printf("    Files:    %d (%s)\n", p.FileCount(), p.FormattedSize())
		if p.LastModified != nil {
			fmt.Printf("    Modified: %s\n", p.LastModified.Format("2006-01-02 15:04"))
		}
		if len(p.MarkerFiles) > 0 {
			fmt.Printf("    Markers:  %s\n", strings.Join(p.MarkerFiles, ", "))
		}
		fmt.Printf("    Features: %s\n", joinFeatures(p))
		fmt.Println()
	}

	return nil
}

func filterProjects(projects []*models.Project, name, feature string) []*models.Project {
	name = strings.ToLower(name)
	var out []*models.Project
	for _, p := range projects {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if feature != "" && !p.HasFeature(feature) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProjects(projects []*models.Project, by string) error {
	var less func(a, b *models.Project) bool
	switch by {
	case "", "name":
		less = func(a, b *models.Project) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "path":
		less = func(a, b *models.Project) bool { return a.Path() < b.Path() }
	case "size":
		less = func(a, b *models.Project) bool { return a.Size > b.Size }
	case "files":
		less = func(a, b *models.Project) bool { return a.FileCount() > b.FileCount() }
	case "modified":
		// newest first, undated last
		less = func(a, b *models.Project) bool {
			if a.LastModified == nil || b.LastModified == nil {
				return a.LastModified != nil
			}
			return a.LastModified.After(*b.LastModified)
		}
	default:
		return fmt.Errorf("invalid --sort value %q (use name, path, size, files or modified)", by)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return less(projects[i], projects[j])
	})
	return nil
}
