package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pders01/pyfinder/internal/analyze"
	"github.com/pders01/pyfinder/internal/finder"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/similarity"
	"github.com/pders01/pyfinder/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	groupsReal      bool
	groupsHash      bool
	groupsThreshold float64
	groupsSave      string
	groupsFormat    outputFormat
)

// autoSave is the --save value that picks a timestamped file name
const autoSave = "auto"

var groupsCmd = &cobra.Command{
	Use:   "groups [file]",
	Short: "Show groups of likely duplicate projects",
	Long: `Group the projects of a scan file by similarity.

Projects are compared by their source file names, their names and, with
--real, the size of everything under them. Values that members of a group
share (hash, size, file count, modification date) are highlighted.

Examples:
  pyfinder groups
  pyfinder groups results.json --threshold 0.8
  pyfinder groups --real --hash
  pyfinder groups --hash --save
  pyfinder groups --save dupes.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	groupsCmd.Flags().BoolVar(&groupsReal, "real", false, "Measure real sizes and last file modification before grouping")
	groupsCmd.Flags().BoolVar(&groupsHash, "hash", false, "Compute folder hashes before grouping")
	groupsCmd.Flags().Float64Var(&groupsThreshold, "threshold", -1, "Similarity threshold (default from config)")
	groupsCmd.Flags().StringVar(&groupsSave, "save", "", "Save the analysed projects (default name python_projects_analysis_<time>.json)")
	groupsCmd.Flags().Lookup("save").NoOptDefVal = autoSave
	addFormatFlags(groupsCmd, &groupsFormat)
}

type groupView struct {
	Projects []store.Record `json:"projects" yaml:"projects"`
	Scores   []pairScore    `json:"scores" yaml:"scores"`
}

type pairScore struct {
	A     string  `json:"a" yaml:"a"`
	B     string  `json:"b" yaml:"b"`
	Score float64 `json:"score" yaml:"score"`
}

func runGroups(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.load(resultFile(args, 0)); err != nil {
		return err
	}

	if groupsThreshold >= 0 {
		if err := a.finder.UpdateSettings(finder.Settings{Threshold: groupsThreshold}); err != nil {
			return err
		}
	}

	tasks := analysisTasks(groupsReal, groupsHash)
	if tasks != 0 {
		if err := analyzeProjects(commandContext(cmd), a, tasks); err != nil {
			return err
		}
	}

	groups := a.finder.Groups()

	if groupsSave != "" {
		path := groupsSave
		if path == autoSave {
			path = finder.AutoExportName(time.Now())
		}
		if err := a.finder.Export(path); err != nil {
			return fmt.Errorf("failed to save analysis: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved analysis to %s\n", path)
	}

	if groupsFormat.enabled() {
		return groupsFormat.print(groupViews(groups))
	}

	printGroups(groups, a.finder.Threshold())
	return nil
}

func analysisTasks(realSize, hash bool) analyze.Task {
	var tasks analyze.Task
	if realSize {
		tasks |= analyze.TaskRealSize | analyze.TaskLastModified
	}
	if hash {
		tasks |= analyze.TaskHash
	}
	return tasks
}

// analyzeProjects runs the tasks on the loaded projects behind a progress bar
func analyzeProjects(ctx context.Context, a *app, tasks analyze.Task) error {
	total := len(a.finder.Projects())
	if total == 0 {
		return nil
	}

	bar, _ := pterm.DefaultProgressbar.WithTotal(total).WithTitle("Analyzing projects").WithWriter(os.Stderr).Start()
	failures, err := a.finder.Analyze(ctx, tasks, func(_, _ int, p *models.Project) {
		bar.UpdateTitle(truncate(p.Name, 30))
		bar.Increment()
	})
	_, _ = bar.Stop()
	if err != nil {
		return err
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d project(s) could not be analysed\n", len(failures), total)
	}
	return nil
}

func groupViews(groups []*models.Group) []groupView {
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		v := groupView{}
		for _, p := range g.Projects {
			v.Projects = append(v.Projects, store.ToRecord(p))
		}
		for i, p := range g.Projects {
			for _, q := range g.Projects[i+1:] {
				if score, ok := g.Score(p, q); ok {
					v.Scores = append(v.Scores, pairScore{A: p.Path(), B: q.Path(), Score: score})
				}
			}
		}
		views = append(views, v)
	}
	return views
}

var highlightColors = []string{"205", "39", "214", "82", "141", "203", "45", "226"}

func highlight(value string, index int, ok bool) string {
	if !ok {
		return value
	}
	color := highlightColors[index%len(highlightColors)]
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(value)
}

func printGroups(groups []*models.Group, threshold float64) {
	if len(groups) == 0 {
		fmt.Printf("No duplicate groups at threshold %.2f\n", threshold)
		return
	}

	fmt.Printf("Found %d duplicate group(s) at threshold %.2f:\n\n", len(groups), threshold)
	for i, g := range groups {
		shared := similarity.Shared(g.Projects)

		fmt.Printf("Group %d (%d projects)\n", i+1, g.Size())
		for _, p := range g.Projects {
			fmt.Printf("  %s\n", p.Path())
			fmt.Printf("    Files:    %d source, %s\n", p.FileCount(), p.FormattedSize())

			if p.RealSize != nil {
				idx, ok := shared.Sizes[*p.RealSize]
				fmt.Printf("    Real:     %s", highlight(humanize.IBytes(uint64(*p.RealSize)), idx, ok))
				if p.RealFileCount != nil {
					idx, ok := shared.Counts[*p.RealFileCount]
					fmt.Printf(" in %s files", highlight(fmt.Sprint(*p.RealFileCount), idx, ok))
				}
				fmt.Println()
			}
			if date, ok := similarity.ModifiedDate(p); ok {
				idx, isShared := shared.Dates[date]
				fmt.Printf("    Modified: %s\n", highlight(date, idx, isShared))
			}
			if p.HasHash() {
				idx, ok := shared.Hashes[p.FolderHash]
				fmt.Printf("    Hash:     %s\n", highlight(shortHash(p.FolderHash), idx, ok))
			}
		}

		fmt.Println("  Scores:")
		for j, p := range g.Projects {
			for _, q := range g.Projects[j+1:] {
				if score, ok := g.Score(p, q); ok {
					fmt.Printf("    %-24s %-24s %.2f\n", truncate(p.Name, 24), truncate(q.Name, 24), score)
				}
			}
		}
		fmt.Println()
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func joinFeatures(p *models.Project) string {
	features := p.Features()
	if len(features) == 0 {
		return "-"
	}
	return strings.Join(features, ", ")
}
