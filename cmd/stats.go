package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/spf13/cobra"
)

var statsFormat outputFormat

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Show project statistics",
	Long: `Display statistics about the projects of a scan file including:
  - Total project, source file and size counts
  - Size distribution
  - Activity per year of last modification
  - Largest projects
  - Feature usage

Examples:
  pyfinder stats
  pyfinder stats results.json --json
  pyfinder stats --toon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addFormatFlags(statsCmd, &statsFormat)
}

type projectStats struct {
	TotalProjects int            `json:"total_projects" yaml:"total_projects"`
	TotalFiles    int            `json:"total_files" yaml:"total_files"`
	TotalSize     int64          `json:"total_size" yaml:"total_size"`
	BySize        []bucketStat   `json:"by_size" yaml:"by_size"`
	ByYear        []yearActivity `json:"by_year" yaml:"by_year"`
	Largest       []sizeStat     `json:"largest" yaml:"largest"`
	TopFeatures   []featureInfo  `json:"top_features" yaml:"top_features"`
	Oldest        *time.Time     `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest        *time.Time     `json:"newest,omitempty" yaml:"newest,omitempty"`
}

type bucketStat struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Count  int    `json:"count" yaml:"count"`
}

type yearActivity struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

type sizeStat struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// sizeBuckets are the upper bounds of the size distribution
var sizeBuckets = []struct {
	label string
	limit int64
}{
	{"< 10 KB", 10 << 10},
	{"< 100 KB", 100 << 10},
	{"< 1 MB", 1 << 20},
	{"< 10 MB", 10 << 20},
	{">= 10 MB", -1},
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats := collectStats(projects)

	if statsFormat.enabled() {
		return statsFormat.print(stats)
	}

	fmt.Println("Project Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Projects: %d\n", stats.TotalProjects)
	fmt.Printf("Source Files:   %s\n", humanize.Comma(int64(stats.TotalFiles)))
	fmt.Printf("Source Size:    %s\n", models.FormatSize(stats.TotalSize))
	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Printf("Date Range:     %s to %s\n", stats.Oldest.Format("2006-01-02"), stats.Newest.Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Println("By Size:")
	for _, b := range stats.BySize {
		percentage := float64(b.Count) / float64(stats.TotalProjects) * 100
		fmt.Printf("  %-10s %4d  (%.1f%%)\n", b.Bucket, b.Count, percentage)
	}
	fmt.Println()

	if len(stats.Largest) > 0 {
		fmt.Println("Largest Projects:")
		for _, s := range stats.Largest {
			fmt.Printf("  %10s  %s\n", models.FormatSize(s.Size), s.Path)
		}
		fmt.Println()
	}

	if len(stats.TopFeatures) > 0 {
		fmt.Println("Top Features:")
		for _, f := range stats.TopFeatures {
			fmt.Printf("  %-14s %4d\n", f.Feature, f.Count)
		}
		fmt.Println()
	}

	if len(stats.ByYear) > 0 {
		fmt.Println("Activity:")
		for _, y := range stats.ByYear {
			fmt.Printf("  %d  %4d  %s\n", y.Year, y.Count, strings.Repeat("█", min(y.Count, 40)))
		}
	}

	return nil
}

func collectStats(projects []*models.Project) *projectStats {
	stats := &projectStats{TotalProjects: len(projects)}

	bySize := make([]int, len(sizeBuckets))
	byYear := make(map[int]int)
	for _, p := range projects {
		stats.TotalFiles += p.FileCount()
		stats.TotalSize += p.Size

		for i, b := range sizeBuckets {
			if b.limit < 0 || p.Size < b.limit {
				bySize[i]++
				break
			}
		}

		if p.LastModified != nil {
			t := *p.LastModified
			if stats.Oldest == nil || t.Before(*stats.Oldest) {
				stats.Oldest = &t
			}
			if stats.Newest == nil || t.After(*stats.Newest) {
				stats.Newest = &t
			}
			byYear[t.Year()]++
		}
	}

	for i, b := range sizeBuckets {
		stats.BySize = append(stats.BySize, bucketStat{Bucket: b.label, Count: bySize[i]})
	}

	for year, count := range byYear {
		stats.ByYear = append(stats.ByYear, yearActivity{Year: year, Count: count})
	}
	sort.Slice(stats.ByYear, func(i, j int) bool {
		return stats.ByYear[i].Year > stats.ByYear[j].Year
	})

	largest := append([]*models.Project(nil), projects...)
	sort.SliceStable(largest, func(i, j int) bool {
		return largest[i].Size > largest[j].Size
	})
	for _, p := range largest[:min(len(largest), 5)] {
		stats.Largest = append(stats.Largest, sizeStat{Path: p.Path(), Size: p.Size})
	}

	features := countFeatures(projects)
	stats.TopFeatures = features[:min(len(features), 10)]

	return stats
}
