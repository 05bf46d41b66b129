package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	scanOutput string
	scanGroups bool
	scanHash   bool
	scanQuiet  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <root>",
	Short: "Scan a directory tree for Python projects",
	Long: `Walk root and record every Python project below it.

A directory is a project when it directly holds Python source files or a
project marker such as setup.py or pyproject.toml. Projects are not searched
for nested projects. The result is written as JSON for the other commands.

Press Ctrl+C to stop a scan early; the projects found so far are kept.

Examples:
  pyfinder scan ~/code
  pyfinder scan ~/code --output code.json
  pyfinder scan ~/code --groups
  pyfinder scan ~/code --groups --hash`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Result file (default from config, python_projects.json)")
	scanCmd.Flags().BoolVar(&scanGroups, "groups", false, "Show duplicate groups after scanning")
	scanCmd.Flags().BoolVar(&scanHash, "hash", false, "Compute folder hashes after scanning")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "Do not show progress")
}

// progressInterval throttles spinner updates
const progressInterval = 100 * time.Millisecond

// scanProgress turns scan events into spinner updates
type scanProgress struct {
	mu       sync.Mutex
	spinner  *pterm.SpinnerPrinter
	last     time.Time
	projects int
	rootErr  error
	aborted  error
	finished scanner.Event
}

func (s *scanProgress) handle(e scanner.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case scanner.EventDirectoryVisited:
		if s.spinner != nil && time.Since(s.last) >= progressInterval {
			s.last = time.Now()
			s.spinner.UpdateText(fmt.Sprintf("%d project(s) found, scanning %s", s.projects, truncate(e.Path, 60)))
		}
	case scanner.EventProjectFound:
		s.projects++
	case scanner.EventError:
		// unreadable directories are skipped without an event; errors here
		// are a bad root or a walk that ended early
		if errors.Is(e.Err, scanner.ErrRootNotExist) || errors.Is(e.Err, scanner.ErrRootNotDir) {
			s.rootErr = e.Err
		} else {
			s.aborted = e.Err
		}
	case scanner.EventFinished:
		s.finished = e
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	root := args[0]
	progress := &scanProgress{}

	a, err := newApp(progress.handle)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !scanQuiet {
		spinner, _ := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
			WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
			WithDelay(progressInterval).WithRemoveWhenDone(true).WithWriter(os.Stderr).
			Start(fmt.Sprintf("Scanning %s...", root))
		progress.spinner = spinner
	}

	id := a.finder.Start(root)
	a.log.Debug("scan running", a.log.Args("id", id))

	waitScan(ctx, a)

	if progress.spinner != nil {
		_ = progress.spinner.Stop()
	}

	if progress.rootErr != nil {
		return fmt.Errorf("cannot scan %s: %w", root, progress.rootErr)
	}

	projects := a.finder.Projects()
	if ctx.Err() != nil {
		fmt.Printf("Scan stopped: %d project(s) found before cancellation\n", len(projects))
	} else {
		fmt.Printf("✓ Found %d Python project(s) in %s\n", progress.finished.Count, root)
	}
	if progress.aborted != nil {
		fmt.Printf("  Warning: the scan ended early, results are incomplete: %v\n", progress.aborted)
	}

	// grouping after a scan uses real sizes
	if tasks := analysisTasks(scanGroups, scanHash); tasks != 0 && ctx.Err() == nil {
		if err := analyzeProjects(ctx, a, tasks); err != nil {
			return err
		}
	}

	output := scanOutput
	if output == "" {
		output = resultFile(nil, 0)
	}
	if err := a.finder.Export(output); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	fmt.Printf("  Results saved to %s\n", output)

	if scanGroups && ctx.Err() == nil {
		fmt.Println()
		printGroups(a.finder.Groups(), a.finder.Threshold())
	}

	return nil
}

// waitScan blocks until the running scan ends, stopping it when ctx is done
func waitScan(ctx context.Context, a *app) {
	done := make(chan struct{})
	go func() {
		a.finder.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.finder.Stop()
		<-done
	}
}
