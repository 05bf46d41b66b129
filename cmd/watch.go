package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pders01/pyfinder/internal/config"
	"github.com/pders01/pyfinder/internal/finder"
	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	watchInterval time.Duration
	watchOutput   string
)

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Rescan a directory when settings change or on an interval",
	Long: `Scan root, then scan it again whenever the config file changes or the
interval elapses. A new scan stops the one still running. Every completed
scan is written to the result file.

Examples:
  pyfinder watch ~/code
  pyfinder watch ~/code --interval 10m
  pyfinder watch ~/code --interval 0 --output live.json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Minute, "Rescan interval (0 rescans only on config changes)")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Result file (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]

	finished := make(chan scanner.Event, 8)
	listener := func(e scanner.Event) {
		switch e.Kind {
		case scanner.EventFinished:
			select {
			case finished <- e:
			default:
			}
		case scanner.EventError:
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", e.Path, e.Message())
		}
	}

	a, err := newApp(listener)
	if err != nil {
		return err
	}
	defer a.close()

	output := watchOutput
	if output == "" {
		output = resultFile(nil, 0)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes := make(chan fsnotify.Event, 1)
	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			select {
			case changes <- e:
			default:
			}
		})
		viper.WatchConfig()
		fmt.Printf("Watching %s for changes\n", viper.ConfigFileUsed())
	}

	var tick <-chan time.Time
	if watchInterval > 0 {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	current := a.finder.Start(root)
	fmt.Printf("Scan %s started\n", shortID(current))

	for {
		select {
		case <-ctx.Done():
			a.finder.Stop()
			a.finder.Wait()
			fmt.Println("Stopped watching")
			return nil

		case e := <-finished:
			// a replaced scan may finish after its successor started
			if e.ScanID != current {
				continue
			}
			if err := a.finder.Export(output); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				continue
			}
			fmt.Printf("[%s] scan %s found %d project(s), saved to %s\n",
				time.Now().Format("15:04:05"), shortID(e.ScanID), e.Count, output)

		case e := <-changes:
			settings, err := config.Load()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: ignoring invalid config change: %v\n", err)
				continue
			}
			err = a.finder.UpdateSettings(finder.Settings{
				IgnoredDirs:      settings.Scan.IgnoredDirs,
				SourceExtensions: settings.Scan.SourceExtensions,
				Threshold:        settings.Similarity.Threshold,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				continue
			}
			fmt.Printf("Config %s changed, rescanning\n", e.Name)
			current = a.finder.Start(root)
			fmt.Printf("Scan %s started\n", shortID(current))

		case <-tick:
			current = a.finder.Start(root)
			fmt.Printf("Scan %s started\n", shortID(current))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
