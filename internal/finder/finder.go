package finder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/pyfinder/internal/analyze"
	"github.com/pders01/pyfinder/internal/logging"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/pders01/pyfinder/internal/similarity"
	"github.com/pders01/pyfinder/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

// DefaultGracePeriod is how long a replaced scan may take to stop
const DefaultGracePeriod = 500 * time.Millisecond

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrScanRunning     = errors.New("a scan is running")
)

// Config configures a Finder
type Config struct {
	Scan      scanner.Options
	Threshold float64
	// GracePeriod bounds the wait for a running scan to stop before a new one starts
	GracePeriod time.Duration
	// Analyzer computes on-demand metrics; required by Analyze
	Analyzer *analyze.Analyzer
	// Listener receives scan events plus the notifications of Import and Export
	Listener scanner.Listener
	Logger   *pterm.Logger
}

// Settings are the values that can be replaced between scans
type Settings struct {
	IgnoredDirs      []string
	SourceExtensions []string
	Threshold        float64
}

// Finder runs one scan at a time on its own goroutine and keeps the
// projects of the last completed scan or import.
type Finder struct {
	fs       afero.Fs
	log      *pterm.Logger
	grace    time.Duration
	analyzer *analyze.Analyzer
	listener scanner.Listener

	startMu sync.Mutex

	mu        sync.Mutex
	opts      scanner.Options
	threshold float64
	current   *run
	projects  []*models.Project
}

// run is one scan worker
type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	stale  atomic.Bool
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// New creates a Finder
func New(fs afero.Fs, cfg Config) *Finder {
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	listener := cfg.Listener
	if listener == nil {
		listener = func(scanner.Event) {}
	}
	return &Finder{
		fs:        fs,
		log:       logging.OrDiscard(cfg.Logger),
		grace:     grace,
		analyzer:  cfg.Analyzer,
		listener:  listener,
		opts:      cfg.Scan,
		threshold: cfg.Threshold,
	}
}

// Start scans root on a new goroutine and returns the scan id. A running
// scan is stopped first and none of its later events or results are
// delivered; if it does not stop within the grace period it is abandoned.
func (f *Finder) Start(root string) string {
	f.startMu.Lock()
	defer f.startMu.Unlock()

	f.mu.Lock()
	previous := f.current
	f.mu.Unlock()
	if previous != nil {
		f.replace(previous)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}

	f.mu.Lock()
	f.current = r
	f.projects = nil
	s := scanner.New(f.fs, f.opts, f.log)
	f.mu.Unlock()

	f.log.Info("scan started", f.log.Args("id", r.id, "path", root))

	go func() {
		defer close(r.done)
		defer cancel()

		var found []*models.Project
		s.Scan(ctx, root, func(e scanner.Event) {
			if r.stale.Load() {
				return
			}
			e.ScanID = r.id
			switch e.Kind {
			case scanner.EventProjectFound:
				found = append(found, e.Project)
			case scanner.EventFinished:
				f.publish(r, found)
			}
			f.listener(e)
		})
	}()

	return r.id
}

// replace stops a running scan and waits up to the grace period. From here
// on the replaced scan delivers no events and publishes no results.
func (f *Finder) replace(r *run) {
	if r.finished() {
		return
	}
	r.stale.Store(true)
	r.cancel()

	timer := time.NewTimer(f.grace)
	defer timer.Stop()
	select {
	case <-r.done:
	case <-timer.C:
		f.log.Warn("scan did not stop in time, abandoning it", f.log.Args("id", r.id, "grace", f.grace.String()))
	}
}

func (f *Finder) publish(r *run, found []*models.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != r || r.stale.Load() {
		return
	}
	f.projects = found
}

// Stop asks the running scan to stop. It returns immediately.
func (f *Finder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		f.current.cancel()
	}
}

// Wait blocks until the current scan has ended
func (f *Finder) Wait() {
	f.mu.Lock()
	r := f.current
	f.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

// Running reports whether a scan is in progress
func (f *Finder) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current != nil && !f.current.finished()
}

// Projects returns the projects of the last completed scan or import
func (f *Finder) Projects() []*models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Project(nil), f.projects...)
}

// SetProjects replaces the project list
func (f *Finder) SetProjects(projects []*models.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append([]*models.Project(nil), projects...)
}

// Project looks a project up by directory
func (f *Finder) Project(path string) (*models.Project, error) {
	path = filepath.Clean(path)
	for _, p := range f.Projects() {
		if p.Path() == path {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, path)
}

// UpdateSettings replaces the ignored directories, source extensions and
// threshold. Nil lists keep the current value. The change applies to the
// next scan and grouping call.
func (f *Finder) UpdateSettings(s Settings) error {
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", s.Threshold)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s.IgnoredDirs != nil {
		f.opts.IgnoredDirs = append([]string(nil), s.IgnoredDirs...)
	}
	if s.SourceExtensions != nil {
		f.opts.SourceExtensions = append([]string(nil), s.SourceExtensions...)
	}
	f.threshold = s.Threshold

	f.log.Debug("settings updated", f.log.Args(
		"ignored_dirs", len(f.opts.IgnoredDirs),
		"source_extensions", f.opts.SourceExtensions,
		"threshold", f.threshold,
	))
	return nil
}

// Threshold returns the current duplicate threshold
func (f *Finder) Threshold() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threshold
}

// Groups clusters the current projects into duplicate groups
func (f *Finder) Groups() []*models.Group {
	return similarity.NewGrouper(f.Threshold()).Group(f.Projects())
}

// Identical returns the current projects that share a folder hash
func (f *Finder) Identical() [][]*models.Project {
	return similarity.IdenticalByHash(f.Projects())
}

// Analyze computes the selected on-demand metrics of the current projects
func (f *Finder) Analyze(ctx context.Context, tasks analyze.Task, progress analyze.Progress) ([]analyze.Failure, error) {
	if f.analyzer == nil {
		return nil, errors.New("no analyzer configured")
	}
	if f.Running() {
		return nil, ErrScanRunning
	}
	return f.analyzer.Run(ctx, f.Projects(), tasks, progress)
}

// Export writes the current projects to path. Failures are also reported
// as an error event.
func (f *Finder) Export(path string) error {
	if err := store.Save(f.fs, path, f.Projects()); err != nil {
		f.listener(scanner.Event{Kind: scanner.EventError, Path: path, Err: err})
		return err
	}
	f.log.Info("projects exported", f.log.Args("path", path))
	return nil
}

// Import replaces the current projects with those stored at path and
// reports each as found. On failure the current projects are kept and the
// error is also reported as an error event.
func (f *Finder) Import(path string) error {
	if f.Running() {
		err := fmt.Errorf("cannot import %s: %w", path, ErrScanRunning)
		f.listener(scanner.Event{Kind: scanner.EventError, Path: path, Err: err})
		return err
	}

	projects, err := store.Load(f.fs, path)
	if err != nil {
		f.listener(scanner.Event{Kind: scanner.EventError, Path: path, Err: err})
		return err
	}

	f.SetProjects(projects)
	for _, p := range projects {
		f.listener(scanner.Event{Kind: scanner.EventProjectFound, Path: p.Path(), Project: p})
	}
	f.listener(scanner.Event{Kind: scanner.EventFinished, Path: path, Count: len(projects)})
	return nil
}

// AutoExportName is the file name used to save an analysis made at now
func AutoExportName(now time.Time) string {
	return fmt.Sprintf("python_projects_analysis_%s.json", now.Format("20060102_150405"))
}
