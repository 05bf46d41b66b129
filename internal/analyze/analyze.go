package analyze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pders01/pyfinder/internal/hasher"
	"github.com/pders01/pyfinder/internal/logging"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pterm/pterm"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// DefaultIgnoredDirs are skipped when looking for the newest file of a tree
var DefaultIgnoredDirs = []string{
	"venv", ".venv", "__pycache__", ".git", ".idea", ".vs", ".vscode",
	"node_modules", "build", "dist", ".pytest_cache", ".mypy_cache",
}

// Task selects the metrics computed by Run
type Task uint8

const (
	TaskRealSize Task = 1 << iota
	TaskHash
	TaskLastModified
	TaskFeatures

	TaskAll = TaskRealSize | TaskHash | TaskLastModified | TaskFeatures
)

// Options configures an Analyzer
type Options struct {
	// IgnoredDirs are pruned when computing the last file modification
	IgnoredDirs []string
	// Workers bounds the number of projects analyzed at once
	Workers int
}

// Failure is a project whose analysis failed
type Failure struct {
	Path string
	Err  error
}

// Progress is called after each project; done counts finished projects
type Progress func(done, total int, p *models.Project)

// Analyzer computes the on-demand metrics of projects
type Analyzer struct {
	fs      afero.Fs
	hasher  *hasher.Hasher
	ignored map[string]struct{}
	workers int
	log     *pterm.Logger
}

// New creates an analyzer. h may be nil when TaskHash is never requested.
func New(fs afero.Fs, h *hasher.Hasher, opts Options, log *pterm.Logger) *Analyzer {
	ignored := make(map[string]struct{}, len(opts.IgnoredDirs))
	for _, name := range opts.IgnoredDirs {
		ignored[name] = struct{}{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Analyzer{
		fs:      fs,
		hasher:  h,
		ignored: ignored,
		workers: workers,
		log:     logging.OrDiscard(log),
	}
}

// RealSize sums the size and number of every file under the project
func (a *Analyzer) RealSize(p *models.Project) error {
	if err := a.checkDir(p); err != nil {
		return err
	}

	var size int64
	var count int
	err := afero.Walk(a.fs, p.Path(), func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to measure %s: %w", p.Path(), err)
	}

	p.SetRealSize(size, count)
	return nil
}

// LastFileModified returns the newest file mtime under the project, skipping
// ignored directories. The value is computed once and cached on the project;
// it is the zero time when the tree has no files.
func (a *Analyzer) LastFileModified(p *models.Project) (time.Time, error) {
	if t, ok := p.LastFileModified(); ok {
		return t, nil
	}
	if err := a.checkDir(p); err != nil {
		return time.Time{}, err
	}

	var newest time.Time
	err := afero.Walk(a.fs, p.Path(), func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if info.IsDir() {
			if _, skip := a.ignored[info.Name()]; skip && path != p.Path() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to walk %s: %w", p.Path(), err)
	}

	p.SetLastFileModified(newest)
	return newest, nil
}

// Hash computes and stores the folder hash of the project
func (a *Analyzer) Hash(ctx context.Context, p *models.Project) error {
	if a.hasher == nil {
		return errors.New("no hasher configured")
	}
	digest, err := a.hasher.Hash(ctx, p.Path())
	if err != nil {
		return err
	}
	p.FolderHash = digest
	return nil
}

// Features adds the tags that need a look at the directory itself
func (a *Analyzer) Features(p *models.Project) {
	if info, err := a.fs.Stat(filepath.Join(p.Path(), ".git")); err == nil && info.IsDir() {
		p.AddFeature(models.FeatureGit)
	}
}

// Run computes the selected metrics for every project, several projects at
// a time. Each project is only touched by its own worker. Failures are
// collected and do not stop the others; the error is non-nil only when ctx
// ends first.
func (a *Analyzer) Run(ctx context.Context, projects []*models.Project, tasks Task, progress Progress) ([]Failure, error) {
	var (
		mu       sync.Mutex
		done     int
		failures []Failure
	)

	p := pool.New().WithMaxGoroutines(a.workers).WithContext(ctx)
	for _, project := range projects {
		p.Go(func(ctx context.Context) error {
			if ctx.Err() != nil {
				return nil
			}
			err := a.analyze(ctx, project, tasks)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && ctx.Err() == nil {
				a.log.Warn("analysis failed", a.log.Args("path", project.Path(), "error", err))
				failures = append(failures, Failure{Path: project.Path(), Err: err})
			}
			done++
			if progress != nil {
				progress(done, len(projects), project)
			}
			return nil
		})
	}
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return failures, err
	}
	return failures, nil
}

func (a *Analyzer) analyze(ctx context.Context, p *models.Project, tasks Task) error {
	var errs []error
	if tasks&TaskFeatures != 0 {
		a.Features(p)
	}
	if tasks&TaskRealSize != 0 {
		if err := a.RealSize(p); err != nil {
			errs = append(errs, err)
		}
	}
	if tasks&TaskLastModified != 0 {
		if _, err := a.LastFileModified(p); err != nil {
			errs = append(errs, err)
		}
	}
	if tasks&TaskHash != 0 {
		if err := a.Hash(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Analyzer) checkDir(p *models.Project) error {
	info, err := a.fs.Stat(p.Path())
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p.Path(), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", p.Path())
	}
	return nil
}
