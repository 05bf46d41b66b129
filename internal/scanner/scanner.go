package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pders01/pyfinder/internal/logging"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

var (
	ErrRootNotExist = errors.New("path does not exist")
	ErrRootNotDir   = errors.New("path is not a directory")
)

// analysisSuffix selects the files collected into a project's source list
const analysisSuffix = ".py"

// Scanner walks a directory tree depth-first and reports project directories
type Scanner struct {
	fs         afero.Fs
	rules      rules
	classifier *Classifier
	log        *pterm.Logger
}

// New creates a scanner over fs
func New(fs afero.Fs, opts Options, log *pterm.Logger) *Scanner {
	return &Scanner{
		fs:         fs,
		rules:      compile(opts),
		classifier: NewClassifier(fs, opts),
		log:        logging.OrDiscard(log),
	}
}

// Classifier returns the classifier used by the scanner
func (s *Scanner) Classifier() *Classifier {
	return s.classifier
}

// Scan walks root and returns the projects in discovery order. Every event is
// passed to listener (which may be nil); EventFinished is always the last one,
// also after cancellation or an error.
func (s *Scanner) Scan(ctx context.Context, root string, listener Listener) []*models.Project {
	if listener == nil {
		listener = func(Event) {}
	}
	root = filepath.Clean(root)
	w := &walk{Scanner: s, ctx: ctx, emit: listener}

	listener(Event{Kind: EventStarted, Path: root})

	if err := s.checkRoot(root); err != nil {
		s.log.Error("cannot scan", s.log.Args("path", root, "error", err))
		listener(Event{Kind: EventError, Path: root, Err: err})
		listener(Event{Kind: EventFinished, Path: root, Count: 0})
		return nil
	}

	w.run(root)
	listener(Event{Kind: EventFinished, Path: root, Count: len(w.projects)})

	if ctx.Err() != nil {
		s.log.Info("scan stopped", s.log.Args("path", root, "projects", len(w.projects)))
	} else {
		s.log.Debug("scan finished", s.log.Args("path", root, "projects", len(w.projects)))
	}
	return w.projects
}

// Stream runs Scan on a new goroutine and delivers its events over a channel
// that is closed after EventFinished. The channel must be drained.
func (s *Scanner) Stream(ctx context.Context, root string) <-chan Event {
	events := make(chan Event, 64)
	go func() {
		defer close(events)
		s.Scan(ctx, root, func(e Event) { events <- e })
	}()
	return events
}

func (s *Scanner) checkRoot(root string) error {
	info, err := s.fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRootNotExist, root)
		}
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	return nil
}

// walk holds the state of one scan
type walk struct {
	*Scanner
	ctx      context.Context
	emit     Listener
	projects []*models.Project
}

// run traverses from root, turning a panic into an error event
func (w *walk) run(root string) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scan of %s aborted: %v", root, r)
			w.log.Error("scan aborted", w.log.Args("path", root, "error", err))
			w.emit(Event{Kind: EventError, Path: root, Err: err})
		}
	}()
	w.visit(root, true, false, false, 0)
}

func (w *walk) visit(dir string, isRoot, ancestorSource, ancestorMarker bool, depth int) {
	if w.ctx.Err() != nil {
		return
	}

	w.emit(Event{Kind: EventDirectoryVisited, Path: dir})

	// the limit is in characters, not bytes
	if n := utf8.RuneCountInString(dir); n > w.rules.maxPathLength {
		w.log.Debug("path too long, skipping", w.log.Args("path", dir, "length", n))
		return
	}
	if w.rules.tooDeep(depth) {
		w.log.Warn("maximum depth reached, skipping", w.log.Args("path", dir, "depth", depth))
		return
	}

	sourceFile, isSource := w.classifier.MatchSource(dir)
	if isSource {
		w.emit(Event{Kind: EventFileObserved, Path: sourceFile})
	}
	markerFile, isMarker := w.classifier.MatchMarker(dir)
	if isMarker {
		w.emit(Event{Kind: EventFileObserved, Path: markerFile})
	}

	if !isRoot && (isSource || isMarker) && !ancestorSource && !ancestorMarker {
		project, err := w.analyze(dir)
		if err != nil {
			if w.ctx.Err() == nil {
				w.log.Warn("skipping project", w.log.Args("path", dir, "error", err))
			}
			return
		}
		w.projects = append(w.projects, project)
		w.emit(Event{Kind: EventProjectFound, Path: dir, Project: project})
		return
	}

	if w.ctx.Err() != nil {
		return
	}

	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		w.log.Debug("cannot list directory", w.log.Args("path", dir, "error", err))
		return
	}

	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return
		}
		if w.rules.isIgnoredDir(entry.Name()) || !w.classifier.directory(dir, entry) {
			continue
		}
		w.visit(filepath.Join(dir, entry.Name()), false,
			ancestorSource || isSource, ancestorMarker || isMarker, depth+1)
	}
}

// analyze builds the project for a classified directory: the marker files
// directly under it, then every .py file of its subtree.
func (w *walk) analyze(dir string) (*models.Project, error) {
	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	project := models.NewProject(dir)
	var newest time.Time

	for _, entry := range entries {
		name := entry.Name()
		if !w.rules.isMarker(name) || w.rules.hasIgnoredExtension(name) {
			continue
		}
		info, ok := w.classifier.regularFile(dir, entry)
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		project.MarkerFiles = append(project.MarkerFiles, path)
		project.Size += info.Size()
		newest = latest(newest, info.ModTime())
		w.emit(Event{Kind: EventFileObserved, Path: path})
	}

	err = afero.Walk(w.fs, dir, func(path string, info os.FileInfo, err error) error {
		if cerr := w.ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(info.Name(), analysisSuffix) {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := w.fs.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
			info = target
		}
		project.SourceFiles = append(project.SourceFiles, path)
		project.Size += info.Size()
		newest = latest(newest, info.ModTime())
		w.emit(Event{Kind: EventFileObserved, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !newest.IsZero() {
		project.LastModified = &newest
	}
	project.TagFeatures()
	return project, nil
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
