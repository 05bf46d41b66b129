package cmd

import (
	"fmt"
	"os"

	"github.com/pders01/pyfinder/internal/analyze"
	"github.com/pders01/pyfinder/internal/config"
	"github.com/pders01/pyfinder/internal/finder"
	"github.com/pders01/pyfinder/internal/hasher"
	"github.com/pders01/pyfinder/internal/logging"
	"github.com/pders01/pyfinder/internal/models"
	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

// app holds what a command needs to scan, analyze and persist projects
type app struct {
	settings config.Settings
	log      *pterm.Logger
	fs       afero.Fs
	cache    *hasher.DigestCache
	hasher   *hasher.Hasher
	analyzer *analyze.Analyzer
	finder   *finder.Finder
}

func newApp(listener scanner.Listener) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(settings.Log.Level, settings.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	grace, err := settings.Grace()
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings, log: log, fs: afero.NewOsFs()}

	if settings.Hash.Cache {
		a.cache = a.openCache()
	}
	a.hasher = hasher.New(a.fs, settings.Scan.IgnoredExtensions, a.cache, log)
	a.analyzer = analyze.New(a.fs, a.hasher, settings.AnalyzeOptions(), log)
	a.finder = finder.New(a.fs, finder.Config{
		Scan:        settings.ScannerOptions(),
		Threshold:   settings.Similarity.Threshold,
		GracePeriod: grace,
		Analyzer:    a.analyzer,
		Listener:    listener,
		Logger:      log,
	})
	return a, nil
}

func (a *app) openCache() *hasher.DigestCache {
	path, err := hasher.DefaultCachePath()
	if err != nil {
		a.log.Warn("digest cache disabled", a.log.Args("error", err))
		return nil
	}
	cache, err := hasher.OpenDigestCache(a.fs, path, a.settings.Hash.CacheSize)
	if err != nil {
		// a corrupt file still yields a usable empty cache
		a.log.Warn("ignoring digest cache", a.log.Args("path", path, "error", err))
	}
	return cache
}

// close persists the digest cache
func (a *app) close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Save(); err != nil {
		a.log.Warn("failed to save digest cache", a.log.Args("error", err))
	}
}

// resultFile returns the scan file named by args[i], or the configured default
func resultFile(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return config.GetOutputFile()
}

// load imports the projects of a scan file
func (a *app) load(path string) ([]*models.Project, error) {
	if err := a.finder.Import(path); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return a.finder.Projects(), nil
}
