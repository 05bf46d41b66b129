package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pders01/pyfinder/internal/analyze"
	"github.com/pders01/pyfinder/internal/hasher"
	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/pders01/pyfinder/internal/similarity"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// AppName names the config directory and the environment prefix
const AppName = "pyfinder"

// Keys of the settings
const (
	KeyIgnoredDirs       = "scan.ignored_dirs"
	KeySourceExtensions  = "scan.source_extensions"
	KeyIgnoredExtensions = "scan.ignored_extensions"
	KeyRootMarkers       = "scan.root_markers"
	KeyMaxPathLength     = "scan.max_path_length"
	KeyMaxDepth          = "scan.max_depth"
	KeyThreshold         = "similarity.threshold"
	KeyAnalyzeIgnored    = "analyze.ignored_dirs"
	KeyWorkers           = "analyze.workers"
	KeyHashCache         = "hash.cache"
	KeyHashCacheSize     = "hash.cache_size"
	KeyGracePeriod       = "finder.grace_period"
	KeyOutputFile        = "output.file"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
)

// DefaultOutputFile is where scan results are written by default
const DefaultOutputFile = "python_projects.json"

// Settings is the complete configuration
type Settings struct {
	Scan       ScanSettings       `mapstructure:"scan" toml:"scan" json:"scan" yaml:"scan"`
	Similarity SimilaritySettings `mapstructure:"similarity" toml:"similarity" json:"similarity" yaml:"similarity"`
	Analyze    AnalyzeSettings    `mapstructure:"analyze" toml:"analyze" json:"analyze" yaml:"analyze"`
	Hash       HashSettings       `mapstructure:"hash" toml:"hash" json:"hash" yaml:"hash"`
	Finder     FinderSettings     `mapstructure:"finder" toml:"finder" json:"finder" yaml:"finder"`
	Output     OutputSettings     `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Log        LogSettings        `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

type ScanSettings struct {
	IgnoredDirs       []string `mapstructure:"ignored_dirs" toml:"ignored_dirs" json:"ignored_dirs" yaml:"ignored_dirs"`
	SourceExtensions  []string `mapstructure:"source_extensions" toml:"source_extensions" json:"source_extensions" yaml:"source_extensions"`
	IgnoredExtensions []string `mapstructure:"ignored_extensions" toml:"ignored_extensions" json:"ignored_extensions" yaml:"ignored_extensions"`
	RootMarkers       []string `mapstructure:"root_markers" toml:"root_markers" json:"root_markers" yaml:"root_markers"`
	MaxPathLength     int      `mapstructure:"max_path_length" toml:"max_path_length" json:"max_path_length" yaml:"max_path_length"`
	MaxDepth          int      `mapstructure:"max_depth" toml:"max_depth" json:"max_depth" yaml:"max_depth"`
}

type SimilaritySettings struct {
	Threshold float64 `mapstructure:"threshold" toml:"threshold" json:"threshold" yaml:"threshold"`
}

type AnalyzeSettings struct {
	IgnoredDirs []string `mapstructure:"ignored_dirs" toml:"ignored_dirs" json:"ignored_dirs" yaml:"ignored_dirs"`
	Workers     int      `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"`
}

type HashSettings struct {
	Cache     bool `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	CacheSize int  `mapstructure:"cache_size" toml:"cache_size" json:"cache_size" yaml:"cache_size"`
}

type FinderSettings struct {
	GracePeriod string `mapstructure:"grace_period" toml:"grace_period" json:"grace_period" yaml:"grace_period"`
}

type OutputSettings struct {
	File string `mapstructure:"file" toml:"file" json:"file" yaml:"file"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" toml:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" toml:"format" json:"format" yaml:"format"`
}

// Defaults returns the built-in settings
func Defaults() Settings {
	scan := scanner.DefaultOptions()
	return Settings{
		Scan: ScanSettings{
			IgnoredDirs:       scan.IgnoredDirs,
			SourceExtensions:  scan.SourceExtensions,
			IgnoredExtensions: scan.IgnoredExtensions,
			RootMarkers:       scan.RootMarkers,
			MaxPathLength:     scan.MaxPathLength,
			MaxDepth:          scan.MaxDepth,
		},
		Similarity: SimilaritySettings{Threshold: similarity.DefaultThreshold},
		Analyze: AnalyzeSettings{
			IgnoredDirs: append([]string(nil), analyze.DefaultIgnoredDirs...),
			Workers:     runtime.NumCPU(),
		},
		Hash:   HashSettings{Cache: true, CacheSize: hasher.DefaultCacheSize},
		Finder: FinderSettings{GracePeriod: "500ms"},
		Output: OutputSettings{File: DefaultOutputFile},
		Log:    LogSettings{Level: "info", Format: "colorful"},
	}
}

// SetDefaults registers the built-in settings with viper
func SetDefaults() {
	d := Defaults()
	viper.SetDefault(KeyIgnoredDirs, d.Scan.IgnoredDirs)
	viper.SetDefault(KeySourceExtensions, d.Scan.SourceExtensions)
	viper.SetDefault(KeyIgnoredExtensions, d.Scan.IgnoredExtensions)
	viper.SetDefault(KeyRootMarkers, d.Scan.RootMarkers)
	viper.SetDefault(KeyMaxPathLength, d.Scan.MaxPathLength)
	viper.SetDefault(KeyMaxDepth, d.Scan.MaxDepth)
	viper.SetDefault(KeyThreshold, d.Similarity.Threshold)
	viper.SetDefault(KeyAnalyzeIgnored, d.Analyze.IgnoredDirs)
	viper.SetDefault(KeyWorkers, d.Analyze.Workers)
	viper.SetDefault(KeyHashCache, d.Hash.Cache)
	viper.SetDefault(KeyHashCacheSize, d.Hash.CacheSize)
	viper.SetDefault(KeyGracePeriod, d.Finder.GracePeriod)
	viper.SetDefault(KeyOutputFile, d.Output.File)
	viper.SetDefault(KeyLogLevel, d.Log.Level)
	viper.SetDefault(KeyLogFormat, d.Log.Format)
}

// Load reads the effective settings from viper and validates them
func Load() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("failed to decode settings: %w", err)
	}
	// lists may arrive as one comma separated string from the environment
	s.Scan.IgnoredDirs = GetStringList(KeyIgnoredDirs)
	s.Scan.SourceExtensions = GetStringList(KeySourceExtensions)
	s.Scan.IgnoredExtensions = GetStringList(KeyIgnoredExtensions)
	s.Scan.RootMarkers = GetStringList(KeyRootMarkers)
	s.Analyze.IgnoredDirs = GetStringList(KeyAnalyzeIgnored)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks value ranges
func (s Settings) Validate() error {
	if s.Similarity.Threshold < 0 || s.Similarity.Threshold > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", KeyThreshold, s.Similarity.Threshold)
	}
	if s.Scan.MaxPathLength <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxPathLength, s.Scan.MaxPathLength)
	}
	if s.Analyze.Workers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyWorkers, s.Analyze.Workers)
	}
	if _, err := s.Grace(); err != nil {
		return err
	}
	return nil
}

// ScannerOptions returns the scan settings as scanner options
func (s Settings) ScannerOptions() scanner.Options {
	return scanner.Options{
		IgnoredDirs:       s.Scan.IgnoredDirs,
		SourceExtensions:  s.Scan.SourceExtensions,
		IgnoredExtensions: s.Scan.IgnoredExtensions,
		RootMarkers:       s.Scan.RootMarkers,
		MaxPathLength:     s.Scan.MaxPathLength,
		MaxDepth:          s.Scan.MaxDepth,
	}
}

// AnalyzeOptions returns the analyzer settings
func (s Settings) AnalyzeOptions() analyze.Options {
	return analyze.Options{
		IgnoredDirs: s.Analyze.IgnoredDirs,
		Workers:     s.Analyze.Workers,
	}
}

// Grace returns the grace period given to a running scan when it is replaced
func (s Settings) Grace() (time.Duration, error) {
	d, err := cast.ToDurationE(s.Finder.GracePeriod)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", KeyGracePeriod, err)
	}
	return d, nil
}

// GetThreshold returns the duplicate threshold
func GetThreshold() float64 {
	return viper.GetFloat64(KeyThreshold)
}

// GetOutputFile returns the default scan result file
func GetOutputFile() string {
	return viper.GetString(KeyOutputFile)
}

// GetStringList returns a list setting, splitting comma separated strings
func GetStringList(key string) []string {
	return ParseList(viper.Get(key))
}

// ParseList turns a list or a comma separated string into trimmed items
func ParseList(value any) []string {
	var items []string
	switch v := value.(type) {
	case string:
		items = strings.Split(v, ",")
	default:
		items = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Dir returns the directory of the config file
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}
