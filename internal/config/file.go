package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrUnknownKey is returned by Set for keys that are not settings
var ErrUnknownKey = errors.New("unknown setting")

type kind int

const (
	kindList kind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindString
)

var keyKinds = map[string]kind{
	KeyIgnoredDirs:       kindList,
	KeySourceExtensions:  kindList,
	KeyIgnoredExtensions: kindList,
	KeyRootMarkers:       kindList,
	KeyMaxPathLength:     kindInt,
	KeyMaxDepth:          kindInt,
	KeyThreshold:         kindFloat,
	KeyAnalyzeIgnored:    kindList,
	KeyWorkers:           kindInt,
	KeyHashCache:         kindBool,
	KeyHashCacheSize:     kindInt,
	KeyGracePeriod:       kindDuration,
	KeyOutputFile:        kindString,
	KeyLogLevel:          kindString,
	KeyLogFormat:         kindString,
}

// Keys returns every setting key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InitEnv lets PYFINDER_* environment variables override settings
// (PYFINDER_SIMILARITY_THRESHOLD for similarity.threshold)
func InitEnv() {
	viper.SetEnvPrefix(AppName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Set parses raw according to the type of key and applies it. Lists are
// comma separated. The previous value is restored if the result is invalid.
func Set(key, raw string) error {
	k, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	var value any
	var err error
	switch k {
	case kindList:
		value = ParseList(raw)
	case kindInt:
		value, err = cast.ToIntE(raw)
	case kindFloat:
		value, err = cast.ToFloat64E(raw)
	case kindBool:
		value, err = cast.ToBoolE(raw)
	case kindDuration:
		_, err = cast.ToDurationE(raw)
		value = raw
	default:
		value = raw
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	previous := viper.Get(key)
	viper.Set(key, value)
	if _, err := Load(); err != nil {
		viper.Set(key, previous)
		return err
	}
	return nil
}

// WriteDefaults writes the built-in settings as TOML. An existing file is
// only replaced when force is set.
func WriteDefaults(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(Defaults()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Save writes the effective settings to path
func Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
