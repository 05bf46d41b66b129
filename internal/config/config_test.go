package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pders01/pyfinder/internal/scanner"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 0.7, s.Similarity.Threshold)
	assert.Contains(t, s.Scan.IgnoredDirs, "node_modules")
	assert.Equal(t, scanner.DefaultOptions(), s.ScannerOptions())

	grace, err := s.Grace()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, grace)
}

func TestEnvironmentOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("PYFINDER_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("PYFINDER_SCAN_IGNORED_DIRS", "vendor, .git ,")
	InitEnv()

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, s.Similarity.Threshold)
	assert.Equal(t, []string{"vendor", ".git"}, s.Scan.IgnoredDirs)
	assert.Equal(t, 0.9, GetThreshold())
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		raw     string
		wantErr bool
		check   func(t *testing.T, s Settings)
	}{
		{"threshold", KeyThreshold, "0.85", false, func(t *testing.T, s Settings) {
			assert.Equal(t, 0.85, s.Similarity.Threshold)
		}},
		{"threshold out of range", KeyThreshold, "1.5", true, func(t *testing.T, s Settings) {
			assert.Equal(t, 0.7, s.Similarity.Threshold)
		}},
		{"not a number", KeyMaxDepth, "deep", true, nil},
		{"list", KeySourceExtensions, ".py, .pyx", false, func(t *testing.T, s Settings) {
			assert.Equal(t, []string{".py", ".pyx"}, s.Scan.SourceExtensions)
		}},
		{"bool", KeyHashCache, "false", false, func(t *testing.T, s Settings) {
			assert.False(t, s.Hash.Cache)
		}},
		{"duration", KeyGracePeriod, "2s", false, func(t *testing.T, s Settings) {
			grace, err := s.Grace()
			require.NoError(t, err)
			assert.Equal(t, 2*time.Second, grace)
		}},
		{"bad duration", KeyGracePeriod, "soon", true, nil},
		{"unknown key", "scan.colour", "red", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			err := Set(tt.key, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			if tt.check != nil {
				s, err := Load()
				require.NoError(t, err)
				tt.check(t, s)
			}
		})
	}
}

func TestSetUnknownKey(t *testing.T) {
	resetViper(t)
	assert.ErrorIs(t, Set("nope", "1"), ErrUnknownKey)
}

func TestWriteDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyfinder", "config.toml")

	require.NoError(t, WriteDefaults(path, false))
	assert.Error(t, WriteDefaults(path, false), "existing file is kept")
	require.NoError(t, WriteDefaults(path, true))

	var decoded Settings
	_, err := toml.DecodeFile(path, &decoded)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), decoded)

	resetViper(t)
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestSaveAfterSet(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, Set(KeyThreshold, "0.8"))
	require.NoError(t, Save(path))

	resetViper(t)
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	assert.Equal(t, 0.8, GetThreshold())
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList("a, b,,"))
	assert.Equal(t, []string{"a", "b"}, ParseList([]string{" a", "b "}))
	assert.Equal(t, []string{"x"}, ParseList([]any{"x"}))
	assert.Empty(t, ParseList(nil))
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, KeyThreshold)
	assert.IsIncreasing(t, keys)
}
