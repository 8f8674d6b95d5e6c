package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_Defaults verifies that an empty path yields the built-in settings.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

// TestLoad_Precedence verifies that the file overrides defaults and the environment overrides both.
func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "texture_path: assets/\nimage_workers: 8\ncompanion_match: same-stem\nlog_format: json\n")
	t.Setenv("OXY_IMAGE_WORKERS", "2")
	t.Setenv("OXY_LEGACY_DIRECT_COMPANION", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.TexturePath = "assets/"
	want.ImageWorkers = 2
	want.CompanionMatch = "same-stem"
	want.LogFormat = "json"
	want.LegacyDirectCompanion = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

// TestLoad_Errors verifies that unreadable files, bad variables and invalid values are rejected.
func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigFile)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "image_workers: [1, 2\n"))
		assert.ErrorIs(t, err, ErrConfigFile)
	})
	t.Run("bad variable", func(t *testing.T) {
		t.Setenv("OXY_IMAGE_WORKERS", "many")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(writeFile(t, "image_workers: 0\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

// TestValidate_ReportsAll verifies that every failing setting is reported.
func TestValidate_ReportsAll(t *testing.T) {
	cfg := Config{LogLevel: "loud", LogFormat: "xml", CompanionMatch: "closest"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"queue_size", "image_workers", "log level", "log format", "closest"} {
		assert.Contains(t, err.Error(), field)
	}
}

// TestConfig_LoaderOptions verifies that one option is produced per loader setting.
func TestConfig_LoaderOptions(t *testing.T) {
	assert.Len(t, Default().LoaderOptions(), 5)
}
