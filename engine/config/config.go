// Package config loads the importer settings from defaults, an optional YAML file and the
// environment, in that order of precedence.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/loader"

	"github.com/caarlos0/env/v11"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when a setting fails validation.
	ErrInvalidConfig = zerr.New("invalid config")

	// ErrConfigFile is returned when the YAML file cannot be read or parsed.
	ErrConfigFile = zerr.New("config file")
)

// Config holds the importer settings.
type Config struct {
	// TexturePath is prepended to texture names referenced by JSON documents.
	TexturePath string `env:"OXY_TEXTURE_PATH" yaml:"texture_path"`

	// QueueSize is the task queue size of each texture decode pool.
	QueueSize int `env:"OXY_QUEUE_SIZE" yaml:"queue_size"`

	// ImageWorkers bounds the number of textures decoded concurrently.
	ImageWorkers int `env:"OXY_IMAGE_WORKERS" yaml:"image_workers"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"OXY_LOG_LEVEL" yaml:"log_level"`

	// LogFormat is json or console.
	LogFormat string `env:"OXY_LOG_FORMAT" yaml:"log_format"`

	// CompanionMatch is first or same-stem.
	CompanionMatch string `env:"OXY_COMPANION_MATCH" yaml:"companion_match"`

	// LegacyDirectCompanion adds OBJ files imported with a material library without recording a command.
	LegacyDirectCompanion bool `env:"OXY_LEGACY_DIRECT_COMPANION" yaml:"legacy_direct_companion"`
}

// Default returns the built-in settings.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		QueueSize:      64,
		ImageWorkers:   2,
		LogLevel:       "info",
		LogFormat:      "console",
		CompanionMatch: loader.CompanionMatchFirst.String(),
	}
}

// Load builds the configuration. Values from the YAML file at path override the defaults, and
// environment variables override both. An empty path skips the file.
//
// Parameters:
//   - path: the YAML file, or ""
//
// Returns:
//   - Config: the validated configuration
//   - error: error if the file cannot be read, a variable cannot be parsed or validation fails
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, zerr.With(zerr.Wrap(ErrConfigFile, err.Error()), "path", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, zerr.With(zerr.Wrap(ErrConfigFile, err.Error()), "path", path)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, zerr.Wrap(ErrInvalidConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all failures at once.
//
// Returns:
//   - error: error wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	var errs []error
	if c.QueueSize < 1 {
		errs = append(errs, zerr.With(zerr.Wrap(ErrInvalidConfig, "queue_size must be positive"), "queue_size", c.QueueSize))
	}
	if c.ImageWorkers < 1 {
		errs = append(errs, zerr.With(zerr.Wrap(ErrInvalidConfig, "image_workers must be positive"), "image_workers", c.ImageWorkers))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, zerr.With(zerr.Wrap(ErrInvalidConfig, "unknown log level"), "log_level", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, zerr.With(zerr.Wrap(ErrInvalidConfig, "unknown log format"), "log_format", c.LogFormat))
	}
	if _, err := loader.ParseCompanionMatch(c.CompanionMatch); err != nil {
		errs = append(errs, zerr.Wrap(ErrInvalidConfig, err.Error()))
	}
	return errors.Join(errs...)
}

// LoaderOptions converts the settings into loader options. The configuration must be valid.
//
// Returns:
//   - []loader.LoaderBuilderOption: the options for loader.NewLoader
func (c Config) LoaderOptions() []loader.LoaderBuilderOption {
	match, _ := loader.ParseCompanionMatch(c.CompanionMatch)
	return []loader.LoaderBuilderOption{
		loader.WithTexturePath(c.TexturePath),
		loader.WithQueueSize(c.QueueSize),
		loader.WithImageWorkers(c.ImageWorkers),
		loader.WithCompanionMatch(match),
		loader.WithLegacyDirectCompanionMutation(c.LegacyDirectCompanion),
	}
}
