// Package logging builds the structured logger shared by the importer components.
package logging

import (
	"strings"

	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidLogConfig is returned for unknown levels or formats.
var ErrInvalidLogConfig = zerr.New("invalid log config")

// New builds a logger writing to stderr. The json format uses the production encoder, the
// console format the development encoder.
//
// Parameters:
//   - level: one of debug, info, warn or error
//   - format: json or console
//
// Returns:
//   - *zap.Logger: the logger
//   - zap.AtomicLevel: the level handle, adjustable at runtime
//   - error: error if level or format is unknown
func New(level, format string) (*zap.Logger, zap.AtomicLevel, error) {
	atom, err := parseLevel(level)
	if err != nil {
		return nil, atom, err
	}

	var config zap.Config
	switch strings.ToLower(format) {
	case "json":
		config = zap.NewProductionConfig()
	case "console", "":
		config = zap.NewDevelopmentConfig()
	default:
		return nil, atom, zerr.With(zerr.Wrap(ErrInvalidLogConfig, "unknown format"), "format", format)
	}
	config.Level = atom

	logger, err := config.Build()
	if err != nil {
		return nil, atom, zerr.Wrap(ErrInvalidLogConfig, err.Error())
	}
	return logger, atom, nil
}

// NewWithSink builds a logger like New but writes to ws instead of stderr.
//
// Parameters:
//   - level: one of debug, info, warn or error
//   - format: json or console
//   - ws: the destination
//
// Returns:
//   - *zap.Logger: the logger
//   - error: error if level or format is unknown
func NewWithSink(level, format string, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	atom, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, zerr.With(zerr.Wrap(ErrInvalidLogConfig, "unknown format"), "format", format)
	}
	return zap.New(zapcore.NewCore(encoder, ws, atom)), nil
}

func parseLevel(level string) (zap.AtomicLevel, error) {
	if level == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	atom, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return zap.NewAtomicLevel(), zerr.With(zerr.Wrap(ErrInvalidLogConfig, err.Error()), "level", level)
	}
	return atom, nil
}
