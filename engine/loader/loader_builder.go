package loader

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithNotifier sets the notifier used for user-facing alerts.
//
// Parameters:
//   - n: the notifier
//
// Returns:
//   - LoaderBuilderOption: a function that applies the notifier option to a loader
func WithNotifier(n document.Notifier) LoaderBuilderOption {
	return func(l *loader) {
		l.notifier = n
	}
}

// WithDirectEditor sets the editor used by the legacy companion import path.
// It has no effect unless WithLegacyDirectCompanionMutation(true) is also applied.
//
// Parameters:
//   - d: the direct editor
//
// Returns:
//   - LoaderBuilderOption: a function that applies the direct editor option to a loader
func WithDirectEditor(d document.DirectEditor) LoaderBuilderOption {
	return func(l *loader) {
		l.direct = d
	}
}

// WithLegacyDirectCompanionMutation makes OBJ files imported with a material library bypass the
// command history: the object is added and selected through the direct editor.
//
// Parameters:
//   - enabled: true to restore the legacy behavior
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithLegacyDirectCompanionMutation(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.legacyDirect = enabled
	}
}

// WithCompanionMatch sets how material libraries are matched to OBJ files.
//
// Parameters:
//   - m: the matching policy
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithCompanionMatch(m CompanionMatch) LoaderBuilderOption {
	return func(l *loader) {
		l.companionMatch = m
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger, ignored when nil
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTracer sets the tracer used for pipeline and texture spans.
//
// Parameters:
//   - tracer: the tracer, ignored when nil
//
// Returns:
//   - LoaderBuilderOption: a function that applies the tracer option to a loader
func WithTracer(tracer trace.Tracer) LoaderBuilderOption {
	return func(l *loader) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithTexturePath sets the prefix the JSON decoders prepend to texture names.
//
// Parameters:
//   - path: the texture path prefix
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithTexturePath(path string) LoaderBuilderOption {
	return func(l *loader) {
		l.texturePath = path
	}
}

// WithImageWorkers sets the maximum number of concurrent texture decodes.
//
// Parameters:
//   - n: the worker count, ignored when not positive
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithImageWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.imageWorkers = n
		}
	}
}

// WithQueueSize sets the task queue size of each texture decode pool.
//
// Parameters:
//   - n: the queue size, ignored when not positive
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithDecoder registers a decoder for a format family, by family name or by extension.
// It replaces the built-in decoder, which for pluggable formats always fails.
//
// Parameters:
//   - format: the family name or one of its extensions
//   - d: the decoder
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithDecoder(format string, d codec.Decoder) LoaderBuilderOption {
	return func(l *loader) {
		l.overrides[format] = d
	}
}

// WithSandbox sets the isolated execution context for scripted legacy JSON payloads.
//
// Parameters:
//   - r: the runner
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithSandbox(r sandbox.Runner) LoaderBuilderOption {
	return func(l *loader) {
		l.runner = r
	}
}

// WithProgress sets an observer for read progress.
//
// Parameters:
//   - fn: the progress observer
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithProgress(fn ProgressFunc) LoaderBuilderOption {
	return func(l *loader) {
		l.progress = fn
	}
}
