package sandbox

import "go.uber.org/zap"

// JSRunnerBuilderOption is a function that configures a JavaScript runner.
type JSRunnerBuilderOption func(*jsRunner)

// WithLogger sets the logger that records failed runs at debug level.
//
// Parameters:
//   - logger: the logger, ignored when nil
//
// Returns:
//   - JSRunnerBuilderOption: a function that applies the logger
func WithLogger(logger *zap.Logger) JSRunnerBuilderOption {
	return func(r *jsRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
