package scene

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithObjects adds initial top-level objects to the scene. They are not recorded in the history.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...*model.Object) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj != nil {
				s.root.Add(obj)
			}
		}
	}
}

// WithHistoryLimit bounds the number of undoable commands kept. Older commands are forgotten.
//
// Parameters:
//   - n: the maximum undo depth (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithHistoryLimit(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.historyLimit = n
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger, ignored when nil
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
