// Package document defines the contract between importers and the editor document that
// receives imported objects. Importers never touch document state directly; they hand
// finished objects over through the operations declared here.
package document

import "github.com/Carmen-Shannon/oxy-editor/engine/model"

//go:generate mockgen -source=document.go -destination=mocks/mock_document.go -package=mocks

// Command is an undoable mutation of the document.
type Command interface {
	// Name identifies the command kind for history and logging.
	//
	// Returns:
	//   - string: the command name
	Name() string

	// Target returns the object the command inserts.
	//
	// Returns:
	//   - *model.Object: the added object or new scene root
	Target() *model.Object
}

// AddObjectCommand adds an object to the current scene.
type AddObjectCommand struct {
	Object *model.Object
}

// Name returns "AddObject".
func (c AddObjectCommand) Name() string { return "AddObject" }

// Target returns the added object.
func (c AddObjectCommand) Target() *model.Object { return c.Object }

// SetSceneCommand replaces the current scene with a new scene root.
type SetSceneCommand struct {
	Scene *model.Object
}

// Name returns "SetScene".
func (c SetSceneCommand) Name() string { return "SetScene" }

// Target returns the new scene root.
func (c SetSceneCommand) Target() *model.Object { return c.Scene }

// Snapshot is a whole-application document export. It replaces the document outright and is
// not undoable.
type Snapshot struct {
	// Metadata is the normalized metadata block ({type, version, ...}).
	Metadata map[string]any

	// Data is the full decoded document, metadata included.
	Data map[string]any
}

// Document is the receiver of imported objects.
// Implementations must be safe for concurrent use: imports of different files deliver
// their results independently and in no particular order.
type Document interface {
	// Execute applies an undoable command.
	//
	// Parameters:
	//   - cmd: the command to apply
	//
	// Returns:
	//   - error: error if the command cannot be applied
	Execute(cmd Command) error

	// LoadSnapshot replaces the whole document, bypassing the command history.
	//
	// Parameters:
	//   - snapshot: the application document
	//
	// Returns:
	//   - error: error if the snapshot cannot be loaded
	LoadSnapshot(snapshot *Snapshot) error
}

// DirectEditor mutates the document without recording a command. Only the legacy
// companion-file import path uses it, and only when explicitly enabled.
type DirectEditor interface {
	// AddObject inserts an object into the current scene.
	//
	// Parameters:
	//   - obj: the object to add
	AddObject(obj *model.Object)

	// Select makes obj the current selection.
	//
	// Parameters:
	//   - obj: the object to select
	Select(obj *model.Object)
}

// Notifier delivers blocking user-facing messages.
type Notifier interface {
	// Alert shows a message to the user.
	//
	// Parameters:
	//   - message: the message text
	Alert(message string)
}
