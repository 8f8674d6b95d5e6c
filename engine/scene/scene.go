// Package scene provides the in-memory editor document that imported objects are delivered to.
// A Scene owns a scene root, an undo/redo command history, the current selection and the
// alerts raised by importers. It satisfies the document contracts used by the loader.
package scene

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedCommand is returned by Execute for command kinds the scene cannot apply.
	ErrUnsupportedCommand = zerr.New("unsupported command")

	// ErrEmptyCommand is returned by Execute when the command has no target object.
	ErrEmptyCommand = zerr.New("command has no target")

	// ErrInvalidSnapshot is returned by LoadSnapshot when the embedded scene cannot be restored.
	ErrInvalidSnapshot = zerr.New("invalid snapshot")
)

// defaultHistoryLimit bounds the undo stack.
const defaultHistoryLimit = 256

// Scene is the editor document. It is safe for concurrent use.
type Scene interface {
	document.Document
	document.DirectEditor
	document.Notifier

	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Root returns the current scene root.
	//
	// Returns:
	//   - *model.Object: the scene root, never nil
	Root() *model.Object

	// Count returns the number of top-level objects in the scene.
	//
	// Returns:
	//   - int: count of direct children of the root
	Count() int

	// Get returns the object with the given UUID anywhere in the scene.
	//
	// Parameters:
	//   - id: the object UUID
	//
	// Returns:
	//   - *model.Object: the object, or nil when absent
	Get(id string) *model.Object

	// Remove detaches a top-level object from the scene without recording a command.
	//
	// Parameters:
	//   - id: the object UUID
	//
	// Returns:
	//   - bool: true when an object was removed
	Remove(id string) bool

	// Clear replaces the scene with an empty root and drops the history and selection.
	Clear()

	// Selected returns the current selection.
	//
	// Returns:
	//   - *model.Object: the selected object, or nil
	Selected() *model.Object

	// Undo reverts the most recent command.
	//
	// Returns:
	//   - bool: false when there is nothing to undo
	Undo() bool

	// Redo re-applies the most recently undone command.
	//
	// Returns:
	//   - bool: false when there is nothing to redo
	Redo() bool

	// History returns the names of the commands on the undo stack, oldest first.
	//
	// Returns:
	//   - []string: the command names
	History() []string

	// Alerts returns the messages raised through Alert, oldest first.
	//
	// Returns:
	//   - []string: the alert messages
	Alerts() []string

	// Snapshot returns the application document last loaded with LoadSnapshot.
	//
	// Returns:
	//   - *document.Snapshot: the snapshot, or nil when none was loaded
	Snapshot() *document.Snapshot
}

// entry is one applied command on the undo or redo stack.
type entry struct {
	cmd      document.Command
	previous *model.Object // scene root replaced by a SetSceneCommand
}

// scene is the implementation of the Scene interface.
type scene struct {
	name   string
	logger *zap.Logger

	mu           sync.RWMutex
	root         *model.Object
	selected     *model.Object
	undo         []entry
	redo         []entry
	historyLimit int
	alerts       []string
	snapshot     *document.Snapshot
}

var _ Scene = &scene{}

// NewScene creates a new, empty Scene.
//
// Parameters:
//   - name: the scene's identifier
//   - options: a variadic list of SceneBuilderOption functions to configure the Scene
//
// Returns:
//   - Scene: a new Scene configured with the provided options
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:         name,
		logger:       zap.NewNop(),
		root:         model.NewObject(model.ObjectTypeScene, model.WithName(name)),
		historyLimit: defaultHistoryLimit,
	}

	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Root() *model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.root.Children)
}

func (s *scene) Get(id string) *model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Find(id)
}

func (s *scene) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detach(id)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = model.NewObject(model.ObjectTypeScene, model.WithName(s.name))
	s.selected = nil
	s.undo = nil
	s.redo = nil
}

func (s *scene) Execute(cmd document.Command) error {
	if cmd == nil || cmd.Target() == nil {
		return ErrEmptyCommand
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.apply(cmd)
	if err != nil {
		return err
	}
	s.undo = append(s.undo, e)
	if len(s.undo) > s.historyLimit {
		s.undo = s.undo[len(s.undo)-s.historyLimit:]
	}
	s.redo = nil

	s.logger.Debug("executed command", zap.String("command", cmd.Name()), zap.String("target", cmd.Target().Name))
	return nil
}

// apply performs cmd on the scene and returns the history entry that reverts it.
// The caller must hold the write lock.
func (s *scene) apply(cmd document.Command) (entry, error) {
	switch c := cmd.(type) {
	case document.AddObjectCommand:
		s.root.Add(c.Object)
		return entry{cmd: cmd}, nil
	case document.SetSceneCommand:
		e := entry{cmd: cmd, previous: s.root}
		s.root = c.Scene
		s.selected = nil
		return e, nil
	default:
		return entry{}, zerr.Wrap(ErrUnsupportedCommand, cmd.Name())
	}
}

func (s *scene) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}
	e := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	switch c := e.cmd.(type) {
	case document.AddObjectCommand:
		s.detach(c.Object.UUID)
	case document.SetSceneCommand:
		s.root = e.previous
		s.selected = nil
	}
	s.redo = append(s.redo, e)
	s.logger.Debug("undid command", zap.String("command", e.cmd.Name()))
	return true
}

func (s *scene) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}
	e := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	applied, err := s.apply(e.cmd)
	if err != nil {
		return false
	}
	s.undo = append(s.undo, applied)
	s.logger.Debug("redid command", zap.String("command", e.cmd.Name()))
	return true
}

func (s *scene) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.undo))
	for i, e := range s.undo {
		names[i] = e.cmd.Name()
	}
	return names
}

func (s *scene) AddObject(obj *model.Object) {
	if obj == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Add(obj)
}

func (s *scene) Select(obj *model.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = obj
}

func (s *scene) Selected() *model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *scene) Alert(message string) {
	s.mu.Lock()
	s.alerts = append(s.alerts, message)
	s.mu.Unlock()
	s.logger.Warn("alert", zap.String("message", message))
}

func (s *scene) Alerts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

// LoadSnapshot replaces the document with an application export. The scene graph stored under
// "scene" is restored when present; otherwise the scene starts empty. History and selection are
// dropped.
func (s *scene) LoadSnapshot(snapshot *document.Snapshot) error {
	if snapshot == nil {
		return ErrInvalidSnapshot
	}

	root, err := s.restore(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.snapshot = snapshot
	s.selected = nil
	s.undo = nil
	s.redo = nil

	s.logger.Info("loaded snapshot", zap.Int("objects", len(root.Children)), zap.Any("metadata", snapshot.Metadata))
	return nil
}

func (s *scene) Snapshot() *document.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// restore builds the scene root stored in a snapshot.
func (s *scene) restore(snapshot *document.Snapshot) (*model.Object, error) {
	empty := model.NewObject(model.ObjectTypeScene, model.WithName(s.Name()))

	stored, ok := snapshot.Data["scene"].(map[string]any)
	if !ok {
		return empty, nil
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, zerr.Wrap(ErrInvalidSnapshot, err.Error())
	}
	res, err := codec.ObjectDecoder().Decode(context.Background(), nil, "scene", codec.TextContent(string(raw)))
	if err != nil {
		return nil, zerr.Wrap(ErrInvalidSnapshot, err.Error())
	}

	switch res.Kind {
	case codec.ResultSceneReplacement:
		return res.Scene, nil
	case codec.ResultObjectAddition:
		empty.Add(res.Object)
		return empty, nil
	default:
		return empty, nil
	}
}

// detach removes the top-level object id. The caller must hold the write lock.
func (s *scene) detach(id string) bool {
	for i, child := range s.root.Children {
		if child.UUID != id {
			continue
		}
		s.root.Children = slices.Delete(s.root.Children, i, i+1)
		if s.selected == child {
			s.selected = nil
		}
		return true
	}
	return false
}
