package scene

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/document/mocks"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func group(name string) *model.Object {
	return model.NewObject(model.ObjectTypeGroup, model.WithName(name))
}

// TestScene_ExecuteUndoRedo verifies that object additions are undoable and redoable.
func TestScene_ExecuteUndoRedo(t *testing.T) {
	s := NewScene("main")
	obj := group("crate")

	require.NoError(t, s.Execute(document.AddObjectCommand{Object: obj}))
	assert.Equal(t, 1, s.Count())
	assert.Same(t, obj, s.Get(obj.UUID))
	assert.Equal(t, []string{"AddObject"}, s.History())

	require.True(t, s.Undo())
	assert.Equal(t, 0, s.Count())
	assert.Nil(t, s.Get(obj.UUID))
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, 1, s.Count())
	assert.False(t, s.Redo())
}

// TestScene_SetScene verifies that scene replacement swaps the root and restores it on undo.
func TestScene_SetScene(t *testing.T) {
	s := NewScene("main", WithObjects(group("old")))
	before := s.Root()

	next := model.NewObject(model.ObjectTypeScene, model.WithName("level.json"))
	next.Add(group("a"), group("b"))
	require.NoError(t, s.Execute(document.SetSceneCommand{Scene: next}))

	assert.Same(t, next, s.Root())
	assert.Equal(t, 2, s.Count())

	require.True(t, s.Undo())
	assert.Same(t, before, s.Root())
	assert.Equal(t, 1, s.Count())
}

// TestScene_NewCommandClearsRedo verifies that executing after an undo discards the redo stack.
func TestScene_NewCommandClearsRedo(t *testing.T) {
	s := NewScene("main")
	require.NoError(t, s.Execute(document.AddObjectCommand{Object: group("a")}))
	require.True(t, s.Undo())
	require.NoError(t, s.Execute(document.AddObjectCommand{Object: group("b")}))

	assert.False(t, s.Redo())
}

// TestScene_HistoryLimit verifies that the oldest commands are forgotten past the limit.
func TestScene_HistoryLimit(t *testing.T) {
	s := NewScene("main", WithHistoryLimit(2))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.Execute(document.AddObjectCommand{Object: group(name)}))
	}

	assert.Len(t, s.History(), 2)
	assert.True(t, s.Undo())
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
	assert.Equal(t, 1, s.Count())
}

// TestScene_ExecuteRejects verifies that empty and unknown commands are refused.
func TestScene_ExecuteRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewScene("main")

	assert.ErrorIs(t, s.Execute(document.AddObjectCommand{}), ErrEmptyCommand)
	assert.ErrorIs(t, s.Execute(nil), ErrEmptyCommand)

	cmd := mocks.NewMockCommand(ctrl)
	cmd.EXPECT().Target().Return(group("x")).AnyTimes()
	cmd.EXPECT().Name().Return("Rename").AnyTimes()
	assert.ErrorIs(t, s.Execute(cmd), ErrUnsupportedCommand)
	assert.Empty(t, s.History())
}

// TestScene_DirectEdits verifies that direct additions and selection bypass the history.
func TestScene_DirectEdits(t *testing.T) {
	s := NewScene("main")
	obj := group("scene.obj")

	s.AddObject(obj)
	s.Select(obj)

	assert.Equal(t, 1, s.Count())
	assert.Same(t, obj, s.Selected())
	assert.Empty(t, s.History())

	require.True(t, s.Remove(obj.UUID))
	assert.Nil(t, s.Selected())
	assert.False(t, s.Remove(obj.UUID))
}

// TestScene_Alerts verifies that alerts are recorded in order.
func TestScene_Alerts(t *testing.T) {
	s := NewScene("main")
	s.Alert("first")
	s.Alert("second")
	assert.Equal(t, []string{"first", "second"}, s.Alerts())
}

// TestScene_LoadSnapshot verifies that application exports restore their stored scene and reset
// the history.
func TestScene_LoadSnapshot(t *testing.T) {
	s := NewScene("main")
	require.NoError(t, s.Execute(document.AddObjectCommand{Object: group("old")}))

	snapshot := &document.Snapshot{
		Metadata: map[string]any{"type": "App"},
		Data: map[string]any{
			"metadata": map[string]any{"type": "App"},
			"scene": map[string]any{
				"metadata": map[string]any{"type": "Object"},
				"object": map[string]any{
					"uuid": "root",
					"type": "Scene",
					"name": "Stage",
					"children": []any{
						map[string]any{"uuid": "lamp", "type": "Group", "name": "lamp"},
					},
				},
			},
		},
	}
	require.NoError(t, s.LoadSnapshot(snapshot))

	assert.Equal(t, "Stage", s.Root().Name)
	assert.Equal(t, 1, s.Count())
	assert.NotNil(t, s.Get("lamp"))
	assert.Empty(t, s.History())
	assert.Same(t, snapshot, s.Snapshot())
}

// TestScene_LoadSnapshotWithoutScene verifies that exports without a scene graph start empty.
func TestScene_LoadSnapshotWithoutScene(t *testing.T) {
	s := NewScene("main", WithObjects(group("old")))
	require.NoError(t, s.LoadSnapshot(&document.Snapshot{Data: map[string]any{"project": map[string]any{}}}))
	assert.Equal(t, 0, s.Count())

	assert.ErrorIs(t, s.LoadSnapshot(nil), ErrInvalidSnapshot)
}

// TestScene_ConcurrentExecute verifies that concurrent deliveries are all applied.
func TestScene_ConcurrentExecute(t *testing.T) {
	s := NewScene("main")

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Execute(document.AddObjectCommand{Object: group("x")}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, s.Count())
	assert.Len(t, s.History(), 32)
}
