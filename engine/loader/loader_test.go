package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/document/mocks"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const plyTriangle = "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
	"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"

const objPlane = "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\no plane\nusemtl wood\nf 1 2 3 4\n"

// newLoader creates a loader that is closed when the test ends.
func newLoader(t *testing.T, doc document.Document, options ...LoaderBuilderOption) Loader {
	t.Helper()
	l := NewLoader(doc, options...)
	t.Cleanup(l.Close)
	return l
}

func file(name, typ, data string) InputFile {
	return InputFile{Name: name, Type: typ, Source: BytesSource([]byte(data))}
}

// recorder collects the commands a mocked document receives.
type recorder struct {
	mu       sync.Mutex
	commands []document.Command
}

func (r *recorder) execute(cmd document.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recorder) only(t *testing.T) document.Command {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.commands, 1)
	return r.commands[0]
}

// TestLoader_NoSupportedFormat verifies that a batch without recognized files alerts exactly once.
func TestLoader_NoSupportedFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Alert("No supported file format").Times(1)

	l := newLoader(t, doc, WithNotifier(notifier))
	b := l.ImportBatch(context.Background(), []InputFile{
		file("unknown.xyz", "", "?"),
		file("README", "text/plain", "hello"),
	})
	b.Wait()

	assert.Equal(t, 0, b.Recognized())
	assert.Empty(t, b.Errors())
}

// TestLoader_MeshFormat verifies that a single-geometry file becomes one undoable object addition.
func TestLoader_MeshFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	l := newLoader(t, doc, WithNotifier(mocks.NewMockNotifier(ctrl)))
	b := l.ImportBatch(context.Background(), []InputFile{file("model.ply", "", plyTriangle)})
	b.Wait()

	require.Empty(t, b.Errors())
	assert.Equal(t, 1, b.Recognized())

	cmd, ok := rec.only(t).(document.AddObjectCommand)
	require.True(t, ok)
	assert.Equal(t, "model.ply", cmd.Object.Name)
	assert.Equal(t, "ply", cmd.Object.Geometry.SourceType)
	assert.Equal(t, "model.ply", cmd.Object.Geometry.SourceFile)
	assert.Equal(t, model.MaterialTypeStandard, cmd.Object.Material.Type)
}

// TestLoader_AppSnapshot verifies that application documents replace the document outside the history.
func TestLoader_AppSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)

	var got *document.Snapshot
	doc.EXPECT().LoadSnapshot(gomock.Any()).DoAndReturn(func(s *document.Snapshot) error {
		got = s
		return nil
	}).Times(1)

	l := newLoader(t, doc)
	b := l.ImportBatch(context.Background(), []InputFile{
		file("app.json", "application/json", `{"metadata":{"type":"App"},"project":{}}`),
	})
	b.Wait()

	require.Empty(t, b.Errors())
	require.NotNil(t, got)
	assert.Equal(t, "App", got.Metadata["type"])
}

// TestLoader_CompanionMaterials verifies that OBJ files pick up materials and textures from
// the other files of the batch.
func TestLoader_CompanionMaterials(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	l := newLoader(t, doc, WithNotifier(mocks.NewMockNotifier(ctrl)))
	b := l.ImportBatch(context.Background(), []InputFile{
		file("scene.obj", "", objPlane),
		file("scene.mtl", "", "newmtl wood\nKd 0.5 0.25 0.125\nmap_Kd textures/WOOD.jpg\n"),
		{Name: "wood.jpg", Type: "image/jpeg", Source: BytesSource(redPixel)},
	})
	b.Wait()

	require.Empty(t, b.Errors())
	assert.Equal(t, 1, b.Recognized(), "material libraries and images are not imported on their own")

	cmd, ok := rec.only(t).(document.AddObjectCommand)
	require.True(t, ok)
	assert.Equal(t, "scene.obj", cmd.Object.Name)

	meshes := cmd.Object.Meshes()
	require.Len(t, meshes, 1)
	mat := meshes[0].Material
	assert.Equal(t, "wood", mat.Name)
	assert.Equal(t, [3]float32{0.5, 0.25, 0.125}, mat.Color)
	require.NotNil(t, mat.Map)
	assert.Equal(t, "wood.jpg", mat.Map.Name())
	assert.True(t, mat.Map.Ready())
	assert.Equal(t, 1, b.Textures().Len())
}

// TestLoader_CompanionSameStem verifies that the same-stem policy prefers the matching library.
func TestLoader_CompanionSameStem(t *testing.T) {
	files := []InputFile{
		file("other.mtl", "", "newmtl wood\nKd 1 0 0\n"),
		file("scene.mtl", "", "newmtl wood\nKd 0 0 1\n"),
		file("scene.obj", "", objPlane),
	}

	tests := []struct {
		name  string
		match CompanionMatch
		color [3]float32
	}{
		{name: "first", match: CompanionMatchFirst, color: [3]float32{1, 0, 0}},
		{name: "same stem", match: CompanionMatchSameStem, color: [3]float32{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			doc := mocks.NewMockDocument(ctrl)
			rec := &recorder{}
			doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

			b := newLoader(t, doc, WithCompanionMatch(tt.match)).ImportBatch(context.Background(), files)
			b.Wait()

			require.Empty(t, b.Errors())
			obj := rec.only(t).Target()
			assert.Equal(t, tt.color, obj.Meshes()[0].Material.Color)
		})
	}
}

// TestLoader_CompanionMissing verifies that OBJ files without a library import with default materials.
func TestLoader_CompanionMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	b := newLoader(t, doc).ImportBatch(context.Background(), []InputFile{file("scene.obj", "", objPlane)})
	b.Wait()

	require.Empty(t, b.Errors())
	assert.Equal(t, "scene.obj", rec.only(t).Target().Name)
}

// TestLoader_LegacyDirectMutation verifies that the legacy companion path adds and selects the
// object without recording a command.
func TestLoader_LegacyDirectMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	direct := mocks.NewMockDirectEditor(ctrl)

	var added *model.Object
	gomock.InOrder(
		direct.EXPECT().AddObject(gomock.Any()).Do(func(obj *model.Object) { added = obj }),
		direct.EXPECT().Select(gomock.Any()).Do(func(obj *model.Object) { assert.Same(t, added, obj) }),
	)

	l := newLoader(t, doc, WithDirectEditor(direct), WithLegacyDirectCompanionMutation(true))
	b := l.ImportBatch(context.Background(), []InputFile{
		file("scene.obj", "", objPlane),
		file("scene.mtl", "", "newmtl wood\n"),
	})
	b.Wait()

	require.Empty(t, b.Errors())
	require.NotNil(t, added)
	assert.Equal(t, "scene.obj", added.Name)
}

// TestLoader_MalformedJSON verifies that parse errors are shown to the user and recorded.
func TestLoader_MalformedJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	var message string
	notifier.EXPECT().Alert(gomock.Any()).Do(func(m string) { message = m }).Times(1)

	b := newLoader(t, doc, WithNotifier(notifier)).ImportBatch(context.Background(), []InputFile{
		file("broken.json", "application/json", `{"metadata":`),
	})
	b.Wait()

	assert.Contains(t, message, "unexpected end of JSON input")
	errs := b.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformedDocument)
}

// TestLoader_PluggableWithoutDecoder verifies that pluggable formats fail per file without a decoder.
func TestLoader_PluggableWithoutDecoder(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	b := newLoader(t, doc, WithNotifier(mocks.NewMockNotifier(ctrl))).ImportBatch(context.Background(), []InputFile{
		file("rig.fbx", "", "Kaydara FBX"),
		file("model.ply", "", plyTriangle),
	})
	b.Wait()

	assert.Equal(t, 2, b.Recognized())
	errs := b.Errors()
	require.Len(t, errs, 1, "one failing file does not abort the batch")
	assert.ErrorIs(t, errs[0], ErrDecodeFailure)
	assert.Equal(t, "model.ply", rec.only(t).Target().Name)
}

// TestLoader_DecoderOverride verifies that registered decoders replace the built-in ones and that
// the family post-processing still applies.
func TestLoader_DecoderOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	var gotContent string
	dae := codec.DecoderFunc(func(_ context.Context, _ codec.Env, _ string, content codec.Content) (codec.Result, error) {
		gotContent = content.String()
		return codec.AddObject(model.NewObject(model.ObjectTypeGroup, model.WithName("Scene"))), nil
	})

	b := newLoader(t, doc, WithDecoder("dae", dae)).ImportBatch(context.Background(), []InputFile{
		file("room.DAE", "", "<COLLADA/>"),
	})
	b.Wait()

	require.Empty(t, b.Errors())
	assert.Equal(t, "<COLLADA/>", gotContent)
	assert.Equal(t, "room.DAE", rec.only(t).Target().Name)
}

// TestLoader_Progress verifies that read progress reaches the observer and ends at the file size.
func TestLoader_Progress(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	doc.EXPECT().Execute(gomock.Any()).Return(nil)

	var (
		mu     sync.Mutex
		events [][2]int64
	)
	progress := func(name string, loaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "model.ply", name)
		events = append(events, [2]int64{loaded, total})
	}

	b := newLoader(t, doc, WithProgress(progress)).ImportBatch(context.Background(), []InputFile{
		file("model.ply", "", plyTriangle),
	})
	b.Wait()

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, int64(len(plyTriangle)), last[0])
	assert.Equal(t, int64(len(plyTriangle)), last[1])
}

// TestLoader_LegacyScript verifies that scripted exports run in the configured isolated context.
func TestLoader_LegacyScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	b := newLoader(t, doc, WithSandbox(sandbox.NewJSRunner())).ImportBatch(context.Background(), []InputFile{
		file("old.js", "text/javascript", legacyExport),
	})
	b.Wait()

	require.Empty(t, b.Errors())
	obj := rec.only(t).Target()
	assert.Equal(t, "old.js", obj.Name)
	assert.Equal(t, 3, obj.Geometry.VertexCount())
}

// blockingSource never yields its bytes until released.
type blockingSource struct {
	release chan struct{}
}

func (s *blockingSource) Open() (io.ReadCloser, error) {
	<-s.release
	return nil, errors.New("released")
}

func (s *blockingSource) Size() int64 { return -1 }

// TestLoader_HungReadsDoNotStall verifies that files whose reads never finish do not delay the
// other files of the batch.
func TestLoader_HungReadsDoNotStall(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	imported := make(chan struct{})
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(func(document.Command) error {
		close(imported)
		return nil
	})

	hung := &blockingSource{release: make(chan struct{})}
	files := []InputFile{}
	for i := range 8 {
		files = append(files, InputFile{Name: fmt.Sprintf("hung%d.stl", i), Source: hung})
	}
	files = append(files, file("model.ply", "", plyTriangle))

	b := newLoader(t, doc).ImportBatch(context.Background(), files)
	assert.Equal(t, len(files), b.Recognized())

	select {
	case <-imported:
	case <-time.After(5 * time.Second):
		t.Fatal("model.ply was not imported while other reads were hung")
	}

	close(hung.release)
	b.Wait()
	assert.Len(t, b.Errors(), 8)
}

// TestLoader_ImportBatchReturnsPromptly verifies that dispatching a large batch of hung files
// does not block the caller.
func TestLoader_ImportBatchReturnsPromptly(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)

	hung := &blockingSource{release: make(chan struct{})}
	files := make([]InputFile, 200)
	for i := range files {
		files[i] = InputFile{Name: fmt.Sprintf("hung%d.stl", i), Source: hung}
	}

	l := newLoader(t, doc)
	returned := make(chan Batch, 1)
	go func() {
		returned <- l.ImportBatch(context.Background(), files)
	}()

	var b Batch
	select {
	case b = <-returned:
	case <-time.After(5 * time.Second):
		close(hung.release)
		t.Fatal("ImportBatch blocked on hung files")
	}
	assert.Equal(t, len(files), b.Recognized())

	close(hung.release)
	b.Wait()
	assert.Len(t, b.Errors(), len(files))
}

// TestLoader_DecoderPanic verifies that a panicking decoder fails only its own file.
func TestLoader_DecoderPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)
	rec := &recorder{}
	doc.EXPECT().Execute(gomock.Any()).DoAndReturn(rec.execute).Times(1)

	boom := codec.DecoderFunc(func(context.Context, codec.Env, string, codec.Content) (codec.Result, error) {
		panic("index out of range")
	})
	b := newLoader(t, doc, WithDecoder("dae", boom)).ImportBatch(context.Background(), []InputFile{
		file("broken.dae", "", "<COLLADA/>"),
		file("model.ply", "", plyTriangle),
	})
	b.Wait()

	errs := b.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDecodeFailure)
	assert.Contains(t, errs[0].Error(), "index out of range")
	assert.Equal(t, "model.ply", rec.only(t).Target().Name)
}

// TestLoader_MalformedPLY verifies that a PLY with an impossible list length fails as a decode
// failure instead of taking down the batch.
func TestLoader_MalformedPLY(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := mocks.NewMockDocument(ctrl)

	malformed := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n1e20 0 1 2\n"
	b := newLoader(t, doc).ImportBatch(context.Background(), []InputFile{file("bad.ply", "", malformed)})
	b.Wait()

	errs := b.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], codec.ErrDecodeFailure)
}
