package loader

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeMetadata_Shapes verifies the canonical metadata produced for every historical shape.
func TestNormalizeMetadata_Shapes(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want map[string]any
	}{
		{
			name: "no metadata",
			data: map[string]any{},
			want: map[string]any{"type": "Geometry"},
		},
		{
			name: "metadata without type",
			data: map[string]any{"metadata": map[string]any{}},
			want: map[string]any{"type": "Geometry"},
		},
		{
			name: "format version alias",
			data: map[string]any{"metadata": map[string]any{"formatVersion": 3.0}},
			want: map[string]any{"type": "Geometry", "formatVersion": 3.0, "version": 3.0},
		},
		{
			name: "typed metadata untouched",
			data: map[string]any{"metadata": map[string]any{"type": "Object", "version": 4.3}},
			want: map[string]any{"type": "Object", "version": 4.3},
		},
		{
			name: "metadata that is not an object",
			data: map[string]any{"metadata": "v1"},
			want: map[string]any{"type": "Geometry"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeMetadata(tt.data)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, tt.data["metadata"]); diff != "" {
				t.Errorf("document metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// jsonEnv is a minimal batch environment for the JSON decoder.
type jsonEnv struct {
	runner sandbox.Runner
}

func (e *jsonEnv) Resolve(string, func(*model.Texture)) *model.Texture { return nil }
func (e *jsonEnv) TexturePath() string                                  { return "" }
func (e *jsonEnv) EmbeddedTexture(name string, _ []byte) *model.Texture { return model.NewTexture(name, "") }
func (e *jsonEnv) IsolatedRunner() sandbox.Runner                       { return e.runner }

func decodeText(t *testing.T, env codec.Env, name, text string) (codec.Result, error) {
	t.Helper()
	return JSONDecoder().Decode(context.Background(), env, name, codec.TextContent(text))
}

// TestJSONDecoder_Routes verifies dispatch on the lowercased metadata type.
func TestJSONDecoder_Routes(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind codec.ResultKind
	}{
		{
			name: "buffer geometry",
			text: `{"metadata":{"type":"BufferGeometry"},"data":{"attributes":{"position":{"itemSize":3,"array":[0,0,0,1,0,0,0,1,0]}}}}`,
			kind: codec.ResultObjectAddition,
		},
		{
			name: "oldest geometry without metadata",
			text: `{"vertices":[0,0,0,1,0,0,0,1,0],"faces":[0,0,1,2]}`,
			kind: codec.ResultObjectAddition,
		},
		{
			name: "object graph",
			text: `{"metadata":{"type":"object"},"object":{"uuid":"s","type":"Scene"}}`,
			kind: codec.ResultSceneReplacement,
		},
		{
			name: "application document",
			text: `{"metadata":{"type":"App"},"project":{"shadows":true}}`,
			kind: codec.ResultDocumentReplacement,
		},
		{
			name: "unknown type",
			text: `{"metadata":{"type":"Material"}}`,
			kind: codec.ResultNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decodeText(t, &jsonEnv{}, "doc.json", tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

// TestJSONDecoder_AppSnapshot verifies the snapshot carries normalized metadata and the full document.
func TestJSONDecoder_AppSnapshot(t *testing.T) {
	res, err := decodeText(t, &jsonEnv{}, "app.json", `{"metadata":{"type":"app","formatVersion":4},"scene":{"object":{}}}`)
	require.NoError(t, err)
	require.Equal(t, codec.ResultDocumentReplacement, res.Kind)

	assert.Equal(t, 4.0, res.Snapshot.Metadata["version"])
	assert.Contains(t, res.Snapshot.Data, "scene")
	assert.Equal(t, res.Snapshot.Metadata, res.Snapshot.Data["metadata"])
}

// TestJSONDecoder_Malformed verifies that parse errors are reported as malformed documents.
func TestJSONDecoder_Malformed(t *testing.T) {
	for _, text := range []string{`{"metadata":`, `null`, `[1, 2]`} {
		_, err := decodeText(t, &jsonEnv{}, "broken.json", text)
		assert.ErrorIs(t, err, ErrMalformedDocument, text)
	}
}

// TestJSONDecoder_LegacyScript verifies that scripted payloads run isolated and are tagged version 2.
func TestJSONDecoder_LegacyScript(t *testing.T) {
	var got string
	runner := sandbox.RunnerFunc(func(_ context.Context, payload string) <-chan sandbox.Outcome {
		got = payload
		return sandbox.Resolved(sandbox.Outcome{Data: map[string]any{
			"metadata": map[string]any{"type": "Object"},
			"vertices": []any{0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0.0},
			"faces":    []any{0.0, 0.0, 1.0, 2.0},
		}})
	})

	payload := `var model = {}; postMessage(model); close();`
	res, err := decodeText(t, &jsonEnv{runner: runner}, "old.js", payload)
	require.NoError(t, err)

	assert.Equal(t, payload, got)
	require.Equal(t, codec.ResultObjectAddition, res.Kind)
	assert.Equal(t, "old.js", res.Object.Name)
	assert.Equal(t, 3, res.Object.Geometry.VertexCount())
}

// legacyExport is a scripted model export of format version 2.
const legacyExport = `postMessage( {

	"metadata" :
	{
		"formatVersion" : 2,
		"generatedBy"   : "Blender 2.63 Exporter"
	},

	"scale" : 1.000000,

	"materials": [	{
		"DbgColor" : 15658734,
		"DbgName" : "steel"
	}],

	"vertices": [0,0,0,1,0,0,0,1,0],

	"faces": [0,0,1,2]

} );
close();
`

// TestJSONDecoder_LegacyExport verifies that a scripted export decodes in the default isolated context.
func TestJSONDecoder_LegacyExport(t *testing.T) {
	res, err := decodeText(t, &jsonEnv{}, "old.js", legacyExport)
	require.NoError(t, err)
	require.Equal(t, codec.ResultObjectAddition, res.Kind)
	assert.Equal(t, "old.js", res.Object.Name)
	assert.Equal(t, 3, res.Object.Geometry.VertexCount())
	assert.Equal(t, "ascii", res.Object.Geometry.SourceType)
}

// TestJSONDecoder_LegacyScriptFailure verifies that failed isolated runs abort the file.
func TestJSONDecoder_LegacyScriptFailure(t *testing.T) {
	runner := sandbox.RunnerFunc(func(context.Context, string) <-chan sandbox.Outcome {
		return sandbox.Resolved(sandbox.Outcome{Err: sandbox.ErrNoMessage})
	})
	_, err := decodeText(t, &jsonEnv{runner: runner}, "old.js", `postMessage`)
	assert.ErrorIs(t, err, ErrDecodeFailure)
}
