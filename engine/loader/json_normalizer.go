package loader

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"go.trai.ch/zerr"
)

// legacyScriptMarker marks the oldest exports, which are scripts that post their model to the
// host instead of plain JSON.
const legacyScriptMarker = "postMessage"

// isolatedEnv is implemented by batch environments that carry an isolated execution context.
type isolatedEnv interface {
	IsolatedRunner() sandbox.Runner
}

// JSONDecoder decodes every JSON-bearing format. The document metadata is normalized to a
// canonical {type, version} pair and the document is routed on its lowercased type:
//
//	buffergeometry  buffer-backed geometry wrapped in a default-material mesh
//	geometry        legacy indexed geometry, possibly skinned and multi-material
//	object          object or scene graph
//	app             whole-application snapshot
//
// Any other type decodes to nothing. Payloads containing the legacy script marker run in the
// isolated execution context of the environment and are tagged {version: 2}.
//
// Returns:
//   - codec.Decoder: the JSON decoder
func JSONDecoder() codec.Decoder {
	return codec.DecoderFunc(decodeJSON)
}

func decodeJSON(ctx context.Context, env codec.Env, name string, content codec.Content) (codec.Result, error) {
	text := content.String()

	var data map[string]any
	if strings.Contains(text, legacyScriptMarker) {
		var err error
		if data, err = runLegacyScript(ctx, env, text); err != nil {
			return codec.None(), zerr.With(err, "file", name)
		}
	} else if err := json.Unmarshal([]byte(text), &data); err != nil {
		return codec.None(), zerr.With(zerr.Wrap(ErrMalformedDocument, err.Error()), "file", name)
	} else if data == nil {
		return codec.None(), zerr.With(zerr.Wrap(ErrMalformedDocument, "document is null"), "file", name)
	}

	return routeJSON(ctx, env, name, data)
}

// runLegacyScript executes a scripted export in isolation and tags the posted model as version 2.
func runLegacyScript(ctx context.Context, env codec.Env, text string) (map[string]any, error) {
	runner := sandbox.NewJSRunner()
	if e, ok := env.(isolatedEnv); ok && e.IsolatedRunner() != nil {
		runner = e.IsolatedRunner()
	}

	outcome := <-runner.RunIsolated(ctx, text)
	if outcome.Err != nil {
		return nil, zerr.Wrap(ErrDecodeFailure, outcome.Err.Error())
	}
	if outcome.Data == nil {
		return nil, zerr.Wrap(ErrDecodeFailure, "isolated run returned no data")
	}
	outcome.Data["metadata"] = map[string]any{"version": float64(2)}
	return outcome.Data, nil
}

// normalizeMetadata rewrites the historical metadata shapes of data in place and returns the
// canonical metadata block: a missing block becomes {type: "Geometry"}, a missing type defaults
// to "Geometry", and formatVersion is copied to version.
//
// Parameters:
//   - data: the decoded document
//
// Returns:
//   - map[string]any: the normalized metadata, also stored under data["metadata"]
func normalizeMetadata(data map[string]any) map[string]any {
	metadata, ok := data["metadata"].(map[string]any)
	if !ok {
		metadata = map[string]any{"type": "Geometry"}
		data["metadata"] = metadata
	}
	if _, ok := metadata["type"]; !ok {
		metadata["type"] = "Geometry"
	}
	if v, ok := metadata["formatVersion"]; ok {
		metadata["version"] = v
	}
	return metadata
}

// routeJSON normalizes the metadata of data and hands the document to the decoder for its type.
func routeJSON(ctx context.Context, env codec.Env, name string, data map[string]any) (codec.Result, error) {
	metadata := normalizeMetadata(data)
	kind, _ := metadata["type"].(string)

	var decoder codec.Decoder
	switch strings.ToLower(kind) {
	case "buffergeometry":
		decoder = codec.BufferGeometryDecoder()
	case "geometry":
		decoder = codec.LegacyGeometryDecoder()
	case "object":
		decoder = codec.ObjectDecoder()
	case "app":
		return codec.ReplaceDocument(&document.Snapshot{Metadata: metadata, Data: data}), nil
	default:
		return codec.None(), nil
	}

	normalized, err := json.Marshal(data)
	if err != nil {
		return codec.None(), zerr.With(zerr.Wrap(ErrDecodeFailure, err.Error()), "file", name)
	}
	return decoder.Decode(ctx, env, name, codec.TextContent(string(normalized)))
}
