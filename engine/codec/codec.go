// Package codec holds the per-format decoders used by the import pipeline. A decoder turns the raw
// content of one file into a Result; it never mutates a document itself. Decoders that reference
// external images resolve them through the Env they are handed, which is scoped to one import batch.
package codec

import (
	"context"

	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/cespare/xxhash/v2"
)

// ReadMode selects how a file is read before decoding.
type ReadMode int

const (
	// ReadText reads the file as UTF-8 text.
	ReadText ReadMode = iota
	// ReadBinary reads the file as a raw byte buffer.
	ReadBinary
)

// String returns "text" or "binary".
func (m ReadMode) String() string {
	if m == ReadBinary {
		return "binary"
	}
	return "text"
}

// Content is the raw content of one file in its declared read mode.
type Content struct {
	// Mode is the read mode the content was produced with.
	Mode ReadMode

	// Text holds the content for ReadText.
	Text string

	// Data holds the content for ReadBinary.
	Data []byte
}

// TextContent wraps text as Content.
//
// Parameters:
//   - text: the file text
//
// Returns:
//   - Content: the text content
func TextContent(text string) Content {
	return Content{Mode: ReadText, Text: text}
}

// BinaryContent wraps a byte buffer as Content.
//
// Parameters:
//   - data: the file bytes
//
// Returns:
//   - Content: the binary content
func BinaryContent(data []byte) Content {
	return Content{Mode: ReadBinary, Data: data}
}

// Bytes returns the content as bytes regardless of mode.
func (c Content) Bytes() []byte {
	if c.Mode == ReadBinary {
		return c.Data
	}
	return []byte(c.Text)
}

// String returns the content as text regardless of mode.
func (c Content) String() string {
	if c.Mode == ReadBinary {
		return string(c.Data)
	}
	return c.Text
}

// Len returns the content size in bytes.
func (c Content) Len() int {
	if c.Mode == ReadBinary {
		return len(c.Data)
	}
	return len(c.Text)
}

// Checksum returns the xxhash64 fingerprint of the content.
func (c Content) Checksum() uint64 {
	if c.Mode == ReadBinary {
		return xxhash.Sum64(c.Data)
	}
	return xxhash.Sum64String(c.Text)
}

// TextureResolver resolves texture references issued while a file is decoded.
type TextureResolver interface {
	// Resolve looks up a texture by the path a decoder found in its file.
	// A non-nil handle may still be waiting for its pixels; onLoad runs once they are set.
	//
	// Parameters:
	//   - path: the referenced path, possibly prefixed with directories
	//   - onLoad: optional callback invoked after the image has been decoded
	//
	// Returns:
	//   - *model.Texture: the texture handle, or nil when no usable file matches
	Resolve(path string, onLoad func(*model.Texture)) *model.Texture
}

// Env is the batch environment handed to decoders.
type Env interface {
	TextureResolver

	// TexturePath returns the prefix prepended to texture names by the JSON decoders.
	//
	// Returns:
	//   - string: the texture path prefix, possibly empty
	TexturePath() string

	// EmbeddedTexture creates a texture handle for image bytes carried inside the decoded file.
	// The pixels are decoded asynchronously.
	//
	// Parameters:
	//   - name: the texture name
	//   - data: the encoded image bytes
	//
	// Returns:
	//   - *model.Texture: the texture handle
	EmbeddedTexture(name string, data []byte) *model.Texture
}

// ResultKind tags the variant held by a Result.
type ResultKind int

const (
	// ResultNone means the file produced nothing to emit.
	ResultNone ResultKind = iota
	// ResultSceneReplacement replaces the current scene.
	ResultSceneReplacement
	// ResultObjectAddition adds one object to the current scene.
	ResultObjectAddition
	// ResultDocumentReplacement replaces the whole document.
	ResultDocumentReplacement
)

// String returns the variant name.
func (k ResultKind) String() string {
	switch k {
	case ResultSceneReplacement:
		return "SceneReplacement"
	case ResultObjectAddition:
		return "ObjectAddition"
	case ResultDocumentReplacement:
		return "DocumentReplacement"
	default:
		return "None"
	}
}

// Result is the outcome of decoding one logical file.
type Result struct {
	// Kind selects which of the payload fields is set.
	Kind ResultKind

	// Object is set for ResultObjectAddition.
	Object *model.Object

	// Scene is set for ResultSceneReplacement.
	Scene *model.Object

	// Snapshot is set for ResultDocumentReplacement.
	Snapshot *document.Snapshot
}

// None returns the empty result.
func None() Result { return Result{Kind: ResultNone} }

// AddObject returns an object addition result.
//
// Parameters:
//   - obj: the decoded object
//
// Returns:
//   - Result: the object addition
func AddObject(obj *model.Object) Result {
	return Result{Kind: ResultObjectAddition, Object: obj}
}

// ReplaceScene returns a scene replacement result.
//
// Parameters:
//   - scene: the decoded scene root
//
// Returns:
//   - Result: the scene replacement
func ReplaceScene(scene *model.Object) Result {
	return Result{Kind: ResultSceneReplacement, Scene: scene}
}

// ReplaceDocument returns a document replacement result.
//
// Parameters:
//   - snapshot: the application document
//
// Returns:
//   - Result: the document replacement
func ReplaceDocument(snapshot *document.Snapshot) Result {
	return Result{Kind: ResultDocumentReplacement, Snapshot: snapshot}
}

// Decoder decodes the content of one file.
type Decoder interface {
	// Decode turns raw content into a Result.
	//
	// Parameters:
	//   - ctx: the pipeline context
	//   - env: the batch environment
	//   - name: the file name
	//   - content: the file content in the format's read mode
	//
	// Returns:
	//   - Result: the decoded result
	//   - error: error if the content cannot be decoded
	Decode(ctx context.Context, env Env, name string, content Content) (Result, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, env Env, name string, content Content) (Result, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, env Env, name string, content Content) (Result, error) {
	return f(ctx, env, name, content)
}

// GeometryParser parses a file that holds a single geometry.
type GeometryParser func(content Content) (*model.Geometry, error)

// MeshDecoder wraps a geometry parser in the default mesh handling: the geometry is tagged with
// sourceType and the file name, and wrapped in a mesh named after the file with a default material.
// An empty sourceType leaves the geometry untagged.
//
// Parameters:
//   - sourceType: the format tag recorded on the geometry
//   - parse: the geometry parser
//
// Returns:
//   - Decoder: the mesh decoder
func MeshDecoder(sourceType string, parse GeometryParser) Decoder {
	return DecoderFunc(func(_ context.Context, _ Env, name string, content Content) (Result, error) {
		geometry, err := parse(content)
		if err != nil {
			return None(), err
		}
		if sourceType != "" {
			geometry.SourceType = sourceType
			geometry.SourceFile = name
		}
		return AddObject(model.NewMesh(geometry, nil, model.WithName(name))), nil
	})
}
