package loader

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/codec"

	"go.trai.ch/zerr"
)

var (
	// ErrUnrecognizedFormat is reported for files whose extension has no registry entry.
	ErrUnrecognizedFormat = zerr.New("unrecognized format")

	// ErrUnsupportedContentType is reported when a texture lookup matches a file that is not an image.
	ErrUnsupportedContentType = zerr.New("unsupported content type")

	// ErrMissingCompanion is reported when an OBJ file has no material library in its batch.
	// The file is still imported with default materials.
	ErrMissingCompanion = zerr.New("missing companion file")

	// ErrReadFailure is returned when the bytes of a file cannot be read.
	ErrReadFailure = zerr.New("read failure")

	// ErrMalformedDocument is returned when a JSON-bearing file cannot be parsed.
	ErrMalformedDocument = codec.ErrMalformedDocument

	// ErrDecodeFailure is returned when a format decoder rejects its input.
	ErrDecodeFailure = codec.ErrDecodeFailure
)
