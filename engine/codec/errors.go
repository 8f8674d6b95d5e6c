package codec

import "go.trai.ch/zerr"

var (
	// ErrMalformedDocument is returned when a JSON-bearing file cannot be parsed.
	ErrMalformedDocument = zerr.New("malformed document")

	// ErrDecodeFailure is returned when a format decoder rejects its input.
	ErrDecodeFailure = zerr.New("decode failure")
)

// decodeError wraps a parser failure as ErrDecodeFailure with the format attached.
func decodeError(format, detail string) error {
	return zerr.With(zerr.Wrap(ErrDecodeFailure, detail), "format", format)
}
