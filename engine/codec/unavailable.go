package codec

import "context"

// Unavailable returns a decoder for a recognized format whose decoder is supplied by the embedding
// application. Until one is registered every file of the format fails with ErrDecodeFailure.
//
// Parameters:
//   - format: the format name reported in the error
//
// Returns:
//   - Decoder: the failing decoder
func Unavailable(format string) Decoder {
	return DecoderFunc(func(context.Context, Env, string, Content) (Result, error) {
		return None(), decodeError(format, "decoder unavailable")
	})
}
