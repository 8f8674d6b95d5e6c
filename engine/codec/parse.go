package codec

import (
	"strconv"

	"go.trai.ch/zerr"
)

// errMalformed reports a structural problem found by a text parser. Callers wrap it with
// decodeError before returning it from a decoder.
func errMalformed(msg string) error {
	return zerr.New(msg)
}

// appendFloats parses the first n fields of args as float32 values and appends them to dst.
//
// Parameters:
//   - dst: the slice to append to
//   - args: the fields to parse
//   - n: the number of values required
//
// Returns:
//   - []float32: the extended slice
//   - error: error if fewer than n fields are present or a field is not a number
func appendFloats(dst []float32, args []string, n int) ([]float32, error) {
	if len(args) < n {
		return dst, errMalformed("expected " + strconv.Itoa(n) + " values, got " + strconv.Itoa(len(args)))
	}
	for _, arg := range args[:n] {
		f, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return dst, errMalformed("invalid number " + strconv.Quote(arg))
		}
		dst = append(dst, float32(f))
	}
	return dst, nil
}

// parseFloats parses every field as a float32.
func parseFloats(args []string) ([]float32, error) {
	return appendFloats(make([]float32, 0, len(args)), args, len(args))
}
