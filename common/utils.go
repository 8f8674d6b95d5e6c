package common

import "strings"

// Coalesce picks the first value that is not the zero value of its type. Decoders use it to
// fall back from optional names and identifiers to generated ones.
//
// Parameters:
//   - values: the candidates, in order of preference
//
// Returns:
//   - T: the first non-zero candidate, or the zero value when every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// SplitName splits a file name at its last dot. The extension is lowercased and excludes the dot;
// a name without a dot has an empty extension.
//
// Parameters:
//   - name: the file name
//
// Returns:
//   - string: the name without its extension
//   - string: the lowercased extension, or ""
func SplitName(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.ToLower(name[i+1:])
}
