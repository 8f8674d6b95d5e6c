package loader

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// ByteSource supplies the bytes of an input file. Open may be called more than once, for
// example when a file is both a texture and part of the batch dispatch.
type ByteSource interface {
	// Open returns a fresh reader over the file bytes.
	//
	// Returns:
	//   - io.ReadCloser: the reader, closed by the caller
	//   - error: error if the bytes cannot be accessed
	Open() (io.ReadCloser, error)

	// Size returns the number of bytes, or -1 when unknown.
	//
	// Returns:
	//   - int64: the size in bytes
	Size() int64
}

// InputFile is one caller-supplied file of a batch.
type InputFile struct {
	// Name is the file name, including its extension.
	Name string

	// Type is the declared MIME-like content type, for example "image/png".
	Type string

	// Source supplies the file bytes.
	Source ByteSource
}

// Ext returns the lowercased substring after the last dot of the name, or "" when the name has
// no dot.
func (f InputFile) Ext() string {
	return extension(f.Name)
}

// IsImage reports whether the declared type names an image.
func (f InputFile) IsImage() bool {
	return strings.Contains(strings.ToLower(f.Type), "image")
}

func extension(name string) string {
	_, ext := common.SplitName(name)
	return ext
}

type bytesSource struct {
	data []byte
}

// BytesSource serves an in-memory buffer.
//
// Parameters:
//   - data: the file bytes
//
// Returns:
//   - ByteSource: the source
func BytesSource(data []byte) ByteSource {
	return &bytesSource{data: data}
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *bytesSource) Size() int64 {
	return int64(len(s.data))
}

type fileSource struct {
	path string
}

// FileSource serves a file on disk. The file is opened lazily on every Open.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - ByteSource: the source
func FileSource(path string) ByteSource {
	return &fileSource{path: path}
}

func (s *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s *fileSource) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return -1
	}
	return info.Size()
}
