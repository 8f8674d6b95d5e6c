package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"go.trai.ch/zerr"
)

var (
	errInvalidGLTFVersion = zerr.New("invalid glTF version: must be 2.x")
	errInvalidGLBVersion  = zerr.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = zerr.New("GLB file missing JSON chunk")
	errInvalidDataURI     = zerr.New("invalid data URI")
	errBufferSizeMismatch = zerr.New("buffer size mismatch")
	errExternalBuffer     = zerr.New("external buffers are not supported")
)

// gltfParser holds a parsed glTF document and reads typed data out of its buffers.
type gltfParser struct {
	document *gltfDocument
	binChunk []byte
}

// parseGLTF parses glTF JSON or a GLB container. The container is detected by its magic number,
// so .gltf files holding GLB bytes and the reverse are both accepted.
//
// Parameters:
//   - data: the file bytes
//
// Returns:
//   - *gltfParser: the parser holding the loaded document
//   - error: error if the data is not a valid glTF 2.0 asset
func parseGLTF(data []byte) (*gltfParser, error) {
	p := &gltfParser{}

	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic {
		jsonChunk, err := p.splitGLB(data)
		if err != nil {
			return nil, err
		}
		data = jsonChunk
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, "failed to parse glTF JSON")
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}

	p.document = &doc
	if err := p.loadBuffers(); err != nil {
		return nil, zerr.Wrap(err, "failed to load buffers")
	}
	return p, nil
}

// splitGLB reads the GLB chunks, keeps the BIN chunk and returns the JSON chunk.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParser) splitGLB(data []byte) ([]byte, error) {
	if len(data) < 12 {
		return nil, zerr.New("GLB file too small")
	}

	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, zerr.Wrap(err, "failed to read GLB header")
	}
	if header.Version != gltfGLBVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonChunk []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, zerr.Wrap(err, "failed to read chunk header")
		}

		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, zerr.Wrap(err, "failed to read chunk data")
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonChunk = body
		case gltfGLBChunkBIN:
			p.binChunk = body
		}
	}

	if jsonChunk == nil {
		return nil, errMissingJSONChunk
	}
	return jsonChunk, nil
}

// loadBuffers fills every buffer from the GLB binary chunk or an embedded data URI.
// An imported file arrives without its directory, so buffers stored in sibling files cannot be read.
func (p *gltfParser) loadBuffers() error {
	for i := range p.document.Buffers {
		buf := &p.document.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.binChunk != nil:
			buf.Data = p.binChunk
		case strings.HasPrefix(buf.URI, "data:"):
			data, _, err := decodeDataURI(buf.URI)
			if err != nil {
				return zerr.With(err, "buffer", i)
			}
			buf.Data = data
		case buf.URI == "":
			return zerr.With(zerr.New("buffer has no URI and no GLB binary chunk"), "buffer", i)
		default:
			return zerr.With(zerr.With(errExternalBuffer, "buffer", i), "uri", buf.URI)
		}

		if len(buf.Data) < buf.ByteLength {
			return zerr.With(errBufferSizeMismatch, "buffer", i)
		}
	}
	return nil
}

// decodeDataURI decodes a base64 data URI and returns its bytes and media type.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, string, error) {
	comma := strings.Index(uri, ",")
	if !strings.HasPrefix(uri, "data:") || comma < 0 {
		return nil, "", errInvalidDataURI
	}

	header := uri[len("data:"):comma]
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", zerr.With(zerr.New("unsupported data URI encoding"), "header", header)
	}

	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to decode base64")
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}

// bufferView returns a copy of the bytes covered by a buffer view, as used by embedded images.
func (p *gltfParser) bufferView(index int) ([]byte, error) {
	doc := p.document
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", index)
	}

	bv := &doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}

	buf := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if end > len(buf) {
		return nil, fmt.Errorf("bufferView %d exceeds buffer bounds", index)
	}
	return bytes.Clone(buf[bv.ByteOffset:end]), nil
}

// accessorElements returns the accessor and its element bytes packed without stride.
func (p *gltfParser) accessorElements(index int) (*gltfAccessor, []byte, error) {
	doc := p.document
	if index < 0 || index >= len(doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", index)
	}

	acc := &doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, nil, fmt.Errorf("accessor %d: sparse accessors are not supported", index)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("accessor %d has no bufferView", index)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("accessor %d: buffer index %d out of range", index, bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].Data

	elementSize := gltfComponentSize(acc.ComponentType) * gltfAccessorComponents[acc.Type]
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", index, acc.Type, acc.ComponentType)
	}

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && base+(acc.Count-1)*stride+elementSize > len(buf) {
		return nil, nil, fmt.Errorf("accessor %d exceeds buffer bounds", index)
	}

	out := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		src := base + i*stride
		copy(out[i*elementSize:(i+1)*elementSize], buf[src:src+elementSize])
	}
	return acc, out, nil
}

// readFloats reads an accessor as packed float32 components. Integer components are converted
// to their normalized range when the accessor is normalized or normalize is set.
//
// Parameters:
//   - index: the accessor index
//   - components: the required component count per element
//   - normalize: force normalization of integer components
//
// Returns:
//   - []float32: the packed components
//   - error: error if the accessor cannot be read
func (p *gltfParser) readFloats(index, components int, normalize bool) ([]float32, error) {
	acc, data, err := p.accessorElements(index)
	if err != nil {
		return nil, err
	}
	if gltfAccessorComponents[acc.Type] != components {
		return nil, fmt.Errorf("accessor %d: expected %d components, got %s", index, components, acc.Type)
	}

	normalize = normalize || acc.Normalized
	size := gltfComponentSize(acc.ComponentType)
	out := make([]float32, len(data)/size)
	for i := range out {
		raw := data[i*size : (i+1)*size]
		switch acc.ComponentType {
		case gltfComponentTypeFloat:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw))
		case gltfComponentTypeUnsignedByte:
			out[i] = gltfScale(float32(raw[0]), 255, normalize)
		case gltfComponentTypeByte:
			out[i] = gltfScale(float32(int8(raw[0])), 127, normalize)
		case gltfComponentTypeUnsignedShort:
			out[i] = gltfScale(float32(binary.LittleEndian.Uint16(raw)), 65535, normalize)
		case gltfComponentTypeShort:
			out[i] = gltfScale(float32(int16(binary.LittleEndian.Uint16(raw))), 32767, normalize)
		case gltfComponentTypeUnsignedInt:
			out[i] = float32(binary.LittleEndian.Uint32(raw))
		}
	}
	return out, nil
}

// readUints reads an accessor of unsigned integer components (indices, joints) as uint32.
func (p *gltfParser) readUints(index int) ([]uint32, error) {
	acc, data, err := p.accessorElements(index)
	if err != nil {
		return nil, err
	}

	size := gltfComponentSize(acc.ComponentType)
	out := make([]uint32, len(data)/size)
	for i := range out {
		raw := data[i*size : (i+1)*size]
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			out[i] = uint32(raw[0])
		case gltfComponentTypeUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(raw))
		case gltfComponentTypeUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(raw)
		default:
			return nil, fmt.Errorf("accessor %d: unsupported integer component type %d", index, acc.ComponentType)
		}
	}
	return out, nil
}

// gltfScale converts an integer component to float, dividing by limit when normalizing.
func gltfScale(v, limit float32, normalize bool) float32 {
	if !normalize {
		return v
	}
	return max(v/limit, -1)
}

// gltfComponentSize returns the byte size of a component type.
func gltfComponentSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}
