package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// STLDecoder decodes ASCII and binary STL files into a mesh tagged with source type "stl".
//
// Returns:
//   - Decoder: the STL decoder
func STLDecoder() Decoder {
	return MeshDecoder("stl", func(content Content) (*model.Geometry, error) {
		return ParseSTL(content.Bytes())
	})
}

// ParseSTL parses an STL file into a non-indexed geometry with per-face normals.
// A file is binary when its size matches the triangle count in its header; many binary exporters
// start the header with "solid", so the keyword alone does not decide.
//
// Parameters:
//   - data: the file bytes
//
// Returns:
//   - *model.Geometry: the decoded geometry
//   - error: error if the file is truncated or malformed
func ParseSTL(data []byte) (*model.Geometry, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(data)
}

func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if stlHeaderSize+4+int(count)*stlTriangleSize == len(data) {
		return true
	}

	// Text files only hold printable ASCII.
	for _, b := range data[:min(len(data), 512)] {
		if b > 127 {
			return true
		}
	}
	return !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid"))
}

func parseBinarySTL(data []byte) (*model.Geometry, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, decodeError("stl", "file too small")
	}
	count := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	if stlHeaderSize+4+count*stlTriangleSize > len(data) {
		return nil, decodeError("stl", "triangle data truncated")
	}

	g := model.NewGeometry()
	g.Positions = make([]float32, 0, count*9)
	g.Normals = make([]float32, 0, count*9)

	readVec := func(b []byte) [3]float32 {
		return [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
		}
	}

	for i := 0; i < count; i++ {
		tri := data[stlHeaderSize+4+i*stlTriangleSize:]
		normal := readVec(tri)
		for v := 0; v < 3; v++ {
			p := readVec(tri[12+v*12:])
			g.Positions = append(g.Positions, p[:]...)
			g.Normals = append(g.Normals, normal[:]...)
		}
	}
	return g, nil
}

func parseASCIISTL(data []byte) (*model.Geometry, error) {
	g := model.NewGeometry()
	var normal [3]float32
	inFacet, corners := false, 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "facet":
			if len(fields) < 5 || fields[1] != "normal" {
				return nil, decodeError("stl", "invalid facet line")
			}
			n, err := parseFloats(fields[2:5])
			if err != nil {
				return nil, decodeError("stl", err.Error())
			}
			normal = [3]float32{n[0], n[1], n[2]}
			inFacet, corners = true, 0
		case "vertex":
			if !inFacet {
				return nil, decodeError("stl", "vertex outside facet")
			}
			var err error
			if g.Positions, err = appendFloats(g.Positions, fields[1:], 3); err != nil {
				return nil, decodeError("stl", err.Error())
			}
			g.Normals = append(g.Normals, normal[:]...)
			corners++
		case "endfacet":
			if corners != 3 {
				return nil, decodeError("stl", "facet without three vertices")
			}
			inFacet = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, decodeError("stl", err.Error())
	}
	if inFacet {
		return nil, decodeError("stl", "unterminated facet")
	}
	return g, nil
}
