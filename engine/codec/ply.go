package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// PLYDecoder decodes Stanford PLY files (ascii, binary_little_endian, binary_big_endian) into a
// mesh tagged with source type "ply".
//
// Returns:
//   - Decoder: the PLY decoder
func PLYDecoder() Decoder {
	return MeshDecoder("ply", func(content Content) (*model.Geometry, error) {
		return ParsePLY(content.Bytes())
	})
}

// plyProperty is one property of a PLY element. List properties carry a count type.
type plyProperty struct {
	name      string
	valueType string
	countType string
}

func (p plyProperty) isList() bool { return p.countType != "" }

// plyElement is an element declaration and its properties.
type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

// plyHeader is the parsed PLY header.
type plyHeader struct {
	format   string
	elements []plyElement
	size     int
}

// plyReader yields scalar values from the body, whatever its encoding.
type plyReader interface {
	next(valueType string) (float64, error)

	// remaining is the number of values of valueType left in the body.
	remaining(valueType string) int
}

// ParsePLY parses a PLY file into an indexed geometry. Vertex positions, normals, texture
// coordinates and colors are read from the vertex element; faces are fan-triangulated.
//
// Parameters:
//   - data: the file bytes
//
// Returns:
//   - *model.Geometry: the decoded geometry
//   - error: error if the header or body is malformed
func ParsePLY(data []byte) (*model.Geometry, error) {
	header, err := parsePLYHeader(data)
	if err != nil {
		return nil, decodeError("ply", err.Error())
	}

	body := data[header.size:]
	var r plyReader
	switch header.format {
	case "ascii":
		r = &plyASCIIReader{fields: strings.Fields(string(body))}
	case "binary_little_endian":
		r = &plyBinaryReader{data: body, order: binary.LittleEndian}
	case "binary_big_endian":
		r = &plyBinaryReader{data: body, order: binary.BigEndian}
	default:
		return nil, decodeError("ply", "unsupported format "+strconv.Quote(header.format))
	}

	g := model.NewGeometry()
	for _, el := range header.elements {
		for i := 0; i < el.count; i++ {
			if err := readPLYElement(r, el, g); err != nil {
				return nil, decodeError("ply", el.name+" "+strconv.Itoa(i)+": "+err.Error())
			}
		}
	}

	n := g.VertexCount()
	for _, idx := range g.Indices {
		if int(idx) >= n {
			return nil, decodeError("ply", "face index "+strconv.Itoa(int(idx))+" out of range")
		}
	}
	if len(g.Normals) != n*3 {
		g.Normals = nil
	}
	if len(g.UVs) != n*2 {
		g.UVs = nil
	}
	if len(g.Colors) != n*3 {
		g.Colors = nil
	}
	return g, nil
}

func parsePLYHeader(data []byte) (*plyHeader, error) {
	end := bytes.Index(data, []byte("end_header"))
	if !bytes.HasPrefix(data, []byte("ply")) || end < 0 {
		return nil, errMalformed("missing ply header")
	}

	h := &plyHeader{size: end + len("end_header")}
	// The body starts after the line break ending end_header.
	if h.size < len(data) && data[h.size] == '\r' {
		h.size++
	}
	if h.size < len(data) && data[h.size] == '\n' {
		h.size++
	}

	for _, line := range strings.Split(string(data[:end]), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, errMalformed("invalid format line")
			}
			h.format = fields[1]
		case "element":
			if len(fields) < 3 {
				return nil, errMalformed("invalid element line")
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, errMalformed("invalid element count " + strconv.Quote(fields[2]))
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: count})
		case "property":
			if len(h.elements) == 0 {
				return nil, errMalformed("property before element")
			}
			el := &h.elements[len(h.elements)-1]
			switch {
			case len(fields) == 5 && fields[1] == "list":
				el.properties = append(el.properties, plyProperty{name: fields[4], countType: fields[2], valueType: fields[3]})
			case len(fields) == 3:
				el.properties = append(el.properties, plyProperty{name: fields[2], valueType: fields[1]})
			default:
				return nil, errMalformed("invalid property line " + strconv.Quote(strings.TrimSpace(line)))
			}
		}
	}

	if h.format == "" {
		return nil, errMalformed("missing format line")
	}
	return h, nil
}

// readPLYElement reads one element instance and appends the attributes it carries to g.
func readPLYElement(r plyReader, el plyElement, g *model.Geometry) error {
	values := make(map[string]float64, len(el.properties))
	var faceIndices []uint32

	for _, p := range el.properties {
		if !p.isList() {
			v, err := r.next(p.valueType)
			if err != nil {
				return err
			}
			values[p.name] = v
			continue
		}

		n, err := r.next(p.countType)
		if err != nil {
			return err
		}
		if n < 0 || n != math.Trunc(n) {
			return errMalformed("invalid list length " + strconv.FormatFloat(n, 'g', -1, 64))
		}
		if n > float64(r.remaining(p.valueType)) {
			return errMalformed("list length " + strconv.FormatFloat(n, 'g', -1, 64) + " exceeds the remaining data")
		}
		list := make([]uint32, int(n))
		for i := range list {
			v, err := r.next(p.valueType)
			if err != nil {
				return err
			}
			list[i] = uint32(v)
		}
		if el.name == "face" && (p.name == "vertex_indices" || p.name == "vertex_index") {
			faceIndices = list
		}
	}

	switch el.name {
	case "vertex":
		g.Positions = append(g.Positions, float32(values["x"]), float32(values["y"]), float32(values["z"]))
		if nx, ok := values["nx"]; ok {
			g.Normals = append(g.Normals, float32(nx), float32(values["ny"]), float32(values["nz"]))
		}
		for _, uv := range [][2]string{{"s", "t"}, {"u", "v"}, {"texture_u", "texture_v"}} {
			if u, ok := values[uv[0]]; ok {
				g.UVs = append(g.UVs, float32(u), float32(values[uv[1]]))
				break
			}
		}
		if red, ok := values["red"]; ok {
			g.Colors = append(g.Colors, float32(red/255), float32(values["green"]/255), float32(values["blue"]/255))
		}
	case "face":
		for i := 1; i+1 < len(faceIndices); i++ {
			g.Indices = append(g.Indices, faceIndices[0], faceIndices[i], faceIndices[i+1])
		}
	}
	return nil
}

type plyASCIIReader struct {
	fields []string
	pos    int
}

func (r *plyASCIIReader) next(string) (float64, error) {
	if r.pos >= len(r.fields) {
		return 0, errMalformed("unexpected end of data")
	}
	v, err := strconv.ParseFloat(r.fields[r.pos], 64)
	if err != nil {
		return 0, errMalformed("invalid number " + strconv.Quote(r.fields[r.pos]))
	}
	r.pos++
	return v, nil
}

func (r *plyASCIIReader) remaining(string) int {
	return len(r.fields) - r.pos
}

type plyBinaryReader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

func (r *plyBinaryReader) next(valueType string) (float64, error) {
	size := plyTypeSize(valueType)
	if size == 0 {
		return 0, errMalformed("unknown property type " + strconv.Quote(valueType))
	}
	if r.pos+size > len(r.data) {
		return 0, errMalformed("unexpected end of data")
	}
	b := r.data[r.pos : r.pos+size]
	r.pos += size

	switch valueType {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	default:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
}

func (r *plyBinaryReader) remaining(valueType string) int {
	size := plyTypeSize(valueType)
	if size == 0 {
		return 0
	}
	return (len(r.data) - r.pos) / size
}

func plyTypeSize(valueType string) int {
	switch valueType {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "float", "int32", "uint32", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}
