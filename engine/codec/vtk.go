package codec

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// VTKDecoder decodes legacy ASCII VTK POLYDATA files into a mesh tagged with source type "vtk".
//
// Returns:
//   - Decoder: the VTK decoder
func VTKDecoder() Decoder {
	return MeshDecoder("vtk", func(content Content) (*model.Geometry, error) {
		return ParseVTK(content.String())
	})
}

// vtkScanner walks the whitespace separated tokens of a VTK body.
type vtkScanner struct {
	tokens []string
	pos    int
}

func (s *vtkScanner) done() bool { return s.pos >= len(s.tokens) }

func (s *vtkScanner) word() (string, error) {
	if s.done() {
		return "", errMalformed("unexpected end of file")
	}
	s.pos++
	return s.tokens[s.pos-1], nil
}

func (s *vtkScanner) count() (int, error) {
	w, err := s.word()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil || n < 0 {
		return 0, errMalformed("invalid count " + strconv.Quote(w))
	}
	return n, nil
}

func (s *vtkScanner) floats(n int) ([]float32, error) {
	if n < 0 {
		return nil, errMalformed("point data before POINTS")
	}
	if s.pos+n > len(s.tokens) {
		return nil, errMalformed("unexpected end of file")
	}
	out, err := parseFloats(s.tokens[s.pos : s.pos+n])
	s.pos += n
	return out, err
}

// ParseVTK parses a legacy ASCII VTK POLYDATA file. POLYGONS are fan-triangulated and
// TRIANGLE_STRIPS are unrolled with alternating winding. POINT_DATA normals, colors and texture
// coordinates are kept when they cover every point.
//
// Parameters:
//   - text: the VTK text
//
// Returns:
//   - *model.Geometry: the decoded geometry
//   - error: error if the file is not ASCII POLYDATA or is malformed
func ParseVTK(text string) (*model.Geometry, error) {
	lines := strings.SplitN(text, "\n", 4)
	if len(lines) < 4 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "# vtk DataFile") {
		return nil, decodeError("vtk", "missing vtk header")
	}
	if strings.ToUpper(strings.TrimSpace(lines[2])) != "ASCII" {
		return nil, decodeError("vtk", "only ASCII files are supported")
	}

	g, err := parseVTKBody(&vtkScanner{tokens: strings.Fields(lines[3])})
	if err != nil {
		return nil, decodeError("vtk", err.Error())
	}
	return g, nil
}

func parseVTKBody(s *vtkScanner) (*model.Geometry, error) {
	g := model.NewGeometry()
	points := -1

	for !s.done() {
		keyword, _ := s.word()
		switch strings.ToUpper(keyword) {
		case "DATASET":
			kind, err := s.word()
			if err != nil {
				return nil, err
			}
			if strings.ToUpper(kind) != "POLYDATA" {
				return nil, errMalformed("unsupported dataset " + strconv.Quote(kind))
			}
		case "POINTS":
			n, err := s.count()
			if err != nil {
				return nil, err
			}
			if _, err := s.word(); err != nil {
				return nil, err
			}
			if g.Positions, err = s.floats(n * 3); err != nil {
				return nil, err
			}
			points = n
		case "POLYGONS", "TRIANGLE_STRIPS":
			cells, err := s.count()
			if err != nil {
				return nil, err
			}
			if _, err := s.count(); err != nil {
				return nil, err
			}
			for c := 0; c < cells; c++ {
				k, err := s.count()
				if err != nil {
					return nil, err
				}
				ids := make([]uint32, k)
				for i := range ids {
					v, err := s.count()
					if err != nil {
						return nil, err
					}
					if v >= points {
						return nil, errMalformed("point index " + strconv.Itoa(v) + " out of range")
					}
					ids[i] = uint32(v)
				}
				g.Indices = appendVTKCell(g.Indices, ids, strings.ToUpper(keyword) == "TRIANGLE_STRIPS")
			}
		case "POINT_DATA":
			if _, err := s.count(); err != nil {
				return nil, err
			}
		case "NORMALS":
			if _, err := s.word(); err != nil {
				return nil, err
			}
			if _, err := s.word(); err != nil {
				return nil, err
			}
			normals, err := s.floats(points * 3)
			if err != nil {
				return nil, err
			}
			g.Normals = normals
		case "TEXTURE_COORDINATES":
			if _, err := s.word(); err != nil {
				return nil, err
			}
			dim, err := s.count()
			if err != nil {
				return nil, err
			}
			if _, err := s.word(); err != nil {
				return nil, err
			}
			coords, err := s.floats(points * dim)
			if err != nil {
				return nil, err
			}
			if dim >= 2 {
				for i := 0; i < points; i++ {
					g.UVs = append(g.UVs, coords[i*dim], coords[i*dim+1])
				}
			}
		case "COLOR_SCALARS":
			if _, err := s.word(); err != nil {
				return nil, err
			}
			dim, err := s.count()
			if err != nil {
				return nil, err
			}
			colors, err := s.floats(points * dim)
			if err != nil {
				return nil, err
			}
			if dim >= 3 {
				for i := 0; i < points; i++ {
					g.Colors = append(g.Colors, colors[i*dim], colors[i*dim+1], colors[i*dim+2])
				}
			}
		}
	}

	if points < 0 {
		return nil, errMalformed("missing POINTS section")
	}
	return g, nil
}

// appendVTKCell triangulates one polygon or triangle strip cell.
func appendVTKCell(dst []uint32, ids []uint32, strip bool) []uint32 {
	if strip {
		for i := 0; i+2 < len(ids); i++ {
			if i%2 == 0 {
				dst = append(dst, ids[i], ids[i+1], ids[i+2])
			} else {
				dst = append(dst, ids[i], ids[i+2], ids[i+1])
			}
		}
		return dst
	}
	for i := 1; i+1 < len(ids); i++ {
		dst = append(dst, ids[0], ids[i], ids[i+1])
	}
	return dst
}
