package codec

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// MaterialProvider supplies named materials to decoders that reference materials by name.
type MaterialProvider interface {
	// Create returns the material declared under name.
	//
	// Parameters:
	//   - name: the material name
	//
	// Returns:
	//   - *model.Material: the material, or nil when the provider has no such material
	Create(name string) *model.Material
}

// OBJDecoder decodes a Wavefront OBJ file without a material library. Every material reference
// gets a placeholder phong material carrying the referenced name.
//
// Returns:
//   - Decoder: the OBJ decoder
func OBJDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, _ Env, name string, content Content) (Result, error) {
		obj, err := ParseOBJ(content.String(), nil)
		if err != nil {
			return None(), err
		}
		obj.Name = name
		return AddObject(obj), nil
	})
}

// objState accumulates the vertex pools and the meshes of an OBJ file while it is parsed.
type objState struct {
	positions []float32
	normals   []float32
	uvs       []float32
	colors    []float32

	meshes  []*objMesh
	current *objMesh
}

// objMesh is one "o"/"g" block. Triangles are expanded into non-indexed attribute arrays.
type objMesh struct {
	name      string
	geometry  *model.Geometry
	materials []string
	hasColors bool
}

// ParseOBJ parses Wavefront OBJ text into a group holding one mesh per object or group block.
// Polygons are fan-triangulated; negative indices are relative to the end of the vertex pools.
// Each usemtl statement opens a new geometry group. When materials is non-nil it is consulted
// for every referenced name; otherwise (or when it returns nil) a placeholder phong material
// with that name is used.
//
// Parameters:
//   - text: the OBJ text
//   - materials: the material provider, or nil
//
// Returns:
//   - *model.Object: the group holding the parsed meshes
//   - error: error if a statement is malformed
func ParseOBJ(text string, materials MaterialProvider) (*model.Object, error) {
	s := &objState{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		for strings.HasSuffix(line, "\\") && scanner.Scan() {
			lineNo++
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(scanner.Text())
		}
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		keyword, args := fields[0], fields[1:]

		var err error
		switch keyword {
		case "v":
			err = s.addVertex(args)
		case "vn":
			s.normals, err = appendFloats(s.normals, args, 3)
		case "vt":
			s.uvs, err = appendFloats(s.uvs, args, 2)
		case "f":
			err = s.addFace(args)
		case "o", "g":
			s.startMesh(strings.Join(args, " "))
		case "usemtl":
			s.useMaterial(strings.Join(args, " "))
		}
		if err != nil {
			return nil, decodeError("obj", "line "+strconv.Itoa(lineNo)+": "+err.Error())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, decodeError("obj", err.Error())
	}

	group := model.NewObject(model.ObjectTypeGroup)
	for _, m := range s.meshes {
		if m.geometry.VertexCount() == 0 {
			continue
		}
		group.Add(m.build(materials))
	}
	return group, nil
}

func (s *objState) mesh() *objMesh {
	if s.current == nil {
		s.startMesh("")
	}
	return s.current
}

// startMesh begins a new block. An empty block that has not received faces is reused.
func (s *objState) startMesh(name string) {
	if s.current != nil && s.current.geometry.VertexCount() == 0 {
		s.current.name = name
		return
	}

	m := &objMesh{name: name, geometry: model.NewGeometry()}
	if s.current != nil && len(s.current.materials) > 0 {
		// Material state carries over into the new block.
		m.materials = []string{s.current.materials[len(s.current.materials)-1]}
		m.geometry.Groups = []model.GeometryGroup{{MaterialName: m.materials[0]}}
	}
	s.meshes = append(s.meshes, m)
	s.current = m
}

func (s *objState) useMaterial(name string) {
	m := s.mesh()
	start := len(m.geometry.Positions) / 3

	if n := len(m.geometry.Groups); n > 0 {
		last := &m.geometry.Groups[n-1]
		last.Count = start - last.Start
		if last.Count == 0 {
			m.geometry.Groups = m.geometry.Groups[:n-1]
		}
	}

	slot := -1
	for i, existing := range m.materials {
		if existing == name {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = len(m.materials)
		m.materials = append(m.materials, name)
	}
	m.geometry.Groups = append(m.geometry.Groups, model.GeometryGroup{Start: start, MaterialIndex: slot, MaterialName: name})
}

func (s *objState) addVertex(args []string) error {
	var err error
	if s.positions, err = appendFloats(s.positions, args, 3); err != nil {
		return err
	}
	if len(args) >= 6 {
		s.colors, err = appendFloats(s.colors, args[3:], 3)
	}
	return err
}

func (s *objState) addFace(args []string) error {
	if len(args) < 3 {
		return errMalformed("face needs at least three vertices")
	}

	type corner struct{ v, vt, vn int }
	corners := make([]corner, len(args))
	for i, arg := range args {
		parts := strings.Split(arg, "/")
		var err error
		if corners[i].v, err = objIndex(parts[0], len(s.positions)/3); err != nil {
			return err
		}
		corners[i].vt, corners[i].vn = -1, -1
		if len(parts) > 1 && parts[1] != "" {
			if corners[i].vt, err = objIndex(parts[1], len(s.uvs)/2); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if corners[i].vn, err = objIndex(parts[2], len(s.normals)/3); err != nil {
				return err
			}
		}
	}

	m := s.mesh()
	g := m.geometry
	for i := 1; i+1 < len(corners); i++ {
		for _, c := range [3]corner{corners[0], corners[i], corners[i+1]} {
			g.Positions = append(g.Positions, s.positions[c.v*3:c.v*3+3]...)
			if len(s.colors) >= (c.v+1)*3 {
				g.Colors = append(g.Colors, s.colors[c.v*3:c.v*3+3]...)
				m.hasColors = true
			}
			if c.vt >= 0 {
				g.UVs = append(g.UVs, s.uvs[c.vt*2:c.vt*2+2]...)
			}
			if c.vn >= 0 {
				g.Normals = append(g.Normals, s.normals[c.vn*3:c.vn*3+3]...)
			}
		}
	}
	return nil
}

// build closes the open group and wraps the geometry in a mesh.
func (m *objMesh) build(provider MaterialProvider) *model.Object {
	g := m.geometry
	count := g.VertexCount()

	// Attributes only present on some faces cannot be used.
	if len(g.Normals) != count*3 {
		g.Normals = nil
	}
	if len(g.UVs) != count*2 {
		g.UVs = nil
	}
	if len(g.Colors) != count*3 {
		g.Colors = nil
	}
	g.ComputeFaceNormals()

	if n := len(g.Groups); n > 0 {
		g.Groups[n-1].Count = count - g.Groups[n-1].Start
	}

	resolve := func(name string) *model.Material {
		if provider != nil {
			if mat := provider.Create(name); mat != nil {
				return mat
			}
		}
		return model.NewPhongMaterial(name)
	}

	var material *model.Material
	switch len(m.materials) {
	case 0:
		material = model.NewPhongMaterial("")
	case 1:
		material = resolve(m.materials[0])
	default:
		slots := make([]*model.Material, len(m.materials))
		for i, name := range m.materials {
			slots[i] = resolve(name)
		}
		material = model.NewMultiMaterial(slots)
	}

	if len(g.Groups) <= 1 {
		g.Groups = nil
	}
	return model.NewMesh(g, material, model.WithName(m.name))
}

// objIndex converts a 1-based (or negative, relative) OBJ index into a 0-based pool index.
func objIndex(field string, poolSize int) (int, error) {
	i, err := strconv.Atoi(field)
	if err != nil {
		return 0, errMalformed("invalid index " + strconv.Quote(field))
	}
	if i < 0 {
		i = poolSize + i
	} else {
		i--
	}
	if i < 0 || i >= poolSize {
		return 0, errMalformed("index " + field + " out of range")
	}
	return i, nil
}
