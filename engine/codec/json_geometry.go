package codec

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// jsonAttribute is a typed array of a buffer geometry.
type jsonAttribute struct {
	ItemSize   int       `json:"itemSize"`
	Type       string    `json:"type"`
	Array      []float64 `json:"array"`
	Normalized bool      `json:"normalized"`
}

// jsonBufferGeometry is the buffer-backed geometry document.
type jsonBufferGeometry struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Data struct {
		Attributes map[string]jsonAttribute `json:"attributes"`
		Index      *jsonAttribute           `json:"index"`
		Groups     []struct {
			Start         int `json:"start"`
			Count         int `json:"count"`
			MaterialIndex int `json:"materialIndex"`
		} `json:"groups"`
	} `json:"data"`
}

// jsonLegacyMaterial is a material of the legacy geometry format.
type jsonLegacyMaterial struct {
	DbgName       string      `json:"DbgName"`
	Shading       string      `json:"shading"`
	ColorDiffuse  *[3]float32 `json:"colorDiffuse"`
	ColorSpecular *[3]float32 `json:"colorSpecular"`
	ColorEmissive *[3]float32 `json:"colorEmissive"`
	SpecularCoef  *float32    `json:"specularCoef"`
	Transparency  *float32    `json:"transparency"`
	Opacity       *float32    `json:"opacity"`
	Transparent   bool        `json:"transparent"`
	MapDiffuse    string      `json:"mapDiffuse"`
	MapNormal     string      `json:"mapNormal"`
	MapBump       string      `json:"mapBump"`
	MapSpecular   string      `json:"mapSpecular"`
}

// jsonLegacyKey is one keyframe of a legacy animation hierarchy entry.
type jsonLegacyKey struct {
	Time float32     `json:"time"`
	Pos  *[3]float32 `json:"pos"`
	Rot  *[4]float32 `json:"rot"`
	Scl  *[3]float32 `json:"scl"`
}

// jsonLegacyAnimation is a legacy skeletal animation; hierarchy holds one entry per bone.
type jsonLegacyAnimation struct {
	Name      string  `json:"name"`
	FPS       float32 `json:"fps"`
	Length    float32 `json:"length"`
	Hierarchy []struct {
		Parent int             `json:"parent"`
		Keys   []jsonLegacyKey `json:"keys"`
	} `json:"hierarchy"`
}

// jsonLegacyGeometry is the indexed geometry format with bit-packed faces.
type jsonLegacyGeometry struct {
	Scale        *float32             `json:"scale"`
	Materials    []jsonLegacyMaterial `json:"materials"`
	Vertices     []float32            `json:"vertices"`
	Normals      []float32            `json:"normals"`
	Colors       []uint32             `json:"colors"`
	UVs          [][]float32          `json:"uvs"`
	Faces        []int                `json:"faces"`
	MorphTargets []struct {
		Name     string    `json:"name"`
		Vertices []float32 `json:"vertices"`
	} `json:"morphTargets"`
	Bones []struct {
		Parent int32       `json:"parent"`
		Name   string      `json:"name"`
		Pos    [3]float32  `json:"pos"`
		RotQ   *[4]float32 `json:"rotq"`
		Scl    *[3]float32 `json:"scl"`
	} `json:"bones"`
	SkinIndices         []float32             `json:"skinIndices"`
	SkinWeights         []float32             `json:"skinWeights"`
	InfluencesPerVertex int                   `json:"influencesPerVertex"`
	Animation           *jsonLegacyAnimation  `json:"animation"`
	Animations          []jsonLegacyAnimation `json:"animations"`
}

// Face type bits of the legacy geometry format.
const (
	legacyFaceQuad         = 1 << 0
	legacyFaceMaterial     = 1 << 1
	legacyFaceVertexUV     = 1 << 3
	legacyFaceNormal       = 1 << 4
	legacyFaceVertexNormal = 1 << 5
	legacyFaceColor        = 1 << 6
	legacyFaceVertexColor  = 1 << 7
)

const (
	legacyMaxInfluences     = 4
	legacyDefaultInfluences = 2
)

// BufferGeometryDecoder decodes a buffer geometry document into a mesh with the default material.
//
// Returns:
//   - Decoder: the buffer geometry decoder
func BufferGeometryDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, _ Env, _ string, content Content) (Result, error) {
		var doc jsonBufferGeometry
		if err := json.Unmarshal(content.Bytes(), &doc); err != nil {
			return None(), decodeError("buffergeometry", err.Error())
		}
		g, err := buildBufferGeometry(&doc)
		if err != nil {
			return None(), decodeError("buffergeometry", err.Error())
		}
		return AddObject(model.NewMesh(g, nil)), nil
	})
}

// LegacyGeometryDecoder decodes a legacy indexed geometry document. Embedded materials are
// combined into a multi-slot material when there are several; a single material is used as is;
// without materials the default material applies. Geometry carrying an animation hierarchy is
// wrapped in a skinned mesh. Texture maps resolve as TexturePath + map name.
//
// Returns:
//   - Decoder: the legacy geometry decoder
func LegacyGeometryDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, env Env, name string, content Content) (Result, error) {
		raw := content.Bytes()
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return None(), decodeError("geometry", err.Error())
		}
		// Geometry embedded in newer exports lives under "data".
		if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
			raw = envelope.Data
		}

		var doc jsonLegacyGeometry
		if err := json.Unmarshal(raw, &doc); err != nil {
			return None(), decodeError("geometry", err.Error())
		}
		g, err := buildLegacyGeometry(&doc)
		if err != nil {
			return None(), decodeError("geometry", err.Error())
		}
		g.SourceType = "ascii"
		g.SourceFile = name

		var material *model.Material
		switch len(doc.Materials) {
		case 0:
			material = model.NewStandardMaterial()
		case 1:
			material = legacyMaterial(&doc.Materials[0], env)
		default:
			slots := make([]*model.Material, len(doc.Materials))
			for i := range doc.Materials {
				slots[i] = legacyMaterial(&doc.Materials[i], env)
			}
			material = model.NewMultiMaterial(slots)
		}

		if g.Animation.HasHierarchy() {
			return AddObject(model.NewSkinnedMesh(g, material, model.WithName(name))), nil
		}
		return AddObject(model.NewMesh(g, material, model.WithName(name))), nil
	})
}

// buildBufferGeometry copies the typed arrays of a buffer geometry document into a geometry.
func buildBufferGeometry(doc *jsonBufferGeometry) (*model.Geometry, error) {
	position, ok := doc.Data.Attributes["position"]
	if !ok {
		return nil, errMalformed("buffer geometry has no position attribute")
	}

	g := model.NewGeometry()
	g.UUID = common.Coalesce(doc.UUID, g.UUID)
	g.Name = doc.Name

	var err error
	if g.Positions, err = jsonFloats("position", position, 3); err != nil {
		return nil, err
	}
	n := g.VertexCount()

	if a, ok := doc.Data.Attributes["normal"]; ok {
		if g.Normals, err = jsonFloats("normal", a, 3); err != nil {
			return nil, err
		}
	}
	if a, ok := doc.Data.Attributes["uv"]; ok {
		if g.UVs, err = jsonFloats("uv", a, 2); err != nil {
			return nil, err
		}
	}
	if a, ok := doc.Data.Attributes["color"]; ok {
		if g.Colors, err = jsonFloats("color", a, 3); err != nil {
			return nil, err
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

	if doc.Data.Index != nil {
		g.Indices = make([]uint32, len(doc.Data.Index.Array))
		for i, v := range doc.Data.Index.Array {
			if v < 0 || int(v) >= n {
				return nil, errMalformed("index " + strconv.Itoa(int(v)) + " out of range")
			}
			g.Indices[i] = uint32(v)
		}
	}
	for _, group := range doc.Data.Groups {
		g.AddGroup(group.Start, group.Count, group.MaterialIndex)
	}
	return g, nil
}

func jsonFloats(name string, a jsonAttribute, itemSize int) ([]float32, error) {
	if a.ItemSize != 0 && a.ItemSize != itemSize {
		return nil, errMalformed(name + " attribute has item size " + strconv.Itoa(a.ItemSize))
	}
	if len(a.Array)%itemSize != 0 {
		return nil, errMalformed(name + " attribute length is not a multiple of its item size")
	}
	out := make([]float32, len(a.Array))
	for i, v := range a.Array {
		out[i] = float32(v)
	}
	return out, nil
}

// buildLegacyGeometry expands the bit-packed faces into non-indexed triangles, one geometry group
// per run of faces sharing a material index.
func buildLegacyGeometry(doc *jsonLegacyGeometry) (*model.Geometry, error) {
	scale := float32(1)
	if doc.Scale != nil && *doc.Scale != 0 {
		scale = 1 / *doc.Scale
	}
	influences := doc.InfluencesPerVertex
	if influences <= 0 {
		influences = legacyDefaultInfluences
	}
	vertexCount := len(doc.Vertices) / 3
	skinned := len(doc.SkinIndices) >= vertexCount*influences && len(doc.SkinWeights) >= vertexCount*influences && len(doc.Bones) > 0

	g := model.NewGeometry()
	g.MorphTargets = make([][]float32, len(doc.MorphTargets))

	emit := func(v int, uv [][2]float32, corner int, normal, color int) {
		g.Positions = append(g.Positions, doc.Vertices[v*3]*scale, doc.Vertices[v*3+1]*scale, doc.Vertices[v*3+2]*scale)
		if len(uv) > 0 {
			g.UVs = append(g.UVs, uv[corner][0], uv[corner][1])
		}
		if normal >= 0 {
			g.Normals = append(g.Normals, doc.Normals[normal*3:normal*3+3]...)
		}
		if color >= 0 {
			c := hexColor(doc.Colors[color])
			g.Colors = append(g.Colors, c[:]...)
		}
		for t, target := range doc.MorphTargets {
			if len(target.Vertices) >= (v+1)*3 {
				g.MorphTargets[t] = append(g.MorphTargets[t], target.Vertices[v*3]*scale, target.Vertices[v*3+1]*scale, target.Vertices[v*3+2]*scale)
			}
		}
		if skinned {
			for k := 0; k < legacyMaxInfluences; k++ {
				if k < influences {
					g.SkinIndices = append(g.SkinIndices, uint32(doc.SkinIndices[v*influences+k]))
					g.SkinWeights = append(g.SkinWeights, doc.SkinWeights[v*influences+k])
					continue
				}
				g.SkinIndices = append(g.SkinIndices, 0)
				g.SkinWeights = append(g.SkinWeights, 0)
			}
		}
	}

	faces := doc.Faces
	read := func(offset int) (int, error) {
		if offset >= len(faces) {
			return 0, errMalformed("face data truncated")
		}
		return faces[offset], nil
	}

	currentMaterial := -1
	for offset := 0; offset < len(faces); {
		kind := faces[offset]
		offset++

		corners := 3
		if kind&legacyFaceQuad != 0 {
			corners = 4
		}

		verts := make([]int, corners)
		for i := range verts {
			v, err := read(offset)
			if err != nil {
				return nil, err
			}
			if v < 0 || v >= vertexCount {
				return nil, errMalformed("vertex index " + strconv.Itoa(v) + " out of range")
			}
			verts[i] = v
			offset++
		}

		material := 0
		if kind&legacyFaceMaterial != 0 {
			m, err := read(offset)
			if err != nil {
				return nil, err
			}
			material = m
			offset++
		}

		var uvs [][2]float32
		if kind&legacyFaceVertexUV != 0 {
			for layer := range doc.UVs {
				for i := 0; i < corners; i++ {
					idx, err := read(offset)
					if err != nil {
						return nil, err
					}
					offset++
					if layer != 0 {
						continue
					}
					if idx < 0 || (idx+1)*2 > len(doc.UVs[0]) {
						return nil, errMalformed("uv index out of range")
					}
					uvs = append(uvs, [2]float32{doc.UVs[0][idx*2], doc.UVs[0][idx*2+1]})
				}
			}
		}

		normals := make([]int, corners)
		colors := make([]int, corners)
		for i := range normals {
			normals[i], colors[i] = -1, -1
		}
		for _, attr := range []struct {
			bit, count int
			dst        []int
			limit      int
		}{
			{legacyFaceNormal, 1, normals, len(doc.Normals) / 3},
			{legacyFaceVertexNormal, corners, normals, len(doc.Normals) / 3},
			{legacyFaceColor, 1, colors, len(doc.Colors)},
			{legacyFaceVertexColor, corners, colors, len(doc.Colors)},
		} {
			if kind&attr.bit == 0 {
				continue
			}
			for i := 0; i < attr.count; i++ {
				idx, err := read(offset)
				if err != nil {
					return nil, err
				}
				offset++
				if idx < 0 || idx >= attr.limit {
					return nil, errMalformed("attribute index out of range")
				}
				if attr.count == 1 {
					for c := range attr.dst {
						attr.dst[c] = idx
					}
					continue
				}
				attr.dst[i] = idx
			}
		}

		if material != currentMaterial {
			g.AddGroup(g.VertexCount(), 0, material)
			currentMaterial = material
		}

		triangles := [][3]int{{0, 1, 2}}
		if corners == 4 {
			triangles = [][3]int{{0, 1, 3}, {1, 2, 3}}
		}
		for _, tri := range triangles {
			for _, c := range tri {
				emit(verts[c], uvs, c, normals[c], colors[c])
			}
			g.Groups[len(g.Groups)-1].Count += 3
		}
	}

	n := g.VertexCount()
	if len(g.UVs) != n*2 {
		g.UVs = nil
	}
	if len(g.Normals) != n*3 {
		g.Normals = nil
	}
	if len(g.Colors) != n*3 {
		g.Colors = nil
	}
	for t := range g.MorphTargets {
		if len(g.MorphTargets[t]) != n*3 {
			return nil, errMalformed("morph target " + strconv.Quote(doc.MorphTargets[t].Name) + " does not cover every vertex")
		}
	}
	if len(g.MorphTargets) == 0 {
		g.MorphTargets = nil
	}
	if len(g.Groups) <= 1 {
		g.Groups = nil
	}
	g.ComputeFaceNormals()

	if len(doc.Bones) > 0 {
		bones := make([]model.Bone, len(doc.Bones))
		for i, b := range doc.Bones {
			t := model.Transform{Translation: b.Pos, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
			if b.RotQ != nil {
				t.Rotation = *b.RotQ
			}
			if b.Scl != nil {
				t.Scale = *b.Scl
			}
			parent := b.Parent
			if parent >= int32(len(doc.Bones)) {
				parent = -1
			}
			bones[i] = model.Bone{Name: b.Name, ParentIndex: parent, LocalTransform: t}
		}
		g.Skeleton = model.NewSkeleton(bones)
	}

	anim := doc.Animation
	if anim == nil && len(doc.Animations) > 0 {
		anim = &doc.Animations[0]
	}
	if anim != nil && len(anim.Hierarchy) > 0 {
		g.Animation = legacyAnimationClip(anim)
	}
	return g, nil
}

func legacyAnimationClip(anim *jsonLegacyAnimation) *model.AnimationClip {
	clip := &model.AnimationClip{
		Name:           common.Coalesce(anim.Name, "animation"),
		Duration:       anim.Length,
		TicksPerSecond: common.Coalesce(anim.FPS, 1),
		Channels:       make([]model.AnimationChannel, len(anim.Hierarchy)),
	}
	for bone, h := range anim.Hierarchy {
		ch := model.AnimationChannel{BoneIndex: int32(bone)}
		for _, k := range h.Keys {
			if k.Pos != nil {
				ch.PositionKeys = append(ch.PositionKeys, model.VectorKeyframe{Time: k.Time, Value: *k.Pos})
			}
			if k.Rot != nil {
				ch.RotationKeys = append(ch.RotationKeys, model.QuaternionKeyframe{Time: k.Time, Value: *k.Rot})
			}
			if k.Scl != nil {
				ch.ScaleKeys = append(ch.ScaleKeys, model.VectorKeyframe{Time: k.Time, Value: *k.Scl})
			}
		}
		clip.Channels[bone] = ch
	}
	return clip
}

// legacyMaterial converts a legacy material; texture maps resolve through env as TexturePath + name.
func legacyMaterial(src *jsonLegacyMaterial, env Env) *model.Material {
	m := model.NewPhongMaterial(src.DbgName)
	switch src.Shading {
	case "lambert", "Lambert":
		m.Type = model.MaterialTypeLambert
	case "basic", "Basic":
		m.Type = model.MaterialTypeBasic
	}

	if src.ColorDiffuse != nil {
		m.Color = *src.ColorDiffuse
	}
	if src.ColorSpecular != nil {
		m.Specular = *src.ColorSpecular
	}
	if src.ColorEmissive != nil {
		m.Emissive = *src.ColorEmissive
	}
	if src.SpecularCoef != nil {
		m.Shininess = *src.SpecularCoef
	}
	switch {
	case src.Transparency != nil:
		m.Opacity = *src.Transparency
	case src.Opacity != nil:
		m.Opacity = *src.Opacity
	}
	m.Transparent = src.Transparent || m.Opacity < 1

	if env != nil {
		resolve := func(name string) *model.Texture {
			if name == "" {
				return nil
			}
			return env.Resolve(env.TexturePath()+name, nil)
		}
		m.Map = resolve(src.MapDiffuse)
		m.NormalMap = resolve(src.MapNormal)
		m.BumpMap = resolve(src.MapBump)
		m.SpecularMap = resolve(src.MapSpecular)
	}
	return m
}
