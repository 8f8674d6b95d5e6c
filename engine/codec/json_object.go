package codec

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
)

// jsonObjectDocument is the object/scene-graph document.
type jsonObjectDocument struct {
	Geometries []json.RawMessage `json:"geometries"`
	Materials  []jsonMaterial    `json:"materials"`
	Textures   []jsonTexture     `json:"textures"`
	Images     []jsonImage       `json:"images"`
	Object     *jsonObject       `json:"object"`
}

type jsonGeometryHeader struct {
	UUID string `json:"uuid"`
	Type string `json:"type"`
}

type jsonMaterial struct {
	UUID        string         `json:"uuid"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Color       *uint32        `json:"color"`
	Emissive    *uint32        `json:"emissive"`
	Specular    *uint32        `json:"specular"`
	Shininess   *float32       `json:"shininess"`
	Roughness   *float32       `json:"roughness"`
	Metalness   *float32       `json:"metalness"`
	Opacity     *float32       `json:"opacity"`
	Transparent bool           `json:"transparent"`
	Skinning    bool           `json:"skinning"`
	Map         string         `json:"map"`
	NormalMap   string         `json:"normalMap"`
	BumpMap     string         `json:"bumpMap"`
	SpecularMap string         `json:"specularMap"`
	Materials   []jsonMaterial `json:"materials"`
}

type jsonTexture struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Wrap      []int  `json:"wrap"`
	MinFilter *int   `json:"minFilter"`
	MagFilter *int   `json:"magFilter"`
}

type jsonImage struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

type jsonObject struct {
	UUID     string          `json:"uuid"`
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Matrix   *[16]float32    `json:"matrix"`
	Visible  *bool           `json:"visible"`
	Geometry string          `json:"geometry"`
	Material json.RawMessage `json:"material"`
	Children []jsonObject    `json:"children"`
	UserData map[string]any  `json:"userData"`
}

// Wrap and filter constants of the object format.
const (
	jsonRepeatWrapping             = 1000
	jsonClampToEdgeWrapping        = 1001
	jsonMirroredRepeatWrapping     = 1002
	jsonNearestFilter              = 1003
	jsonNearestMipmapNearestFilter = 1004
	jsonNearestMipmapLinearFilter  = 1005
	jsonLinearFilter               = 1006
	jsonLinearMipmapNearestFilter  = 1007
)

// jsonObjectTypes maps object type names to node kinds; anything else becomes a plain node.
var jsonObjectTypes = map[string]model.ObjectType{
	"Scene":              model.ObjectTypeScene,
	"Group":              model.ObjectTypeGroup,
	"Object3D":           model.ObjectTypeObject,
	"Mesh":               model.ObjectTypeMesh,
	"SkinnedMesh":        model.ObjectTypeSkinnedMesh,
	"Points":             model.ObjectTypePoints,
	"Line":               model.ObjectTypeLine,
	"LineSegments":       model.ObjectTypeLine,
	"PerspectiveCamera":  model.ObjectTypeCamera,
	"OrthographicCamera": model.ObjectTypeCamera,
}

// ObjectDecoder decodes an object/scene-graph document. A scene root replaces the current scene;
// any other root is added to it. Images resolve as TexturePath + url, data URLs are embedded.
//
// Returns:
//   - Decoder: the object decoder
func ObjectDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, env Env, _ string, content Content) (Result, error) {
		var doc jsonObjectDocument
		if err := json.Unmarshal(content.Bytes(), &doc); err != nil {
			return None(), decodeError("object", err.Error())
		}
		if doc.Object == nil {
			return None(), decodeError("object", "document has no object")
		}

		b := &jsonObjectBuilder{env: env}
		root, err := b.build(&doc)
		if err != nil {
			return None(), decodeError("object", err.Error())
		}
		if root.IsScene() {
			return ReplaceScene(root), nil
		}
		return AddObject(root), nil
	})
}

// jsonObjectBuilder resolves the uuid references of an object document.
type jsonObjectBuilder struct {
	env        Env
	geometries map[string]*model.Geometry
	materials  map[string]*model.Material
	textures   map[string]*model.Texture
}

func (b *jsonObjectBuilder) build(doc *jsonObjectDocument) (*model.Object, error) {
	if err := b.buildGeometries(doc.Geometries); err != nil {
		return nil, err
	}
	b.buildTextures(doc.Textures, doc.Images)

	b.materials = make(map[string]*model.Material, len(doc.Materials))
	for i := range doc.Materials {
		b.materials[doc.Materials[i].UUID] = b.material(&doc.Materials[i])
	}
	return b.object(doc.Object)
}

func (b *jsonObjectBuilder) buildGeometries(raw []json.RawMessage) error {
	b.geometries = make(map[string]*model.Geometry, len(raw))
	for _, r := range raw {
		var header jsonGeometryHeader
		if err := json.Unmarshal(r, &header); err != nil {
			return err
		}

		var g *model.Geometry
		switch header.Type {
		case "BufferGeometry":
			var doc jsonBufferGeometry
			if err := json.Unmarshal(r, &doc); err != nil {
				return err
			}
			var err error
			if g, err = buildBufferGeometry(&doc); err != nil {
				return err
			}
		case "Geometry":
			var wrapper struct {
				Data jsonLegacyGeometry `json:"data"`
			}
			if err := json.Unmarshal(r, &wrapper); err != nil {
				return err
			}
			var err error
			if g, err = buildLegacyGeometry(&wrapper.Data); err != nil {
				return err
			}
		default:
			return errMalformed("unsupported geometry type " + header.Type)
		}
		g.UUID = common.Coalesce(header.UUID, g.UUID)
		b.geometries[header.UUID] = g
	}
	return nil
}

func (b *jsonObjectBuilder) buildTextures(textures []jsonTexture, images []jsonImage) {
	urls := make(map[string]string, len(images))
	for _, img := range images {
		urls[img.UUID] = img.URL
	}

	b.textures = make(map[string]*model.Texture, len(textures))
	for _, t := range textures {
		url := urls[t.Image]
		var handle *model.Texture
		switch {
		case b.env == nil || url == "":
		case strings.HasPrefix(url, "data:"):
			data, _, err := decodeDataURI(url)
			if err != nil {
				continue
			}
			handle = b.env.EmbeddedTexture(common.Coalesce(t.Name, t.UUID), data)
		default:
			handle = b.env.Resolve(b.env.TexturePath()+url, nil)
		}
		if handle != nil {
			handle.SetSampler(jsonSampler(&t))
		}
		b.textures[t.UUID] = handle
	}
}

func (b *jsonObjectBuilder) material(src *jsonMaterial) *model.Material {
	if src.Type == string(model.MaterialTypeMulti) || len(src.Materials) > 0 {
		slots := make([]*model.Material, len(src.Materials))
		for i := range src.Materials {
			slots[i] = b.material(&src.Materials[i])
		}
		m := model.NewMultiMaterial(slots)
		m.UUID = common.Coalesce(src.UUID, m.UUID)
		m.Name = src.Name
		return m
	}

	m := model.NewStandardMaterial()
	switch t := model.MaterialType(src.Type); t {
	case model.MaterialTypePhong, model.MaterialTypeLambert, model.MaterialTypeBasic:
		m = model.NewPhongMaterial("")
		m.Type = t
	}
	m.UUID = common.Coalesce(src.UUID, m.UUID)
	m.Name = src.Name

	if src.Color != nil {
		m.Color = hexColor(*src.Color)
	}
	if src.Emissive != nil {
		m.Emissive = hexColor(*src.Emissive)
	}
	if src.Specular != nil {
		m.Specular = hexColor(*src.Specular)
	}
	if src.Shininess != nil {
		m.Shininess = *src.Shininess
	}
	if src.Roughness != nil {
		m.Roughness = *src.Roughness
	}
	if src.Metalness != nil {
		m.Metalness = *src.Metalness
	}
	if src.Opacity != nil {
		m.Opacity = *src.Opacity
	}
	m.Transparent = src.Transparent || m.Opacity < 1
	m.Skinning = src.Skinning

	m.Map = b.textures[src.Map]
	m.NormalMap = b.textures[src.NormalMap]
	m.BumpMap = b.textures[src.BumpMap]
	m.SpecularMap = b.textures[src.SpecularMap]
	return m
}

func (b *jsonObjectBuilder) object(src *jsonObject) (*model.Object, error) {
	kind, ok := jsonObjectTypes[src.Type]
	if !ok {
		kind = model.ObjectTypeObject
		if strings.HasSuffix(src.Type, "Light") {
			kind = model.ObjectTypeLight
		}
	}

	obj := model.NewObject(kind, model.WithUUID(src.UUID), model.WithName(src.Name), model.WithUserData(src.UserData))
	if src.Matrix != nil {
		obj.Matrix = *src.Matrix
	}
	if src.Visible != nil {
		obj.Visible = *src.Visible
	}

	if src.Geometry != "" {
		g, ok := b.geometries[src.Geometry]
		if !ok {
			return nil, errMalformed("object " + src.UUID + " references missing geometry " + src.Geometry)
		}
		obj.Geometry = g
		obj.Skeleton = g.Skeleton
		obj.Animated = g.Animation.HasHierarchy()
	}

	if len(src.Material) > 0 {
		var single string
		var many []string
		switch {
		case json.Unmarshal(src.Material, &single) == nil:
			obj.Material = b.materials[single]
		case json.Unmarshal(src.Material, &many) == nil:
			slots := make([]*model.Material, len(many))
			for i, id := range many {
				slots[i] = b.materials[id]
			}
			obj.Material = model.NewMultiMaterial(slots)
		default:
			return nil, errMalformed("object " + src.UUID + " has an invalid material reference")
		}
	}
	if obj.Geometry != nil && obj.Material == nil {
		obj.Material = model.NewStandardMaterial()
	}

	for i := range src.Children {
		child, err := b.object(&src.Children[i])
		if err != nil {
			return nil, err
		}
		obj.Add(child)
	}
	return obj, nil
}

// jsonSampler converts the wrap and filter constants of a texture into a sampler configuration.
func jsonSampler(t *jsonTexture) common.SamplerStagingData {
	s := common.DefaultSamplerStagingData()
	// The object format defaults to clamping.
	s.AddressModeU = wgpu.AddressModeClampToEdge
	s.AddressModeV = wgpu.AddressModeClampToEdge

	wrap := func(v int) wgpu.AddressMode {
		switch v {
		case jsonRepeatWrapping:
			return wgpu.AddressModeRepeat
		case jsonMirroredRepeatWrapping:
			return wgpu.AddressModeMirrorRepeat
		default:
			return wgpu.AddressModeClampToEdge
		}
	}
	if len(t.Wrap) == 2 {
		s.AddressModeU = wrap(t.Wrap[0])
		s.AddressModeV = wrap(t.Wrap[1])
	}

	if t.MagFilter != nil && *t.MagFilter == jsonNearestFilter {
		s.MagFilter = wgpu.FilterModeNearest
	}
	if t.MinFilter != nil {
		switch *t.MinFilter {
		case jsonNearestFilter, jsonNearestMipmapNearestFilter, jsonNearestMipmapLinearFilter:
			s.MinFilter = wgpu.FilterModeNearest
		}
		switch *t.MinFilter {
		case jsonNearestFilter, jsonLinearFilter, jsonNearestMipmapNearestFilter, jsonLinearMipmapNearestFilter:
			s.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}
	return s
}

// hexColor unpacks a 0xRRGGBB color.
func hexColor(c uint32) [3]float32 {
	return [3]float32{float32(c>>16&0xff) / 255, float32(c>>8&0xff) / 255, float32(c&0xff) / 255}
}
