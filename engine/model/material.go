package model

import "github.com/google/uuid"

// MaterialType identifies the shading model of a Material.
type MaterialType string

const (
	// MaterialTypeStandard is the physically based default material.
	MaterialTypeStandard MaterialType = "MeshStandardMaterial"
	// MaterialTypePhong is the Blinn-Phong material produced by MTL libraries and legacy exports.
	MaterialTypePhong MaterialType = "MeshPhongMaterial"
	// MaterialTypeLambert is the diffuse-only material used by some legacy exports.
	MaterialTypeLambert MaterialType = "MeshLambertMaterial"
	// MaterialTypeBasic is the unlit material.
	MaterialTypeBasic MaterialType = "MeshBasicMaterial"
	// MaterialTypeMulti combines several materials into indexed slots.
	MaterialTypeMulti MaterialType = "MultiMaterial"
)

// Material describes the surface of a mesh.
// A multi-slot material keeps its members in Slots and leaves its own surface fields unused.
type Material struct {
	// UUID uniquely identifies the material.
	UUID string

	// Name is the material name; importers use it to resolve material references.
	Name string

	// Type is the shading model.
	Type MaterialType

	// Color is the diffuse/albedo color (RGB).
	Color [3]float32

	// Emissive is the emitted color (RGB).
	Emissive [3]float32

	// Specular is the specular color (RGB), used by phong materials.
	Specular [3]float32

	// Shininess is the phong specular exponent.
	Shininess float32

	// Metalness is the PBR metal factor (0.0 = dielectric, 1.0 = metal).
	Metalness float32

	// Roughness is the PBR roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// Opacity is the material opacity; values below 1 imply Transparent.
	Opacity float32

	// Transparent enables blending.
	Transparent bool

	// Map is the diffuse texture.
	Map *Texture

	// NormalMap is the tangent-space normal texture.
	NormalMap *Texture

	// BumpMap is the height texture.
	BumpMap *Texture

	// SpecularMap is the specular intensity texture.
	SpecularMap *Texture

	// MetalnessRoughnessMap is the packed metallic/roughness texture.
	MetalnessRoughnessMap *Texture

	// MorphTargets enables morph target blending for vertex positions.
	MorphTargets bool

	// MorphNormals enables morph target blending for normals.
	MorphNormals bool

	// Skinning enables bone deformation.
	Skinning bool

	// Slots are the member materials of a multi-slot material.
	Slots []*Material
}

// NewStandardMaterial returns the default material assigned to formats that carry none.
//
// Returns:
//   - *Material: a white, fully rough, non-metallic standard material
func NewStandardMaterial() *Material {
	return &Material{
		UUID:      uuid.NewString(),
		Type:      MaterialTypeStandard,
		Color:     [3]float32{1, 1, 1},
		Roughness: 1,
		Opacity:   1,
	}
}

// NewPhongMaterial returns a named phong material with default colors.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - *Material: the new material
func NewPhongMaterial(name string) *Material {
	return &Material{
		UUID:      uuid.NewString(),
		Name:      name,
		Type:      MaterialTypePhong,
		Color:     [3]float32{1, 1, 1},
		Specular:  [3]float32{0.067, 0.067, 0.067},
		Shininess: 30,
		Opacity:   1,
	}
}

// NewMultiMaterial combines materials into one multi-slot material, slot i being materials[i].
//
// Parameters:
//   - materials: the slot materials
//
// Returns:
//   - *Material: the multi-slot material
func NewMultiMaterial(materials []*Material) *Material {
	return &Material{
		UUID:    uuid.NewString(),
		Type:    MaterialTypeMulti,
		Opacity: 1,
		Slots:   materials,
	}
}

// IsMulti reports whether the material is a multi-slot material.
//
// Returns:
//   - bool: true for MaterialTypeMulti
func (m *Material) IsMulti() bool {
	return m != nil && m.Type == MaterialTypeMulti
}

// Textures returns every non-nil texture referenced by the material and its slots.
//
// Returns:
//   - []*Texture: the referenced textures
func (m *Material) Textures() []*Texture {
	if m == nil {
		return nil
	}

	var out []*Texture
	for _, t := range []*Texture{m.Map, m.NormalMap, m.BumpMap, m.SpecularMap, m.MetalnessRoughnessMap} {
		if t != nil {
			out = append(out, t)
		}
	}
	for _, slot := range m.Slots {
		out = append(out, slot.Textures()...)
	}
	return out
}
