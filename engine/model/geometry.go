package model

import (
	"github.com/Carmen-Shannon/oxy-editor/common"

	"github.com/google/uuid"
)

// GeometryGroup is a contiguous index range drawn with one material slot.
type GeometryGroup struct {
	// Start is the first index (or vertex, for non-indexed geometry) of the range.
	Start int

	// Count is the number of indices (or vertices) in the range.
	Count int

	// MaterialIndex selects the slot of a multi-slot material.
	MaterialIndex int

	// MaterialName is the material declared by the source file for this range, if any.
	MaterialName string
}

// Geometry is CPU-side vertex data decoded from an imported file.
// Attribute arrays are packed: three floats per position/normal/color, two per uv.
type Geometry struct {
	// UUID uniquely identifies the geometry.
	UUID string

	// Name is an optional geometry name.
	Name string

	// Positions are packed xyz vertex positions.
	Positions []float32

	// Normals are packed xyz vertex normals (may be empty).
	Normals []float32

	// UVs are packed uv texture coordinates (may be empty).
	UVs []float32

	// Colors are packed rgb vertex colors (may be empty).
	Colors []float32

	// Indices index into the attribute arrays; empty for non-indexed geometry.
	Indices []uint32

	// Groups split the geometry into material ranges.
	Groups []GeometryGroup

	// SkinIndices are packed per-vertex bone indices (4 per vertex).
	SkinIndices []uint32

	// SkinWeights are packed per-vertex bone weights (4 per vertex).
	SkinWeights []float32

	// Skeleton is the bone hierarchy bound to this geometry, if any.
	Skeleton *Skeleton

	// Animation is the animation carried by the geometry, if any.
	Animation *AnimationClip

	// MorphTargets are packed xyz position sets, one per morph frame.
	MorphTargets [][]float32

	// SourceType is the format tag of the file the geometry came from ("ply", "stl", "ascii", ...).
	SourceType string

	// SourceFile is the name of the file the geometry came from.
	SourceFile string
}

// NewGeometry creates an empty geometry with a fresh UUID.
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry() *Geometry {
	return &Geometry{UUID: uuid.NewString()}
}

// VertexCount returns the number of vertices described by Positions.
//
// Returns:
//   - int: the vertex count
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions) / 3
}

// Vertex returns the position of vertex i.
//
// Parameters:
//   - i: the vertex index
//
// Returns:
//   - [3]float32: the vertex position
func (g *Geometry) Vertex(i int) [3]float32 {
	return [3]float32{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

// Bounds returns the axis-aligned bounding box of the geometry.
//
// Returns:
//   - [3]float32: the minimum corner
//   - [3]float32: the maximum corner
func (g *Geometry) Bounds() ([3]float32, [3]float32) {
	return common.Bounds(g.Positions)
}

// AddGroup appends a material range to the geometry.
//
// Parameters:
//   - start: the first index of the range
//   - count: the number of indices in the range
//   - materialIndex: the material slot used by the range
func (g *Geometry) AddGroup(start, count, materialIndex int) {
	g.Groups = append(g.Groups, GeometryGroup{Start: start, Count: count, MaterialIndex: materialIndex})
}

// ComputeVertexNormals fills Normals with smooth, area-weighted vertex normals for indexed
// triangle geometry that carries none. Vertices not referenced by a triangle get the up vector.
func (g *Geometry) ComputeVertexNormals() {
	n := g.VertexCount()
	if len(g.Normals) > 0 || n == 0 || len(g.Indices) < 3 {
		return
	}

	accum := make([][3]float32, n)
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2])
		if a >= n || b >= n || c >= n {
			continue
		}

		p0, p1, p2 := g.Vertex(a), g.Vertex(b), g.Vertex(c)
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, v := range [3]int{a, b, c} {
			accum[v][0] += face[0]
			accum[v][1] += face[1]
			accum[v][2] += face[2]
		}
	}

	g.Normals = make([]float32, n*3)
	for i, v := range accum {
		unit := common.Normalize(v)
		if unit == ([3]float32{}) {
			unit = [3]float32{0, 1, 0}
		}
		copy(g.Normals[i*3:i*3+3], unit[:])
	}
}

// ComputeFaceNormals fills Normals with flat per-face normals when the geometry has none.
// Indexed geometry keeps its sharing; each vertex receives the normal of the last face that references it.
func (g *Geometry) ComputeFaceNormals() {
	if len(g.Normals) > 0 || g.VertexCount() == 0 {
		return
	}

	g.Normals = make([]float32, len(g.Positions))
	setFace := func(a, b, c int) {
		n := common.FaceNormal(g.Vertex(a), g.Vertex(b), g.Vertex(c))
		for _, v := range [3]int{a, b, c} {
			copy(g.Normals[v*3:v*3+3], n[:])
		}
	}

	if len(g.Indices) > 0 {
		for i := 0; i+2 < len(g.Indices); i += 3 {
			setFace(int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2]))
		}
		return
	}
	for v := 0; v+2 < g.VertexCount(); v += 3 {
		setFace(v, v+1, v+2)
	}
}
