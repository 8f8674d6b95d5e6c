package model

import (
	"github.com/Carmen-Shannon/oxy-editor/common"

	"github.com/google/uuid"
)

// ObjectType identifies the kind of node an Object represents in the scene graph.
type ObjectType string

const (
	// ObjectTypeObject is a plain transform node.
	ObjectTypeObject ObjectType = "Object3D"
	// ObjectTypeGroup is a grouping node without geometry.
	ObjectTypeGroup ObjectType = "Group"
	// ObjectTypeScene is a scene root; importing one replaces the whole scene.
	ObjectTypeScene ObjectType = "Scene"
	// ObjectTypeMesh is a renderable mesh.
	ObjectTypeMesh ObjectType = "Mesh"
	// ObjectTypeSkinnedMesh is a mesh deformed by a skeleton.
	ObjectTypeSkinnedMesh ObjectType = "SkinnedMesh"
	// ObjectTypePoints renders geometry as a point cloud.
	ObjectTypePoints ObjectType = "Points"
	// ObjectTypeLine renders geometry as line segments.
	ObjectTypeLine ObjectType = "LineSegments"
	// ObjectTypeCamera is a camera node.
	ObjectTypeCamera ObjectType = "PerspectiveCamera"
	// ObjectTypeLight is a light node.
	ObjectTypeLight ObjectType = "Light"
)

// Object is a node of an imported scene graph.
// Objects produced by one import are owned by the receiving document after hand-off.
type Object struct {
	// UUID uniquely identifies the object.
	UUID string

	// Name is the display name; importers set it to the source file name for top-level objects.
	Name string

	// Type is the node kind.
	Type ObjectType

	// Matrix is the local transform (column-major).
	Matrix [16]float32

	// Visible toggles rendering of the node and its children.
	Visible bool

	// Geometry is the vertex data of renderable nodes.
	Geometry *Geometry

	// Material is the surface of renderable nodes; may be a multi-slot material.
	Material *Material

	// Skeleton is bound to skinned meshes.
	Skeleton *Skeleton

	// Animated marks objects that carry an animation mixer (morph or skeletal playback).
	Animated bool

	// Children are the child nodes.
	Children []*Object

	// UserData carries format-specific values the importer preserved.
	UserData map[string]any
}

// NewObject creates an object of the given type with an identity transform and the options applied.
//
// Parameters:
//   - objectType: the node kind
//   - options: a variadic list of ObjectBuilderOption functions to configure the Object
//
// Returns:
//   - *Object: the new object
func NewObject(objectType ObjectType, options ...ObjectBuilderOption) *Object {
	o := &Object{
		UUID:    uuid.NewString(),
		Type:    objectType,
		Visible: true,
	}
	common.Identity(o.Matrix[:])

	for _, option := range options {
		option(o)
	}
	return o
}

// NewMesh wraps a geometry and material in a mesh. A nil material is replaced by the default
// standard material.
//
// Parameters:
//   - geometry: the mesh geometry
//   - material: the mesh material, or nil
//   - options: additional ObjectBuilderOption functions
//
// Returns:
//   - *Object: the mesh object
func NewMesh(geometry *Geometry, material *Material, options ...ObjectBuilderOption) *Object {
	if material == nil {
		material = NewStandardMaterial()
	}
	return NewObject(ObjectTypeMesh, append([]ObjectBuilderOption{WithGeometry(geometry), WithMaterial(material)}, options...)...)
}

// NewSkinnedMesh wraps a geometry with bone data and a material in a skinned mesh.
//
// Parameters:
//   - geometry: the mesh geometry, carrying a skeleton and/or animation
//   - material: the mesh material, or nil for the default material
//   - options: additional ObjectBuilderOption functions
//
// Returns:
//   - *Object: the skinned mesh object
func NewSkinnedMesh(geometry *Geometry, material *Material, options ...ObjectBuilderOption) *Object {
	if material == nil {
		material = NewStandardMaterial()
	}
	material.Skinning = true
	o := NewObject(ObjectTypeSkinnedMesh, append([]ObjectBuilderOption{WithGeometry(geometry), WithMaterial(material)}, options...)...)
	if geometry != nil {
		o.Skeleton = geometry.Skeleton
		o.Animated = geometry.Animation.HasHierarchy()
	}
	return o
}

// NewMorphMesh wraps morph-animated geometry in a mesh whose default material blends morph
// targets and normals, and marks it as carrying an animation mixer.
//
// Parameters:
//   - geometry: the mesh geometry with morph targets
//   - options: additional ObjectBuilderOption functions
//
// Returns:
//   - *Object: the animated mesh
func NewMorphMesh(geometry *Geometry, options ...ObjectBuilderOption) *Object {
	material := NewStandardMaterial()
	material.MorphTargets = true
	material.MorphNormals = true
	o := NewMesh(geometry, material, options...)
	o.Animated = true
	return o
}

// Add appends children to the object.
//
// Parameters:
//   - children: the child objects to add
func (o *Object) Add(children ...*Object) {
	o.Children = append(o.Children, children...)
}

// Traverse calls fn for the object and every descendant in depth-first pre-order.
//
// Parameters:
//   - fn: the visitor
func (o *Object) Traverse(fn func(*Object)) {
	if o == nil {
		return
	}
	fn(o)
	for _, child := range o.Children {
		child.Traverse(fn)
	}
}

// IsMesh reports whether the object renders geometry as triangles.
//
// Returns:
//   - bool: true for meshes and skinned meshes
func (o *Object) IsMesh() bool {
	return o.Type == ObjectTypeMesh || o.Type == ObjectTypeSkinnedMesh
}

// IsScene reports whether the object is a scene root.
//
// Returns:
//   - bool: true for ObjectTypeScene
func (o *Object) IsScene() bool {
	return o != nil && o.Type == ObjectTypeScene
}

// Meshes returns every mesh in the subtree rooted at the object.
//
// Returns:
//   - []*Object: the meshes in traversal order
func (o *Object) Meshes() []*Object {
	var out []*Object
	o.Traverse(func(n *Object) {
		if n.IsMesh() {
			out = append(out, n)
		}
	})
	return out
}

// Find returns the first object in the subtree with the given UUID, or nil.
//
// Parameters:
//   - id: the UUID to search for
//
// Returns:
//   - *Object: the matching object or nil
func (o *Object) Find(id string) *Object {
	var found *Object
	o.Traverse(func(n *Object) {
		if found == nil && n.UUID == id {
			found = n
		}
	})
	return found
}
