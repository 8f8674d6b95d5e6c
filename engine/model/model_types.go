package model

// Transform is a node transform split into its components, as stored by scene formats.
type Transform struct {
	// Translation is the offset from the parent origin.
	Translation [3]float32

	// Rotation is a unit quaternion in x, y, z, w order.
	Rotation [4]float32

	// Scale holds the per-axis scale factors.
	Scale [3]float32
}

// Bone is one joint of an imported skeleton.
type Bone struct {
	// Name is the joint name; animation channels of some formats target bones by name.
	Name string

	// ParentIndex points into the owning skeleton's Bones, or is -1 for a root joint.
	ParentIndex int32

	// LocalTransform is the rest pose relative to the parent joint.
	LocalTransform Transform
}

// Skeleton is the joint hierarchy of a skinned mesh.
type Skeleton struct {
	// Bones lists the joints in file order. Skin indices refer to positions in this slice.
	Bones []Bone

	// RootBoneIndices lists the joints whose ParentIndex is -1.
	RootBoneIndices []int32

	// BoneNameToIndex resolves named joints to their position in Bones.
	BoneNameToIndex map[string]int32
}

// NewSkeleton indexes a flat bone list into a Skeleton.
//
// Parameters:
//   - bones: the bones in file order
//
// Returns:
//   - *Skeleton: the indexed skeleton, or nil when bones is empty
func NewSkeleton(bones []Bone) *Skeleton {
	if len(bones) == 0 {
		return nil
	}

	s := &Skeleton{
		Bones:           bones,
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	for i, b := range bones {
		if b.ParentIndex < 0 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		if b.Name != "" {
			s.BoneNameToIndex[b.Name] = int32(i)
		}
	}
	return s
}

// AnimationClip is one named keyframe animation carried by an imported file.
type AnimationClip struct {
	// Name is the clip name, generated when the file has none.
	Name string

	// Duration is the time of the last keyframe, in seconds.
	Duration float32

	// TicksPerSecond is the frame rate declared by the file.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone. Legacy exports call these the
	// animation hierarchy.
	Channels []AnimationChannel
}

// AnimationChannel holds the tracks of one joint.
type AnimationChannel struct {
	// BoneIndex is the animated joint's position in Skeleton.Bones.
	BoneIndex int32

	// PositionKeys animate the translation.
	PositionKeys []VectorKeyframe

	// RotationKeys animate the rotation.
	RotationKeys []QuaternionKeyframe

	// ScaleKeys animate the scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe is a translation or scale sample.
type VectorKeyframe struct {
	// Time is in seconds from the clip start.
	Time float32

	// Value is the sampled vector.
	Value [3]float32
}

// QuaternionKeyframe is a rotation sample.
type QuaternionKeyframe struct {
	// Time is in seconds from the clip start.
	Time float32

	// Value is the sampled quaternion in x, y, z, w order.
	Value [4]float32
}

// HasHierarchy reports whether the clip animates at least one bone.
//
// Returns:
//   - bool: true if the clip carries hierarchy channels
func (a *AnimationClip) HasHierarchy() bool {
	return a != nil && len(a.Channels) > 0
}
