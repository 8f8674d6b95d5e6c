package codec

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
)

// GLTFDecoder decodes glTF 2.0 JSON documents and GLB containers into an object tree whose root is
// named after the file. Embedded images (GLB buffer views and data URIs) become embedded textures;
// external image URIs are resolved through the batch texture resolver.
//
// Returns:
//   - Decoder: the glTF decoder
func GLTFDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, env Env, name string, content Content) (Result, error) {
		p, err := parseGLTF(content.Bytes())
		if err != nil {
			return None(), decodeError("gltf", err.Error())
		}

		b := &gltfBuilder{
			parser:    p,
			env:       env,
			materials: make(map[int]*model.Material),
			textures:  make(map[int]*model.Texture),
			skeletons: make(map[int]*gltfSkeleton),
			visiting:  make(map[int]bool),
		}
		root, err := b.buildScene()
		if err != nil {
			return None(), decodeError("gltf", err.Error())
		}
		root.Name = name
		return AddObject(root), nil
	})
}

// gltfSkeleton is a skin converted to a topologically sorted skeleton.
type gltfSkeleton struct {
	skeleton *model.Skeleton

	// jointToBone maps a position in skin.joints to the sorted bone index.
	jointToBone map[int32]int32

	// nodeToBone maps a node index to the sorted bone index.
	nodeToBone map[int]int32
}

// gltfBuilder converts a parsed document into model objects, sharing materials and textures
// between primitives that reference the same index.
type gltfBuilder struct {
	parser    *gltfParser
	env       Env
	materials map[int]*model.Material
	textures  map[int]*model.Texture
	skeletons map[int]*gltfSkeleton
	visiting  map[int]bool
	clips     []string
}

// buildScene builds the default scene (or the first one). Documents without scenes use every
// node that is nobody's child as a root.
func (b *gltfBuilder) buildScene() (*model.Object, error) {
	doc := b.parser.document
	root := model.NewObject(model.ObjectTypeGroup)

	var roots []int
	switch {
	case len(doc.Scenes) > 0:
		index := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			index = *doc.Scene
		}
		roots = doc.Scenes[index].Nodes
	default:
		isChild := make(map[int]bool)
		for _, node := range doc.Nodes {
			for _, c := range node.Children {
				isChild[c] = true
			}
		}
		for i := range doc.Nodes {
			if !isChild[i] {
				roots = append(roots, i)
			}
		}
	}

	for _, index := range roots {
		child, err := b.buildNode(index)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}

	if len(b.clips) > 0 {
		root.UserData = map[string]any{"animations": b.clips}
	}
	return root, nil
}

// buildNode builds a node and its subtree. A node holding a single-primitive mesh becomes that
// mesh; a multi-primitive mesh becomes a group of meshes.
func (b *gltfBuilder) buildNode(index int) (*model.Object, error) {
	doc := b.parser.document
	if index < 0 || index >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", index)
	}
	if b.visiting[index] {
		return nil, fmt.Errorf("node %d is part of a cycle", index)
	}
	b.visiting[index] = true
	defer delete(b.visiting, index)

	node := &doc.Nodes[index]
	var obj *model.Object

	if node.Mesh != nil {
		skin := -1
		if node.Skin != nil {
			skin = *node.Skin
		}
		meshes, err := b.buildMesh(*node.Mesh, skin)
		if err != nil {
			return nil, err
		}
		if len(meshes) == 1 {
			obj = meshes[0]
		} else {
			obj = model.NewObject(model.ObjectTypeGroup, model.WithChildren(meshes...))
		}
	} else {
		obj = model.NewObject(model.ObjectTypeObject)
	}

	obj.Name = node.Name
	obj.Matrix = gltfNodeMatrix(node)

	for _, c := range node.Children {
		child, err := b.buildNode(c)
		if err != nil {
			return nil, err
		}
		obj.Add(child)
	}
	return obj, nil
}

// buildMesh builds one object per primitive of a mesh.
func (b *gltfBuilder) buildMesh(meshIndex, skinIndex int) ([]*model.Object, error) {
	doc := b.parser.document
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	out := make([]*model.Object, 0, len(mesh.Primitives))
	for i := range mesh.Primitives {
		obj, err := b.buildPrimitive(&mesh.Primitives[i], skinIndex)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, i, err)
		}
		obj.Name = mesh.Name
		out = append(out, obj)
	}
	return out, nil
}

// buildPrimitive reads the attributes of a primitive into a geometry and wraps it in an object
// matching the primitive topology.
func (b *gltfBuilder) buildPrimitive(prim *gltfPrimitive, skinIndex int) (*model.Object, error) {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode != gltfPrimitiveModeTriangles && mode != gltfPrimitiveModePoints && mode != gltfPrimitiveModeLines {
		return nil, fmt.Errorf("unsupported primitive mode %d", mode)
	}

	position, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}

	geometry := model.NewGeometry()
	var err error
	if geometry.Positions, err = b.parser.readFloats(position, 3, false); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	if index, ok := prim.Attributes["NORMAL"]; ok {
		if geometry.Normals, err = b.parser.readFloats(index, 3, false); err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
	}
	if index, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if geometry.UVs, err = b.parser.readFloats(index, 2, true); err != nil {
			return nil, fmt.Errorf("failed to read texcoords: %w", err)
		}
	}
	if index, ok := prim.Attributes["COLOR_0"]; ok {
		if geometry.Colors, err = b.readColors(index); err != nil {
			return nil, fmt.Errorf("failed to read colors: %w", err)
		}
	}
	if prim.Indices != nil {
		if geometry.Indices, err = b.parser.readUints(*prim.Indices); err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	}

	material := model.NewStandardMaterial()
	if prim.Material != nil {
		if material, err = b.material(*prim.Material); err != nil {
			return nil, err
		}
	}

	switch mode {
	case gltfPrimitiveModePoints:
		return model.NewObject(model.ObjectTypePoints, model.WithGeometry(geometry), model.WithMaterial(material)), nil
	case gltfPrimitiveModeLines:
		return model.NewObject(model.ObjectTypeLine, model.WithGeometry(geometry), model.WithMaterial(material)), nil
	}

	if geometry.Indices == nil {
		geometry.Indices = make([]uint32, geometry.VertexCount())
		for i := range geometry.Indices {
			geometry.Indices[i] = uint32(i)
		}
	}
	geometry.ComputeVertexNormals()

	joints, hasJoints := prim.Attributes["JOINTS_0"]
	weights, hasWeights := prim.Attributes["WEIGHTS_0"]
	if skinIndex < 0 || !hasJoints || !hasWeights {
		return model.NewMesh(geometry, material), nil
	}

	skel, err := b.skeleton(skinIndex)
	if err != nil {
		return nil, err
	}
	if geometry.SkinIndices, err = b.parser.readUints(joints); err != nil {
		return nil, fmt.Errorf("failed to read joints: %w", err)
	}
	for i, joint := range geometry.SkinIndices {
		geometry.SkinIndices[i] = uint32(skel.jointToBone[int32(joint)])
	}
	if geometry.SkinWeights, err = b.parser.readFloats(weights, 4, true); err != nil {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}
	geometry.Skeleton = skel.skeleton
	if geometry.Animation, err = b.animation(skinIndex, skel.nodeToBone); err != nil {
		return nil, err
	}
	return model.NewSkinnedMesh(geometry, material), nil
}

// readColors reads COLOR_0 as packed RGB, dropping alpha from VEC4 colors.
func (b *gltfBuilder) readColors(index int) ([]float32, error) {
	acc := &b.parser.document.Accessors[index]
	components := gltfAccessorComponents[acc.Type]
	values, err := b.parser.readFloats(index, components, true)
	if err != nil || components == 3 {
		return values, err
	}
	if components != 4 {
		return nil, fmt.Errorf("unsupported color type %s", acc.Type)
	}

	rgb := make([]float32, 0, len(values)/4*3)
	for i := 0; i+3 < len(values); i += 4 {
		rgb = append(rgb, values[i], values[i+1], values[i+2])
	}
	return rgb, nil
}

// material converts a glTF material into a standard material, once per index.
func (b *gltfBuilder) material(index int) (*model.Material, error) {
	if m, ok := b.materials[index]; ok {
		return m, nil
	}

	doc := b.parser.document
	if index < 0 || index >= len(doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range", index)
	}
	src := &doc.Materials[index]

	m := model.NewStandardMaterial()
	m.Name = src.Name
	m.Metalness = 1

	var err error
	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := *pbr.BaseColorFactor
			m.Color = [3]float32{f[0], f[1], f[2]}
			m.Opacity = f[3]
		}
		if pbr.MetallicFactor != nil {
			m.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			if m.Map, err = b.texture(pbr.BaseColorTexture.Index); err != nil {
				return nil, fmt.Errorf("material %q: base color texture: %w", src.Name, err)
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if m.MetalnessRoughnessMap, err = b.texture(pbr.MetallicRoughnessTexture.Index); err != nil {
				return nil, fmt.Errorf("material %q: metallic-roughness texture: %w", src.Name, err)
			}
		}
	}
	if src.NormalTexture != nil {
		if m.NormalMap, err = b.texture(src.NormalTexture.Index); err != nil {
			return nil, fmt.Errorf("material %q: normal texture: %w", src.Name, err)
		}
	}
	if src.EmissiveFactor != nil {
		m.Emissive = *src.EmissiveFactor
	}
	m.Transparent = src.AlphaMode == "BLEND" || m.Opacity < 1

	b.materials[index] = m
	return m, nil
}

// texture resolves a glTF texture to a handle, once per index. The result is nil when the image
// references a file that is not part of the batch.
func (b *gltfBuilder) texture(index int) (*model.Texture, error) {
	if t, ok := b.textures[index]; ok {
		return t, nil
	}

	doc := b.parser.document
	if index < 0 || index >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", index)
	}
	tex := &doc.Textures[index]
	if tex.Source == nil {
		b.textures[index] = nil
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", *tex.Source)
	}
	img := &doc.Images[*tex.Source]
	name := common.Coalesce(img.Name, img.URI, fmt.Sprintf("image_%d", *tex.Source))

	var handle *model.Texture
	switch {
	case img.BufferView != nil:
		data, err := b.parser.bufferView(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		handle = b.env.EmbeddedTexture(name, data)
	case len(img.URI) > 5 && img.URI[:5] == "data:":
		data, _, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		handle = b.env.EmbeddedTexture(common.Coalesce(img.Name, fmt.Sprintf("image_%d", *tex.Source)), data)
	case img.URI != "":
		handle = b.env.Resolve(img.URI, nil)
	}

	if handle != nil && tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		handle.SetSampler(gltfSamplerToStagingData(&doc.Samplers[*tex.Sampler]))
	}
	b.textures[index] = handle
	return handle, nil
}

// skeleton converts a skin into a skeleton whose bones are sorted parents-first, once per index.
func (b *gltfBuilder) skeleton(skinIndex int) (*gltfSkeleton, error) {
	if s, ok := b.skeletons[skinIndex]; ok {
		return s, nil
	}

	doc := b.parser.document
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]

	parentOf := make(map[int]int)
	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			parentOf[c] = i
		}
	}
	jointOfNode := make(map[int]int32, len(skin.Joints))
	for j, node := range skin.Joints {
		if node < 0 || node >= len(doc.Nodes) {
			return nil, fmt.Errorf("joint %d: invalid node index %d", j, node)
		}
		jointOfNode[node] = int32(j)
	}

	// Breadth-first from the root joints so every parent precedes its children.
	children := make(map[int32][]int32)
	var order []int32
	for j, node := range skin.Joints {
		parentNode, hasParent := parentOf[node]
		parentJoint, parentIsJoint := jointOfNode[parentNode]
		if hasParent && parentIsJoint {
			children[parentJoint] = append(children[parentJoint], int32(j))
			continue
		}
		order = append(order, int32(j))
	}
	for i := 0; i < len(order); i++ {
		order = append(order, children[order[i]]...)
	}

	s := &gltfSkeleton{
		jointToBone: make(map[int32]int32, len(order)),
		nodeToBone:  make(map[int]int32, len(order)),
	}
	for bone, joint := range order {
		s.jointToBone[joint] = int32(bone)
		s.nodeToBone[skin.Joints[joint]] = int32(bone)
	}

	bones := make([]model.Bone, len(order))
	for bone, joint := range order {
		nodeIndex := skin.Joints[joint]
		node := &doc.Nodes[nodeIndex]
		bones[bone] = model.Bone{
			Name:           common.Coalesce(node.Name, fmt.Sprintf("bone_%d", joint)),
			ParentIndex:    -1,
			LocalTransform: gltfNodeTransform(node),
		}
		if parentNode, ok := parentOf[nodeIndex]; ok {
			if parentBone, ok := s.nodeToBone[parentNode]; ok {
				bones[bone].ParentIndex = parentBone
			}
		}
	}
	s.skeleton = model.NewSkeleton(bones)

	b.skeletons[skinIndex] = s
	return s, nil
}

// animation returns the first animation that targets a joint of the skin, and records the names
// of every animation in the document for the root object.
func (b *gltfBuilder) animation(skinIndex int, nodeToBone map[int]int32) (*model.AnimationClip, error) {
	doc := b.parser.document
	if b.clips == nil {
		for i, anim := range doc.Animations {
			b.clips = append(b.clips, common.Coalesce(anim.Name, fmt.Sprintf("animation_%d", i)))
		}
	}

	for i := range doc.Animations {
		clip, err := b.extractClip(i, nodeToBone)
		if err != nil {
			return nil, err
		}
		if clip.HasHierarchy() {
			return clip, nil
		}
	}
	return nil, nil
}

// extractClip reads the translation, rotation and scale channels of an animation that target bones.
func (b *gltfBuilder) extractClip(index int, nodeToBone map[int]int32) (*model.AnimationClip, error) {
	anim := &b.parser.document.Animations[index]
	clip := &model.AnimationClip{
		Name:           common.Coalesce(anim.Name, fmt.Sprintf("animation_%d", index)),
		TicksPerSecond: 1,
	}
	byBone := make(map[int32]int)

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil {
			continue
		}
		bone, ok := nodeToBone[*ch.Target.Node]
		if !ok {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", clip.Name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := b.parser.readFloats(sampler.Input, 1, false)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", clip.Name, i, err)
		}
		if len(times) > 0 {
			clip.Duration = max(clip.Duration, times[len(times)-1])
		}

		slot, ok := byBone[bone]
		if !ok {
			slot = len(clip.Channels)
			byBone[bone] = slot
			clip.Channels = append(clip.Channels, model.AnimationChannel{BoneIndex: bone})
		}
		channel := &clip.Channels[slot]

		switch ch.Target.Path {
		case "translation", "scale":
			values, err := b.parser.readFloats(sampler.Output, 3, false)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", clip.Name, i, err)
			}
			keys := make([]model.VectorKeyframe, min(len(times), len(values)/3))
			for k := range keys {
				keys[k] = model.VectorKeyframe{Time: times[k], Value: [3]float32{values[k*3], values[k*3+1], values[k*3+2]}}
			}
			if ch.Target.Path == "translation" {
				channel.PositionKeys = keys
			} else {
				channel.ScaleKeys = keys
			}
		case "rotation":
			values, err := b.parser.readFloats(sampler.Output, 4, true)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", clip.Name, i, err)
			}
			keys := make([]model.QuaternionKeyframe, min(len(times), len(values)/4))
			for k := range keys {
				keys[k] = model.QuaternionKeyframe{Time: times[k], Value: [4]float32{values[k*4], values[k*4+1], values[k*4+2], values[k*4+3]}}
			}
			channel.RotationKeys = keys
		}
	}
	return clip, nil
}

// gltfNodeTransform returns the TRS transform of a node. Nodes carrying a matrix keep the identity
// transform here; their matrix is applied through gltfNodeMatrix.
func gltfNodeTransform(node *gltfNode) model.Transform {
	t := model.Transform{Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
	if node.Translation != nil {
		t.Translation = *node.Translation
	}
	if node.Rotation != nil {
		t.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		t.Scale = *node.Scale
	}
	return t
}

// gltfNodeMatrix returns the local matrix of a node, composing TRS when no matrix is given.
func gltfNodeMatrix(node *gltfNode) [16]float32 {
	if node.Matrix != nil {
		return *node.Matrix
	}
	t := gltfNodeTransform(node)
	return common.ComposeMatrix(t.Translation, t.Rotation, t.Scale)
}

// gltfSamplerToStagingData converts a glTF sampler into SamplerStagingData.
// Unset fields fall back to linear filtering and repeat wrapping.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
//
// Parameters:
//   - s: the glTF sampler to convert
//
// Returns:
//   - common.SamplerStagingData: the converted sampler configuration
func gltfSamplerToStagingData(s *gltfSampler) common.SamplerStagingData {
	result := common.DefaultSamplerStagingData()

	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		result.MagFilter = wgpu.FilterModeNearest
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = wgpu.FilterModeNearest
		}
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterLinear, gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest:
			result.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}

	if s.WrapS != nil {
		result.AddressModeU = gltfWrapToAddressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		result.AddressModeV = gltfWrapToAddressMode(*s.WrapT)
	}
	return result
}

// gltfWrapToAddressMode converts a glTF wrap mode constant to a wgpu AddressMode.
func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
