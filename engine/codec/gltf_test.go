package codec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three float32 positions followed by three uint16 indices and two bytes of padding.
const gltfTriangleBuffer = "AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAgD8AAAAAAAABAAIAAAA="

// A 1x1 red PNG.
const gltfRedPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR4nGP4z8DwHwAFAAH/iZk9HQAAAABJRU5ErkJggg=="

const gltfTriangle = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"nodes": [0]}],
	"nodes": [{"name": "tri", "mesh": 0, "translation": [0, 2, 0]}],
	"meshes": [{"name": "triMesh", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
	"materials": [{"name": "paint", "alphaMode": "BLEND",
		"pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0, 0.8], "metallicFactor": 0, "baseColorTexture": {"index": 0}},
		"normalTexture": {"index": 1}}],
	"textures": [{"source": 0, "sampler": 0}, {"source": 1}],
	"samplers": [{"magFilter": 9728, "wrapS": 33071, "wrapT": 33648}],
	"images": [{"name": "red", "uri": "data:image/png;base64,` + gltfRedPixel + `"}, {"uri": "normals.png"}],
	"accessors": [
		{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
		{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
	],
	"bufferViews": [
		{"buffer": 0, "byteOffset": 0, "byteLength": 36},
		{"buffer": 0, "byteOffset": 36, "byteLength": 6}
	],
	"buffers": [{"byteLength": 44, "uri": "data:application/octet-stream;base64,` + gltfTriangleBuffer + `"}]
}`

// TestGLTFDecoder_Triangle verifies the object tree, materials and textures of a glTF document.
func TestGLTFDecoder_Triangle(t *testing.T) {
	env := &stubEnv{}
	res, err := GLTFDecoder().Decode(context.Background(), env, "model.gltf", BinaryContent([]byte(gltfTriangle)))
	require.NoError(t, err)
	require.Equal(t, ResultObjectAddition, res.Kind)

	root := res.Object
	assert.Equal(t, "model.gltf", root.Name)
	require.Len(t, root.Children, 1)

	mesh := root.Children[0]
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, model.ObjectTypeMesh, mesh.Type)
	assert.Equal(t, float32(2), mesh.Matrix[13])
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, mesh.Geometry.Positions)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Geometry.Indices)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, mesh.Geometry.Normals)

	mat := mesh.Material
	assert.Equal(t, "paint", mat.Name)
	assert.Equal(t, [3]float32{1, 0.5, 0}, mat.Color)
	assert.Equal(t, float32(0.8), mat.Opacity)
	assert.Equal(t, float32(0), mat.Metalness)
	assert.True(t, mat.Transparent)

	require.NotNil(t, mat.Map)
	assert.Equal(t, "red", mat.Map.Name())
	assert.Contains(t, env.embedded, "red")
	sampler := mat.Map.Sampler()
	assert.Equal(t, wgpu.FilterModeNearest, sampler.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, sampler.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, sampler.AddressModeV)

	require.NotNil(t, mat.NormalMap)
	assert.Equal(t, []string{"normals.png"}, env.resolved)
}

// TestGLTFDecoder_GLB verifies that GLB containers are split into their JSON and binary chunks.
func TestGLTFDecoder_GLB(t *testing.T) {
	bin, err := base64.StdEncoding.DecodeString(gltfTriangleBuffer)
	require.NoError(t, err)

	doc := []byte(`{"asset":{"version":"2.0"},"nodes":[{"mesh":0}],` +
		`"meshes":[{"primitives":[{"attributes":{"POSITION":0},"mode":0}]}],` +
		`"accessors":[{"bufferView":0,"componentType":5126,"count":3,"type":"VEC3"}],` +
		`"bufferViews":[{"buffer":0,"byteLength":36}],"buffers":[{"byteLength":44}]}`)
	for len(doc)%4 != 0 {
		doc = append(doc, ' ')
	}

	var glb bytes.Buffer
	total := 12 + 8 + len(doc) + 8 + len(bin)
	for _, v := range []uint32{gltfGLBMagic, gltfGLBVersion, uint32(total), uint32(len(doc)), gltfGLBChunkJSON} {
		require.NoError(t, binary.Write(&glb, binary.LittleEndian, v))
	}
	glb.Write(doc)
	for _, v := range []uint32{uint32(len(bin)), gltfGLBChunkBIN} {
		require.NoError(t, binary.Write(&glb, binary.LittleEndian, v))
	}
	glb.Write(bin)

	res, err := GLTFDecoder().Decode(context.Background(), &stubEnv{}, "cloud.glb", BinaryContent(glb.Bytes()))
	require.NoError(t, err)

	root := res.Object
	assert.Equal(t, "cloud.glb", root.Name)
	require.Len(t, root.Children, 1)
	assert.Equal(t, model.ObjectTypePoints, root.Children[0].Type)
	assert.Equal(t, 3, root.Children[0].Geometry.VertexCount())
}

// TestGLTFDecoder_Skinned verifies joints remapping, skeleton order and animation extraction.
func TestGLTFDecoder_Skinned(t *testing.T) {
	// Positions (36 bytes), joints as 3 x u8vec4 (12 bytes), weights as 3 x vec4 (48 bytes),
	// animation times (2 floats) and rotations (2 x vec4).
	var buf bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.Write([]byte{0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0})
	for i := 0; i < 3; i++ {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{1, 0, 0, 0}))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{0, 1}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0.7071, 0, 0.7071}))
	data := base64.StdEncoding.EncodeToString(buf.Bytes())

	// Joint order in the skin lists the child before its parent.
	doc := `{
		"asset": {"version": "2.0"},
		"nodes": [
			{"name": "body", "mesh": 0, "skin": 0},
			{"name": "arm", "translation": [1, 0, 0]},
			{"name": "shoulder", "children": [1]}
		],
		"skins": [{"joints": [1, 2]}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0, "JOINTS_0": 1, "WEIGHTS_0": 2}}]}],
		"animations": [{"name": "raise",
			"channels": [{"sampler": 0, "target": {"node": 1, "path": "rotation"}}],
			"samplers": [{"input": 3, "output": 4}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5121, "count": 3, "type": "VEC4"},
			{"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC4"},
			{"bufferView": 3, "componentType": 5126, "count": 2, "type": "SCALAR"},
			{"bufferView": 4, "componentType": 5126, "count": 2, "type": "VEC4"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 12},
			{"buffer": 0, "byteOffset": 48, "byteLength": 48},
			{"buffer": 0, "byteOffset": 96, "byteLength": 8},
			{"buffer": 0, "byteOffset": 104, "byteLength": 32}
		],
		"buffers": [{"byteLength": 136, "uri": "data:application/octet-stream;base64,` + data + `"}]
	}`

	res, err := GLTFDecoder().Decode(context.Background(), &stubEnv{}, "rig.gltf", BinaryContent([]byte(doc)))
	require.NoError(t, err)

	root := res.Object
	assert.Equal(t, []string{"raise"}, root.UserData["animations"])

	var body *model.Object
	root.Traverse(func(o *model.Object) {
		if o.Name == "body" {
			body = o
		}
	})
	require.NotNil(t, body)
	assert.Equal(t, model.ObjectTypeSkinnedMesh, body.Type)

	skel := body.Skeleton
	require.NotNil(t, skel)
	assert.Equal(t, "shoulder", skel.Bones[0].Name)
	assert.Equal(t, int32(-1), skel.Bones[0].ParentIndex)
	assert.Equal(t, "arm", skel.Bones[1].Name)
	assert.Equal(t, int32(0), skel.Bones[1].ParentIndex)

	// Joint 0 (arm) is bone 1 after sorting; joint 1 (shoulder) is bone 0.
	assert.Equal(t, []uint32{1, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1}, body.Geometry.SkinIndices)

	clip := body.Geometry.Animation
	require.NotNil(t, clip)
	assert.Equal(t, "raise", clip.Name)
	assert.Equal(t, float32(1), clip.Duration)
	require.Len(t, clip.Channels, 1)
	assert.Equal(t, int32(1), clip.Channels[0].BoneIndex)
	assert.Len(t, clip.Channels[0].RotationKeys, 2)
	assert.True(t, body.Animated)
}

// TestGLTFDecoder_InvalidVersion verifies that glTF 1.0 assets are rejected.
func TestGLTFDecoder_InvalidVersion(t *testing.T) {
	_, err := GLTFDecoder().Decode(context.Background(), &stubEnv{}, "old.gltf", BinaryContent([]byte(`{"asset":{"version":"1.0"}}`)))
	assert.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "invalid glTF version")
}

// TestGLTFDecoder_ExternalBuffer verifies that buffers in sibling files are reported.
func TestGLTFDecoder_ExternalBuffer(t *testing.T) {
	doc := `{"asset":{"version":"2.0"},"buffers":[{"byteLength":4,"uri":"scene.bin"}]}`
	_, err := GLTFDecoder().Decode(context.Background(), &stubEnv{}, "scene.gltf", BinaryContent([]byte(doc)))
	assert.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "external buffers are not supported")
}
