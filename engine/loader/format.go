package loader

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// FormatDescriptor describes how the files of one format family are read and decoded.
type FormatDescriptor struct {
	// Name identifies the format family in logs and decoder overrides.
	Name string

	// Extensions are the lowercased file extensions of the family.
	Extensions []string

	// ReadMode is the mode the file is read in before decoding.
	ReadMode codec.ReadMode

	// RequiresCompanion marks formats that look for a second file of the batch before decoding.
	RequiresCompanion bool

	// Decoder is the built-in decoder. Pluggable formats carry a decoder that always fails until
	// the embedding application registers one with WithDecoder.
	Decoder codec.Decoder

	// Wrap post-processes every result of the family, including results of registered decoders.
	Wrap func(name string, res codec.Result) codec.Result
}

// Pluggable reports whether the family ships without a built-in decoder.
func (d FormatDescriptor) Pluggable() bool {
	_, ok := pluggableFormats[d.Name]
	return ok
}

var pluggableFormats = map[string]struct{}{
	"awd": {}, "ctm": {}, "dae": {}, "fbx": {}, "kmz": {}, "md2": {}, "playcanvas": {}, "wrl": {},
}

var formats = []FormatDescriptor{
	{Name: "amf", Extensions: []string{"amf"}, ReadMode: codec.ReadBinary, Decoder: codec.AMFDecoder()},
	{Name: "awd", Extensions: []string{"awd"}, ReadMode: codec.ReadBinary, Decoder: codec.Unavailable("awd")},
	{Name: "babylon", Extensions: []string{"babylon"}, ReadMode: codec.ReadText, Decoder: codec.BabylonDecoder()},
	{Name: "babylonmeshdata", Extensions: []string{"babylonmeshdata"}, ReadMode: codec.ReadText, Decoder: codec.BabylonMeshDataDecoder()},
	{Name: "ctm", Extensions: []string{"ctm"}, ReadMode: codec.ReadBinary, Decoder: codec.Unavailable("ctm"), Wrap: wrapSourceMesh("ctm")},
	{Name: "dae", Extensions: []string{"dae"}, ReadMode: codec.ReadText, Decoder: codec.Unavailable("dae"), Wrap: wrapNamedRoot},
	{Name: "fbx", Extensions: []string{"fbx"}, ReadMode: codec.ReadText, Decoder: codec.Unavailable("fbx")},
	{Name: "gltf", Extensions: []string{"glb", "gltf"}, ReadMode: codec.ReadBinary, Decoder: codec.GLTFDecoder(), Wrap: wrapNamedRoot},
	{Name: "json", Extensions: []string{"js", "json", "3geo", "3mat", "3obj", "3scn"}, ReadMode: codec.ReadText, Decoder: JSONDecoder()},
	{Name: "kmz", Extensions: []string{"kmz"}, ReadMode: codec.ReadBinary, Decoder: codec.Unavailable("kmz"), Wrap: wrapNamedRoot},
	{Name: "md2", Extensions: []string{"md2"}, ReadMode: codec.ReadBinary, Decoder: codec.Unavailable("md2"), Wrap: wrapMorphMesh},
	{Name: "obj", Extensions: []string{"obj"}, ReadMode: codec.ReadText, RequiresCompanion: true, Decoder: codec.OBJDecoder()},
	{Name: "playcanvas", Extensions: []string{"playcanvas"}, ReadMode: codec.ReadText, Decoder: codec.Unavailable("playcanvas")},
	{Name: "ply", Extensions: []string{"ply"}, ReadMode: codec.ReadBinary, Decoder: codec.PLYDecoder()},
	{Name: "stl", Extensions: []string{"stl"}, ReadMode: codec.ReadBinary, Decoder: codec.STLDecoder()},
	{Name: "vtk", Extensions: []string{"vtk"}, ReadMode: codec.ReadText, Decoder: codec.VTKDecoder()},
	{Name: "wrl", Extensions: []string{"wrl"}, ReadMode: codec.ReadText, Decoder: codec.Unavailable("wrl")},
}

var formatsByExtension = func() map[string]int {
	index := make(map[string]int)
	for i, f := range formats {
		for _, ext := range f.Extensions {
			index[ext] = i
		}
	}
	return index
}()

// LookupFormat finds the descriptor for a file name by its extension, case-insensitively.
//
// Parameters:
//   - name: the file name
//
// Returns:
//   - FormatDescriptor: the matching descriptor
//   - bool: false when the extension is not registered
func LookupFormat(name string) (FormatDescriptor, bool) {
	i, ok := formatsByExtension[extension(name)]
	if !ok {
		return FormatDescriptor{}, false
	}
	return formats[i], true
}

// Formats returns a copy of the registry in a stable order.
//
// Returns:
//   - []FormatDescriptor: all registered format families
func Formats() []FormatDescriptor {
	out := make([]FormatDescriptor, len(formats))
	copy(out, formats)
	return out
}

// wrapNamedRoot renames the root of scene-container results after the file.
func wrapNamedRoot(name string, res codec.Result) codec.Result {
	switch {
	case res.Object != nil:
		res.Object.Name = name
	case res.Scene != nil:
		res.Scene.Name = name
	}
	return res
}

// wrapSourceMesh tags the geometry of single-mesh results and names the mesh after the file.
func wrapSourceMesh(sourceType string) func(string, codec.Result) codec.Result {
	return func(name string, res codec.Result) codec.Result {
		if res.Object == nil {
			return res
		}
		if g := res.Object.Geometry; g != nil {
			g.SourceType = sourceType
			g.SourceFile = name
		}
		if res.Object.Material == nil {
			res.Object.Material = model.NewStandardMaterial()
		}
		res.Object.Name = name
		return res
	}
}

// wrapMorphMesh rewraps keyframe-animated geometry in a morph-target mesh.
func wrapMorphMesh(name string, res codec.Result) codec.Result {
	if res.Object == nil || res.Object.Geometry == nil {
		return res
	}
	return codec.AddObject(model.NewMorphMesh(res.Object.Geometry, model.WithName(name)))
}
