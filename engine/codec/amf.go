package codec

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// amfDocument is the subset of the Additive Manufacturing File format read by the AMF decoder.
type amfDocument struct {
	XMLName   xml.Name      `xml:"amf"`
	Unit      string        `xml:"unit,attr"`
	Materials []amfMaterial `xml:"material"`
	Objects   []amfObject   `xml:"object"`
}

type amfMetadata struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type amfColor struct {
	R float32  `xml:"r"`
	G float32  `xml:"g"`
	B float32  `xml:"b"`
	A *float32 `xml:"a"`
}

type amfMaterial struct {
	ID       string        `xml:"id,attr"`
	Metadata []amfMetadata `xml:"metadata"`
	Color    *amfColor     `xml:"color"`
}

type amfObject struct {
	ID       string        `xml:"id,attr"`
	Metadata []amfMetadata `xml:"metadata"`
	Color    *amfColor     `xml:"color"`
	Vertices []amfVertex   `xml:"mesh>vertices>vertex"`
	Volumes  []amfVolume   `xml:"mesh>volume"`
}

type amfVertex struct {
	X  float32  `xml:"coordinates>x"`
	Y  float32  `xml:"coordinates>y"`
	Z  float32  `xml:"coordinates>z"`
	NX *float32 `xml:"normal>nx"`
	NY *float32 `xml:"normal>ny"`
	NZ *float32 `xml:"normal>nz"`
}

type amfVolume struct {
	MaterialID string        `xml:"materialid,attr"`
	Metadata   []amfMetadata `xml:"metadata"`
	Color      *amfColor     `xml:"color"`
	Triangles  []struct {
		V1 uint32 `xml:"v1"`
		V2 uint32 `xml:"v2"`
		V3 uint32 `xml:"v3"`
	} `xml:"triangle"`
}

// AMFDecoder decodes AMF files, plain XML or zip-compressed, into a group holding one group per
// object and one mesh per volume.
//
// Returns:
//   - Decoder: the AMF decoder
func AMFDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, _ Env, name string, content Content) (Result, error) {
		obj, err := ParseAMF(content.Bytes())
		if err != nil {
			return None(), err
		}
		obj.Name = common.Coalesce(obj.Name, name)
		return AddObject(obj), nil
	})
}

// ParseAMF parses an AMF document. Volume colors take precedence over material colors, which take
// precedence over object colors.
//
// Parameters:
//   - data: the file bytes, plain XML or a zip archive holding one .amf entry
//
// Returns:
//   - *model.Object: the group holding the parsed objects
//   - error: error if the document is malformed
func ParseAMF(data []byte) (*model.Object, error) {
	data, err := amfUnzip(data)
	if err != nil {
		return nil, decodeError("amf", err.Error())
	}

	var doc amfDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, decodeError("amf", err.Error())
	}

	materials := make(map[string]*model.Material, len(doc.Materials))
	for _, m := range doc.Materials {
		mat := model.NewPhongMaterial(common.Coalesce(amfName(m.Metadata), m.ID))
		applyAMFColor(mat, m.Color)
		materials[m.ID] = mat
	}

	root := model.NewObject(model.ObjectTypeGroup, model.WithUserData(map[string]any{"unit": common.Coalesce(doc.Unit, "millimeter")}))
	for _, o := range doc.Objects {
		group := model.NewObject(model.ObjectTypeGroup, model.WithName(common.Coalesce(amfName(o.Metadata), o.ID)))

		positions := make([]float32, 0, len(o.Vertices)*3)
		var normals []float32
		for _, v := range o.Vertices {
			positions = append(positions, v.X, v.Y, v.Z)
			if v.NX != nil && v.NY != nil && v.NZ != nil {
				normals = append(normals, *v.NX, *v.NY, *v.NZ)
			}
		}
		if len(normals) != len(positions) {
			normals = nil
		}

		for _, vol := range o.Volumes {
			g := model.NewGeometry()
			g.Positions = positions
			g.Normals = normals
			for _, t := range vol.Triangles {
				for _, idx := range [3]uint32{t.V1, t.V2, t.V3} {
					if int(idx) >= len(o.Vertices) {
						return nil, decodeError("amf", "triangle references missing vertex in object "+o.ID)
					}
				}
				g.Indices = append(g.Indices, t.V1, t.V2, t.V3)
			}
			g.ComputeVertexNormals()

			mat := model.NewPhongMaterial(common.Coalesce(amfName(vol.Metadata), vol.MaterialID))
			switch {
			case vol.Color != nil:
				applyAMFColor(mat, vol.Color)
			case materials[vol.MaterialID] != nil:
				mat = materials[vol.MaterialID]
			default:
				applyAMFColor(mat, o.Color)
			}
			group.Add(model.NewMesh(g, mat))
		}
		root.Add(group)
	}
	return root, nil
}

// amfUnzip returns the first .amf entry when data is a zip archive, else data unchanged.
func amfUnzip(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("PK")) {
		return data, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".amf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errMalformed("archive holds no .amf entry")
}

func amfName(metadata []amfMetadata) string {
	for _, m := range metadata {
		if m.Type == "name" {
			return strings.TrimSpace(m.Value)
		}
	}
	return ""
}

func applyAMFColor(mat *model.Material, c *amfColor) {
	if c == nil {
		return
	}
	mat.Color = [3]float32{c.R, c.G, c.B}
	if c.A != nil {
		mat.Opacity = *c.A
		mat.Transparent = *c.A < 1
	}
}
