package codec

import (
	"context"
	"encoding/json"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// babylonScene is the subset of the Babylon.js scene format read by the Babylon decoders.
type babylonScene struct {
	Materials      []babylonMaterial      `json:"materials"`
	MultiMaterials []babylonMultiMaterial `json:"multiMaterials"`
	Meshes         []babylonMesh          `json:"meshes"`
	Lights         []babylonNode          `json:"lights"`
	Cameras        []babylonNode          `json:"cameras"`
}

type babylonMaterial struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Diffuse       *[3]float32 `json:"diffuse"`
	Specular      *[3]float32 `json:"specular"`
	SpecularPower *float32    `json:"specularPower"`
	Emissive      *[3]float32 `json:"emissive"`
	Alpha         *float32    `json:"alpha"`
}

type babylonMultiMaterial struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Materials []string `json:"materials"`
}

// babylonNode holds the transform fields shared by meshes, lights and cameras.
type babylonNode struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	ParentID           string      `json:"parentId"`
	Position           *[3]float32 `json:"position"`
	Rotation           *[3]float32 `json:"rotation"`
	RotationQuaternion *[4]float32 `json:"rotationQuaternion"`
	Scaling            *[3]float32 `json:"scaling"`
}

type babylonMesh struct {
	babylonNode
	MaterialID string           `json:"materialId"`
	Positions  []float32        `json:"positions"`
	Normals    []float32        `json:"normals"`
	UVs        []float32        `json:"uvs"`
	Indices    []uint32         `json:"indices"`
	SubMeshes  []babylonSubMesh `json:"subMeshes"`
}

type babylonSubMesh struct {
	MaterialIndex int `json:"materialIndex"`
	IndexStart    int `json:"indexStart"`
	IndexCount    int `json:"indexCount"`
}

// BabylonDecoder decodes a Babylon.js scene file into a scene root replacing the current scene.
//
// Returns:
//   - Decoder: the Babylon scene decoder
func BabylonDecoder() Decoder {
	return DecoderFunc(func(_ context.Context, _ Env, name string, content Content) (Result, error) {
		var doc babylonScene
		if err := json.Unmarshal(content.Bytes(), &doc); err != nil {
			return None(), decodeError("babylon", err.Error())
		}
		scene, err := buildBabylonScene(&doc)
		if err != nil {
			return None(), decodeError("babylon", err.Error())
		}
		scene.Name = name
		return ReplaceScene(scene), nil
	})
}

// BabylonMeshDataDecoder decodes a single Babylon.js mesh data file into a mesh named after the
// file with a default material.
//
// Returns:
//   - Decoder: the Babylon mesh data decoder
func BabylonMeshDataDecoder() Decoder {
	return MeshDecoder("", func(content Content) (*model.Geometry, error) {
		var mesh babylonMesh
		if err := json.Unmarshal(content.Bytes(), &mesh); err != nil {
			return nil, decodeError("babylonmeshdata", err.Error())
		}
		g, err := babylonGeometry(&mesh)
		if err != nil {
			return nil, decodeError("babylonmeshdata", err.Error())
		}
		return g, nil
	})
}

func buildBabylonScene(doc *babylonScene) (*model.Object, error) {
	materials := make(map[string]*model.Material, len(doc.Materials)+len(doc.MultiMaterials))
	for _, m := range doc.Materials {
		mat := model.NewPhongMaterial(m.Name)
		if m.Diffuse != nil {
			mat.Color = *m.Diffuse
		}
		if m.Specular != nil {
			mat.Specular = *m.Specular
		}
		if m.SpecularPower != nil {
			mat.Shininess = *m.SpecularPower
		}
		if m.Emissive != nil {
			mat.Emissive = *m.Emissive
		}
		if m.Alpha != nil {
			mat.Opacity = *m.Alpha
			mat.Transparent = *m.Alpha < 1
		}
		materials[m.ID] = mat
	}
	for _, mm := range doc.MultiMaterials {
		slots := make([]*model.Material, len(mm.Materials))
		for i, id := range mm.Materials {
			slots[i] = materials[id]
			if slots[i] == nil {
				slots[i] = model.NewPhongMaterial(id)
			}
		}
		multi := model.NewMultiMaterial(slots)
		multi.Name = mm.Name
		materials[mm.ID] = multi
	}

	scene := model.NewObject(model.ObjectTypeScene)
	byID := make(map[string]*model.Object)
	type pending struct {
		obj    *model.Object
		parent string
	}
	var nodes []pending

	for i := range doc.Meshes {
		m := &doc.Meshes[i]
		var obj *model.Object
		if len(m.Positions) == 0 {
			obj = model.NewObject(model.ObjectTypeObject)
		} else {
			g, err := babylonGeometry(m)
			if err != nil {
				return nil, err
			}
			obj = model.NewMesh(g, materials[m.MaterialID])
		}
		obj.Name = m.Name
		obj.Matrix = m.matrix()
		nodes = append(nodes, pending{obj, m.ParentID})
		byID[m.ID] = obj
	}
	for _, l := range doc.Lights {
		obj := model.NewObject(model.ObjectTypeLight, model.WithName(l.Name), model.WithMatrix(l.matrix()))
		nodes = append(nodes, pending{obj, l.ParentID})
		byID[l.ID] = obj
	}
	for _, c := range doc.Cameras {
		obj := model.NewObject(model.ObjectTypeCamera, model.WithName(c.Name), model.WithMatrix(c.matrix()))
		nodes = append(nodes, pending{obj, c.ParentID})
		byID[c.ID] = obj
	}

	for _, n := range nodes {
		if parent, ok := byID[n.parent]; ok && parent != n.obj {
			parent.Add(n.obj)
			continue
		}
		scene.Add(n.obj)
	}
	return scene, nil
}

func babylonGeometry(m *babylonMesh) (*model.Geometry, error) {
	if len(m.Positions)%3 != 0 {
		return nil, errMalformed("positions length is not a multiple of 3")
	}

	g := model.NewGeometry()
	g.Name = m.Name
	g.Positions = m.Positions
	g.Indices = m.Indices

	n := g.VertexCount()
	if len(m.Normals) == n*3 {
		g.Normals = m.Normals
	}
	if len(m.UVs) == n*2 {
		g.UVs = m.UVs
	}
	for _, idx := range g.Indices {
		if int(idx) >= n {
			return nil, errMalformed("index out of range")
		}
	}
	for _, sm := range m.SubMeshes {
		g.AddGroup(sm.IndexStart, sm.IndexCount, sm.MaterialIndex)
	}
	if len(g.Groups) <= 1 {
		g.Groups = nil
	}
	return g, nil
}

func (n *babylonNode) matrix() [16]float32 {
	t := [3]float32{}
	if n.Position != nil {
		t = *n.Position
	}
	q := [4]float32{0, 0, 0, 1}
	switch {
	case n.RotationQuaternion != nil:
		q = *n.RotationQuaternion
	case n.Rotation != nil:
		q = common.EulerToQuaternion(*n.Rotation)
	}
	s := [3]float32{1, 1, 1}
	if n.Scaling != nil {
		s = *n.Scaling
	}
	return common.ComposeMatrix(t, q, s)
}
