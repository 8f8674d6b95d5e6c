package codec

import (
	"bufio"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"
)

// mtlInfo holds the raw statements of one newmtl block, keyed by lowercased keyword.
type mtlInfo map[string][]string

// MaterialCreator is the materials provider parsed from an MTL material library.
// Materials are built on first use and shared by every caller asking for the same name.
type MaterialCreator struct {
	mu        sync.Mutex
	textures  TextureResolver
	order     []string
	infos     map[string]mtlInfo
	materials map[string]*model.Material
}

var _ MaterialProvider = &MaterialCreator{}

// ParseMTL parses an MTL material library. Texture map statements are resolved through textures
// when the material is created, so the resolver must stay valid for as long as the creator is used.
//
// Parameters:
//   - text: the MTL text
//   - textures: the resolver for map_* statements, may be nil
//
// Returns:
//   - *MaterialCreator: the materials provider
//   - error: error if a statement appears before the first newmtl
func ParseMTL(text string, textures TextureResolver) (*MaterialCreator, error) {
	c := &MaterialCreator{
		textures:  textures,
		infos:     make(map[string]mtlInfo),
		materials: make(map[string]*model.Material),
	}

	var current mtlInfo
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		keyword := strings.ToLower(fields[0])
		if keyword == "newmtl" {
			name := strings.TrimSpace(line[len(fields[0]):])
			current = make(mtlInfo)
			if _, exists := c.infos[name]; !exists {
				c.order = append(c.order, name)
			}
			c.infos[name] = current
			continue
		}
		if current == nil {
			return nil, decodeError("mtl", "statement "+fields[0]+" before newmtl")
		}
		current[keyword] = fields[1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, decodeError("mtl", err.Error())
	}
	return c, nil
}

// Names returns the declared material names in file order.
//
// Returns:
//   - []string: the material names
func (c *MaterialCreator) Names() []string {
	return append([]string(nil), c.order...)
}

// Preload creates every declared material, resolving all texture maps up front.
func (c *MaterialCreator) Preload() {
	for _, name := range c.order {
		c.Create(name)
	}
}

// Create returns the material declared under name, building it on first use.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - *model.Material: the material, or nil when the library does not declare name
func (c *MaterialCreator) Create(name string) *model.Material {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.materials[name]; ok {
		return m
	}
	info, ok := c.infos[name]
	if !ok {
		return nil
	}

	m := model.NewPhongMaterial(name)
	if v, ok := info.color("kd"); ok {
		m.Color = v
	}
	if v, ok := info.color("ks"); ok {
		m.Specular = v
	}
	if v, ok := info.color("ke"); ok {
		m.Emissive = v
	}
	if v, ok := info.scalar("ns"); ok {
		m.Shininess = v
	}
	if v, ok := info.scalar("d"); ok {
		m.Opacity = v
	} else if v, ok := info.scalar("tr"); ok {
		m.Opacity = 1 - v
	}
	m.Transparent = m.Opacity < 1

	m.Map = c.texture(info, "map_kd")
	m.SpecularMap = c.texture(info, "map_ks")
	m.BumpMap = c.texture(info, "map_bump", "bump")
	m.NormalMap = c.texture(info, "norm")

	c.materials[name] = m
	return m
}

// texture resolves the first present map statement among keywords.
func (c *MaterialCreator) texture(info mtlInfo, keywords ...string) *model.Texture {
	if c.textures == nil {
		return nil
	}
	for _, k := range keywords {
		args, ok := info[k]
		if !ok {
			continue
		}
		if path := mtlTexturePath(args); path != "" {
			return c.textures.Resolve(path, nil)
		}
	}
	return nil
}

func (info mtlInfo) color(keyword string) ([3]float32, bool) {
	args, ok := info[keyword]
	if !ok {
		return [3]float32{}, false
	}
	v, err := parseFloats(args)
	if err != nil || len(v) < 3 {
		return [3]float32{}, false
	}
	return [3]float32{v[0], v[1], v[2]}, true
}

func (info mtlInfo) scalar(keyword string) (float32, bool) {
	args, ok := info[keyword]
	if !ok || len(args) == 0 {
		return 0, false
	}
	v, err := parseFloats(args[:1])
	if err != nil {
		return 0, false
	}
	return v[0], true
}

// mtlOptionArity is the argument count of the texture map options.
var mtlOptionArity = map[string]int{
	"-blendu": 1, "-blendv": 1, "-boost": 1, "-cc": 1, "-clamp": 1, "-imfchan": 1,
	"-texres": 1, "-bm": 1, "-mm": 2, "-o": 3, "-s": 3, "-t": 3, "-type": 1,
}

// mtlTexturePath strips map options and returns the file name.
func mtlTexturePath(args []string) string {
	i := 0
	for i < len(args) {
		arity, ok := mtlOptionArity[strings.ToLower(args[i])]
		if !ok {
			break
		}
		i += 1 + arity
	}
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}
