package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"

	"github.com/google/uuid"
)

// Texture is a texture handle. Importers hand out the handle immediately and fill its
// pixels later, once the source image has been decoded; Version increases on every update.
// All methods are safe for concurrent use.
type Texture struct {
	mu sync.RWMutex

	uuid       string
	name       string
	sourceFile string
	sampler    common.SamplerStagingData

	pixels      []byte
	width       int
	height      int
	version     int
	needsUpdate bool
}

// NewTexture creates an empty texture handle.
//
// Parameters:
//   - name: the texture name (usually the referenced file name)
//   - sourceFile: the batch file the pixels will come from (may be empty for embedded images)
//
// Returns:
//   - *Texture: the placeholder handle
func NewTexture(name, sourceFile string) *Texture {
	return &Texture{
		uuid:       uuid.NewString(),
		name:       name,
		sourceFile: sourceFile,
		sampler:    common.DefaultSamplerStagingData(),
	}
}

// UUID returns the texture identifier.
func (t *Texture) UUID() string { return t.uuid }

// Name returns the texture name.
func (t *Texture) Name() string { return t.name }

// SourceFile returns the batch file backing the texture.
func (t *Texture) SourceFile() string { return t.sourceFile }

// Sampler returns the sampling configuration.
func (t *Texture) Sampler() common.SamplerStagingData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sampler
}

// SetSampler overrides the sampling configuration.
//
// Parameters:
//   - s: the sampler configuration
func (t *Texture) SetSampler(s common.SamplerStagingData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler = s
}

// SetImage stores decoded pixels and marks the texture as needing a GPU update.
//
// Parameters:
//   - img: the decoded image
func (t *Texture) SetImage(img *common.DecodedImage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pixels = img.Pixels
	t.width = img.Width
	t.height = img.Height
	t.version++
	t.needsUpdate = true
}

// Image returns the current pixels and dimensions; pixels is nil until the image is decoded.
//
// Returns:
//   - []byte: RGBA pixel data
//   - int: width in pixels
//   - int: height in pixels
func (t *Texture) Image() ([]byte, int, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pixels, t.width, t.height
}

// Ready reports whether pixel data has been populated.
func (t *Texture) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pixels != nil
}

// NeedsUpdate reports whether pixels changed since the last AcknowledgeUpdate.
func (t *Texture) NeedsUpdate() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.needsUpdate
}

// AcknowledgeUpdate clears the update flag once a consumer has uploaded the pixels.
func (t *Texture) AcknowledgeUpdate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.needsUpdate = false
}

// Version returns the number of pixel updates applied to the texture.
func (t *Texture) Version() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}
