package loader

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// TextureCache resolves the texture references of one batch against the files of that batch.
// Every distinct base filename is looked up and decoded at most once, and failed lookups are
// remembered as well.
type TextureCache interface {
	codec.Env

	// Lookup returns the cached outcome for a path without searching the batch.
	//
	// Parameters:
	//   - path: the referenced path
	//
	// Returns:
	//   - *model.Texture: the cached handle, nil for a remembered miss
	//   - bool: false when the path has not been resolved yet
	Lookup(path string) (*model.Texture, bool)

	// Len returns the number of cached filenames, misses included.
	//
	// Returns:
	//   - int: the entry count
	Len() int
}

// textureEntry is the cached outcome for one base filename. A nil texture is a remembered miss.
type textureEntry struct {
	texture *model.Texture
	loaded  bool
	waiters []func(*model.Texture)
}

// textureCache is the implementation of the TextureCache interface.
type textureCache struct {
	mu      sync.Mutex
	entries map[string]*textureEntry

	ctx         context.Context
	files       []InputFile
	texturePath string
	runner      sandbox.Runner
	logger      *zap.Logger
	tracer      trace.Tracer

	// schedule reads and then decodes a texture off the calling goroutine and reports failures.
	schedule func(name string, read func() ([]byte, error), decode func([]byte) error)
}

var _ TextureCache = &textureCache{}

func (c *textureCache) Resolve(path string, onLoad func(*model.Texture)) *model.Texture {
	key := textureKey(path)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		tex := entry.texture
		callNow := false
		if tex != nil && onLoad != nil {
			if entry.loaded {
				callNow = true
			} else {
				entry.waiters = append(entry.waiters, onLoad)
			}
		}
		c.mu.Unlock()
		if callNow {
			onLoad(tex)
		}
		return tex
	}

	// Insert before unlocking so concurrent lookups of the same name share one outcome.
	entry := &textureEntry{}
	c.entries[key] = entry

	file, found := c.find(key)
	switch {
	case !found:
		c.mu.Unlock()
		c.logger.Info("texture not found", zap.String("path", path))
		return nil
	case !file.IsImage():
		c.mu.Unlock()
		err := zerr.With(zerr.Wrap(ErrUnsupportedContentType, path), "type", file.Type)
		c.logger.Info("unsupported image file format", zap.String("path", path), zap.String("type", file.Type), zap.Error(err))
		return nil
	}

	entry.texture = model.NewTexture(file.Name, file.Name)
	if onLoad != nil {
		entry.waiters = append(entry.waiters, onLoad)
	}
	tex := entry.texture
	c.mu.Unlock()

	c.schedule(file.Name, func() ([]byte, error) {
		return readAll(file)
	}, func(data []byte) error {
		return c.decode(key, tex, data)
	})
	return tex
}

func (c *textureCache) EmbeddedTexture(name string, data []byte) *model.Texture {
	tex := model.NewTexture(name, "")
	c.schedule(name, func() ([]byte, error) {
		return data, nil
	}, func(data []byte) error {
		return c.decode("", tex, data)
	})
	return tex
}

func (c *textureCache) TexturePath() string {
	return c.texturePath
}

func (c *textureCache) IsolatedRunner() sandbox.Runner {
	return c.runner
}

func (c *textureCache) Lookup(path string) (*model.Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[textureKey(path)]
	if !ok {
		return nil, false
	}
	return entry.texture, true
}

func (c *textureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// find searches the batch for an exact case-insensitive name match first, then for the first
// file whose lowercased name is contained in the requested name. Batch order decides ties.
// The caller holds c.mu.
func (c *textureCache) find(key string) (InputFile, bool) {
	for _, f := range c.files {
		if strings.ToLower(f.Name) == key {
			return f, true
		}
	}
	for _, f := range c.files {
		if strings.Contains(key, strings.ToLower(f.Name)) {
			return f, true
		}
	}
	return InputFile{}, false
}

// decode fills tex with the decoded pixels and runs the completion callbacks of key.
func (c *textureCache) decode(key string, tex *model.Texture, data []byte) error {
	_, span := c.tracer.Start(c.ctx, "loader.texture", trace.WithAttributes(attribute.String("texture", tex.Name())))
	defer span.End()

	img, err := common.DecodeImage(data)
	if err != nil {
		span.RecordError(err)
		return zerr.With(zerr.Wrap(ErrDecodeFailure, err.Error()), "texture", tex.Name())
	}
	tex.SetImage(img)
	c.logger.Debug("successfully loaded texture",
		zap.String("texture", tex.Name()),
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)

	if key == "" {
		return nil
	}
	c.mu.Lock()
	entry := c.entries[key]
	entry.loaded = true
	waiters := entry.waiters
	entry.waiters = nil
	c.mu.Unlock()

	for _, fn := range waiters {
		fn(tex)
	}
	return nil
}

// textureKey is the lowercased base filename of a referenced path.
func textureKey(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

// readAll reads the whole file.
func readAll(file InputFile) ([]byte, error) {
	r, err := file.Source.Open()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrReadFailure, err.Error()), "file", file.Name)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrReadFailure, err.Error()), "file", file.Name)
	}
	return data, nil
}
