package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// A 1x1 red PNG.
var redPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR4nGP4z8DwHwAFAAH/iZk9HQAAAABJRU5ErkJggg==")

// countingSource counts how often its bytes are opened.
type countingSource struct {
	data  []byte
	opens atomic.Int32
}

func (s *countingSource) Open() (io.ReadCloser, error) {
	s.opens.Add(1)
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *countingSource) Size() int64 { return int64(len(s.data)) }

// newTestCache builds a cache whose decodes run on their own goroutines, tracked by the returned
// wait group.
func newTestCache(files ...InputFile) (*textureCache, *sync.WaitGroup, *[]error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	c := &textureCache{
		entries: make(map[string]*textureEntry),
		ctx:     context.Background(),
		files:   files,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("test"),
	}
	c.schedule = func(_ string, read func() ([]byte, error), decode func([]byte) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := read()
			if err == nil {
				err = decode(data)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	return c, &wg, &errs
}

func imageFile(name string, src ByteSource) InputFile {
	return InputFile{Name: name, Type: "image/png", Source: src}
}

// TestTextureCache_ExactMatchWins verifies that an exact name match beats an earlier substring match.
func TestTextureCache_ExactMatchWins(t *testing.T) {
	c, wg, _ := newTestCache(
		imageFile("wood.png", BytesSource(redPixel)),
		imageFile("dark_wood.png", BytesSource(redPixel)),
	)

	tex := c.Resolve("textures/DARK_WOOD.png", nil)
	wg.Wait()

	require.NotNil(t, tex)
	assert.Equal(t, "dark_wood.png", tex.Name())
	assert.True(t, tex.Ready())
}

// TestTextureCache_SubstringFallback verifies that path-prefixed or renamed references match loosely
// and that batch order decides between several substring matches.
func TestTextureCache_SubstringFallback(t *testing.T) {
	c, wg, _ := newTestCache(
		imageFile("wood.png", BytesSource(redPixel)),
		imageFile("od.png", BytesSource(redPixel)),
	)

	tex := c.Resolve("C:/models/old_wood.png", nil)
	wg.Wait()

	require.NotNil(t, tex)
	assert.Equal(t, "wood.png", tex.Name())
}

// TestTextureCache_Memoized verifies that repeated lookups in any case share one handle and one decode.
func TestTextureCache_Memoized(t *testing.T) {
	src := &countingSource{data: redPixel}
	c, wg, _ := newTestCache(imageFile("Wood.JPG", src))

	first := c.Resolve("wood.jpg", nil)
	second := c.Resolve("maps/WOOD.jpg", nil)
	wg.Wait()

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.opens.Load())
	assert.Equal(t, 1, c.Len())
}

// TestTextureCache_ConcurrentLookups verifies that concurrent lookups of one name decode once.
func TestTextureCache_ConcurrentLookups(t *testing.T) {
	src := &countingSource{data: redPixel}
	c, wg, _ := newTestCache(imageFile("brick.png", src))

	var lookups sync.WaitGroup
	handles := make([]*model.Texture, 16)
	for i := range handles {
		lookups.Add(1)
		go func() {
			defer lookups.Done()
			handles[i] = c.Resolve("brick.png", nil)
		}()
	}
	lookups.Wait()
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, int32(1), src.opens.Load())
}

// TestTextureCache_NotFoundMemoized verifies that misses are remembered.
func TestTextureCache_NotFoundMemoized(t *testing.T) {
	c, _, _ := newTestCache(imageFile("wood.png", BytesSource(redPixel)))

	assert.Nil(t, c.Resolve("stone.png", nil))
	tex, ok := c.Lookup("STONE.png")
	assert.True(t, ok)
	assert.Nil(t, tex)
}

// TestTextureCache_NotAnImage verifies that matches with a non-image type resolve to nil, permanently.
func TestTextureCache_NotAnImage(t *testing.T) {
	src := &countingSource{data: []byte("newmtl x")}
	c, _, _ := newTestCache(InputFile{Name: "wood.mtl", Type: "text/plain", Source: src})

	assert.Nil(t, c.Resolve("wood.mtl", nil))
	assert.Nil(t, c.Resolve("wood.mtl", nil))
	assert.Equal(t, int32(0), src.opens.Load())
}

// TestTextureCache_Callbacks verifies that completion callbacks run once pixels are set,
// including callbacks registered after the decode finished.
func TestTextureCache_Callbacks(t *testing.T) {
	c, wg, _ := newTestCache(imageFile("wood.png", BytesSource(redPixel)))

	var calls atomic.Int32
	onLoad := func(tex *model.Texture) {
		assert.True(t, tex.Ready())
		calls.Add(1)
	}

	c.Resolve("wood.png", onLoad)
	wg.Wait()
	c.Resolve("wood.png", onLoad)

	assert.Equal(t, int32(2), calls.Load())
}

// TestTextureCache_DecodeFailure verifies that undecodable images are reported and stay empty.
func TestTextureCache_DecodeFailure(t *testing.T) {
	c, wg, errs := newTestCache(imageFile("broken.png", BytesSource([]byte("not a png"))))

	tex := c.Resolve("broken.png", nil)
	wg.Wait()

	require.NotNil(t, tex)
	assert.False(t, tex.Ready())
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], ErrDecodeFailure)
}

// TestTextureCache_Embedded verifies that embedded images decode without touching the cache.
func TestTextureCache_Embedded(t *testing.T) {
	c, wg, _ := newTestCache()

	tex := c.EmbeddedTexture("diffuse", redPixel)
	wg.Wait()

	assert.True(t, tex.Ready())
	assert.Equal(t, 0, c.Len())
}
