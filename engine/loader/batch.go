package loader

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// Batch is the handle of one ImportBatch call.
type Batch interface {
	// Recognized returns the number of files whose extension matched the registry.
	//
	// Returns:
	//   - int: the recognized count
	Recognized() int

	// Wait blocks until every pipeline and texture decode started by the batch has finished.
	Wait()

	// Errors returns the per-file failures collected so far. Call Wait first for the final list.
	//
	// Returns:
	//   - []error: the failures in completion order
	Errors() []error

	// Textures returns the texture cache scoped to this batch.
	//
	// Returns:
	//   - TextureCache: the batch texture cache
	Textures() TextureCache
}

// batch is the implementation of the Batch interface.
type batch struct {
	recognized int
	textures   *textureCache

	wg sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

var _ Batch = &batch{}

// newBatch creates the batch state and its texture cache. Texture reads run on their own
// goroutines, decodes run on the image pools, and both are tracked by the batch wait group.
func (l *loader) newBatch(ctx context.Context, files []InputFile) *batch {
	b := &batch{}
	b.textures = &textureCache{
		entries:     make(map[string]*textureEntry),
		ctx:         ctx,
		files:       files,
		texturePath: l.texturePath,
		runner:      l.runner,
		logger:      l.logger,
		tracer:      l.tracer,
	}
	b.textures.schedule = func(name string, read func() ([]byte, error), decode func([]byte) error) {
		b.wg.Add(1)
		go func() {
			data, err := read()
			if err != nil {
				b.textureFailed(l.logger, name, err)
				b.wg.Done()
				return
			}

			id, pool := l.nextDecodeTask()
			pool.SubmitTask(worker.Task{
				ID:      id,
				Payload: name,
				Do: func() (any, error) {
					defer b.wg.Done()
					err := guard(name, func() error { return decode(data) })
					if err != nil {
						b.textureFailed(l.logger, name, err)
					}
					return nil, err
				},
			})
		}()
	}
	return b
}

func (b *batch) Recognized() int {
	return b.recognized
}

func (b *batch) Wait() {
	b.wg.Wait()
}

func (b *batch) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]error, len(b.errs))
	copy(out, b.errs)
	return out
}

func (b *batch) Textures() TextureCache {
	return b.textures
}

func (b *batch) textureFailed(logger *zap.Logger, name string, err error) {
	b.fail(err)
	logger.Warn("texture decode failed", zap.String("texture", name), zap.Error(err))
}

func (b *batch) fail(err error) {
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}
