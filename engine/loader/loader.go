// Package loader imports batches of user-supplied files into an editor document. Each file is
// matched against a static format registry, read asynchronously in its declared mode, decoded,
// and handed to the document as a command. Texture references issued while decoding resolve
// against the other files of the same batch.
package loader

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/sandbox"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

const (
	defaultQueueSize    = 64
	defaultImageWorkers = 2
	workerIdleTimeout   = 5 * time.Second

	// noSupportedFormatMessage is shown when none of the files of a batch is recognized.
	noSupportedFormatMessage = "No supported file format"
)

// ProgressFunc observes read progress of one file. total is -1 when the size is unknown.
type ProgressFunc func(file string, loaded, total int64)

// loader is the implementation of the Loader interface.
type loader struct {
	doc      document.Document
	direct   document.DirectEditor
	notifier document.Notifier
	logger   *zap.Logger
	tracer   trace.Tracer
	runner   sandbox.Runner
	progress ProgressFunc

	texturePath    string
	companionMatch CompanionMatch
	legacyDirect   bool
	overrides      map[string]codec.Decoder

	queueSize    int
	imageWorkers int

	// imagePools decode textures. Each pool runs a single worker so Stop reaches it.
	imagePools []worker.DynamicWorkerPool
	taskID     atomic.Int64
}

// Loader imports batches of files into a document.
type Loader interface {
	// ImportBatch dispatches every file of the batch and returns without waiting for reads or
	// decodes. Recognition is decided synchronously; when no file is recognized the user is
	// alerted once. The returned batch owns the texture cache that decoders of this batch use.
	//
	// Parameters:
	//   - ctx: the context carried into every pipeline of the batch
	//   - files: the batch, in caller order
	//
	// Returns:
	//   - Batch: the handle of the running batch
	ImportBatch(ctx context.Context, files []InputFile) Batch

	// Close stops the texture decode workers. Call it once every batch has been waited for;
	// the loader must not be used afterwards.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader that delivers its results to doc.
//
// Parameters:
//   - doc: the document receiving imported objects
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader configured with the provided options
func NewLoader(doc document.Document, options ...LoaderBuilderOption) Loader {
	l := &loader{
		doc:          doc,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer("github.com/Carmen-Shannon/oxy-editor/engine/loader"),
		overrides:    make(map[string]codec.Decoder),
		queueSize:    defaultQueueSize,
		imageWorkers: defaultImageWorkers,
	}

	for _, option := range options {
		option(l)
	}

	if l.runner == nil {
		l.runner = sandbox.NewJSRunner(sandbox.WithLogger(l.logger))
	}
	for range l.imageWorkers {
		l.imagePools = append(l.imagePools, worker.NewDynamicWorkerPool(1, l.queueSize, workerIdleTimeout))
	}
	return l
}

func (l *loader) Close() {
	for _, pool := range l.imagePools {
		pool.Stop()
	}
}

func (l *loader) ImportBatch(ctx context.Context, files []InputFile) Batch {
	b := l.newBatch(ctx, files)

	for _, file := range files {
		if l.dispatch(ctx, file, b) {
			b.recognized++
		}
	}

	l.logger.Info("batch dispatched", zap.Int("files", len(files)), zap.Int("recognized", b.recognized))
	if b.recognized == 0 {
		l.alert(noSupportedFormatMessage)
	}
	return b
}

// dispatch starts the pipeline of one file on its own goroutine and reports whether its format
// is recognized. Unrecognized files have no side effects.
func (l *loader) dispatch(ctx context.Context, file InputFile, b *batch) bool {
	desc, ok := LookupFormat(file.Name)
	if !ok {
		err := zerr.With(zerr.Wrap(ErrUnrecognizedFormat, file.Ext()), "file", file.Name)
		l.logger.Debug("skipping file", zap.String("file", file.Name), zap.Error(err))
		return false
	}

	l.logger.Debug("dispatching file",
		zap.String("file", file.Name),
		zap.String("ext", file.Ext()),
		zap.String("mode", desc.ReadMode.String()),
	)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		err := guard(file.Name, func() error {
			if desc.RequiresCompanion {
				return l.runCompanion(ctx, file, desc, b)
			}
			return l.runPipeline(ctx, file, desc, b)
		})
		if err != nil {
			b.fail(err)
			l.logger.Warn("import failed", zap.String("file", file.Name), zap.Error(err))
		}
	}()
	return true
}

// guard runs fn and turns a panic into a decode failure of name.
func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(zerr.Wrap(ErrDecodeFailure, fmt.Sprintf("panic: %v", r)), "file", name)
		}
	}()
	return fn()
}

// decoderFor returns the registered override for the family, or its built-in decoder.
func (l *loader) decoderFor(desc FormatDescriptor) codec.Decoder {
	if d, ok := l.overrides[desc.Name]; ok {
		return d
	}
	for _, ext := range desc.Extensions {
		if d, ok := l.overrides[ext]; ok {
			return d
		}
	}
	return desc.Decoder
}

// alert shows message through the notifier, or logs it when none is configured.
func (l *loader) alert(message string) {
	if l.notifier == nil {
		l.logger.Warn("alert", zap.String("message", message))
		return
	}
	l.notifier.Alert(message)
}

// nextDecodeTask returns the id of the next texture decode and the pool that runs it.
func (l *loader) nextDecodeTask() (int, worker.DynamicWorkerPool) {
	id := int(l.taskID.Add(1))
	return id, l.imagePools[id%len(l.imagePools)]
}
