package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// readChunkSize is the granularity of progress events.
const readChunkSize = 64 * 1024

// runPipeline reads, decodes and emits one file.
func (l *loader) runPipeline(ctx context.Context, file InputFile, desc FormatDescriptor, b *batch) (err error) {
	ctx, span := l.startSpan(ctx, file, desc)
	defer endSpan(span, &err)

	content, err := l.read(ctx, file, desc.ReadMode)
	if err != nil {
		return err
	}

	res, err := l.decoderFor(desc).Decode(ctx, b.textures, file.Name, content)
	if err != nil {
		if errors.Is(err, ErrMalformedDocument) {
			l.alert(err.Error())
		}
		return err
	}
	if desc.Wrap != nil {
		res = desc.Wrap(file.Name, res)
	}
	span.SetAttributes(attribute.String("result", res.Kind.String()))
	return l.emit(file.Name, res)
}

// emit hands a decode result to the document.
func (l *loader) emit(name string, res codec.Result) error {
	var err error
	switch res.Kind {
	case codec.ResultObjectAddition:
		err = l.doc.Execute(document.AddObjectCommand{Object: res.Object})
	case codec.ResultSceneReplacement:
		err = l.doc.Execute(document.SetSceneCommand{Scene: res.Scene})
	case codec.ResultDocumentReplacement:
		err = l.doc.LoadSnapshot(res.Snapshot)
	default:
		l.logger.Debug("nothing to emit", zap.String("file", name))
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "document rejected "+res.Kind.String()), "file", name)
	}
	l.logger.Info("imported file", zap.String("file", name), zap.Stringer("result", res.Kind))
	return nil
}

// read loads the whole file in mode, reporting progress after every chunk.
func (l *loader) read(ctx context.Context, file InputFile, mode codec.ReadMode) (codec.Content, error) {
	_, span := l.tracer.Start(ctx, "loader.read", trace.WithAttributes(attribute.String("file", file.Name)))
	defer span.End()

	r, err := file.Source.Open()
	if err != nil {
		span.RecordError(err)
		return codec.Content{}, zerr.With(zerr.Wrap(ErrReadFailure, err.Error()), "file", file.Name)
	}
	defer r.Close()

	total := file.Source.Size()
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, readChunkSize)
	var loaded int64
	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			loaded += int64(n)
			l.reportProgress(file.Name, loaded, total)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			span.RecordError(rerr)
			return codec.Content{}, zerr.With(zerr.Wrap(ErrReadFailure, rerr.Error()), "file", file.Name)
		}
	}

	var content codec.Content
	if mode == codec.ReadBinary {
		content = codec.BinaryContent(buf.Bytes())
	} else {
		content = codec.TextContent(buf.String())
	}
	l.logger.Debug("read file",
		zap.String("file", file.Name),
		zap.Stringer("mode", mode),
		zap.Int("bytes", content.Len()),
		zap.String("checksum", fmt.Sprintf("%016x", content.Checksum())),
	)
	return content, nil
}

// reportProgress logs a progress event as "(N KB) P%" and forwards it to the progress observer.
func (l *loader) reportProgress(name string, loaded, total int64) {
	if ce := l.logger.Check(zap.DebugLevel, "loading"); ce != nil {
		fields := []zap.Field{zap.String("file", name), zap.Int64("loaded", loaded)}
		if total > 0 {
			fields = append(fields,
				zap.String("size", fmt.Sprintf("(%d KB)", total/1000)),
				zap.String("progress", fmt.Sprintf("%d%%", loaded*100/total)),
			)
		}
		ce.Write(fields...)
	}
	if l.progress != nil {
		l.progress(name, loaded, total)
	}
}

// startSpan opens the span covering the pipeline of one file.
func (l *loader) startSpan(ctx context.Context, file InputFile, desc FormatDescriptor) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, "loader.dispatch", trace.WithAttributes(
		attribute.String("file", file.Name),
		attribute.String("ext", file.Ext()),
		attribute.String("format", desc.Name),
		attribute.String("mode", desc.ReadMode.String()),
	))
}

// endSpan records *errp on span and ends it.
func endSpan(span trace.Span, errp *error) {
	if *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}
	span.End()
}
