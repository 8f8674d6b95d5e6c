package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/codec"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"

	"go.opentelemetry.io/otel/attribute"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// CompanionMatch selects how a material library is picked for an OBJ file.
type CompanionMatch int

const (
	// CompanionMatchFirst picks the first .mtl file of the batch regardless of its name.
	CompanionMatchFirst CompanionMatch = iota
	// CompanionMatchSameStem prefers the .mtl file sharing the OBJ file's stem and falls back
	// to CompanionMatchFirst.
	CompanionMatchSameStem
)

// String returns "first" or "same-stem".
func (m CompanionMatch) String() string {
	if m == CompanionMatchSameStem {
		return "same-stem"
	}
	return "first"
}

// ParseCompanionMatch parses "first" or "same-stem".
//
// Parameters:
//   - s: the textual mode
//
// Returns:
//   - CompanionMatch: the parsed mode
//   - error: error if s names no mode
func ParseCompanionMatch(s string) (CompanionMatch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return CompanionMatchFirst, nil
	case "same-stem", "samestem":
		return CompanionMatchSameStem, nil
	default:
		return CompanionMatchFirst, fmt.Errorf("unknown companion match %q", s)
	}
}

// findCompanion returns the material library for primary according to mode.
//
// Parameters:
//   - primary: the OBJ file
//   - files: the batch, in caller order
//   - mode: the matching policy
//
// Returns:
//   - InputFile: the material library
//   - bool: false when the batch holds no .mtl file
func findCompanion(primary InputFile, files []InputFile, mode CompanionMatch) (InputFile, bool) {
	if mode == CompanionMatchSameStem {
		stem, _ := common.SplitName(primary.Name)
		for _, f := range files {
			if strings.EqualFold(f.Name, stem+".mtl") {
				return f, true
			}
		}
	}
	for _, f := range files {
		if extension(f.Name) == "mtl" {
			return f, true
		}
	}
	return InputFile{}, false
}

// runCompanion imports an OBJ file together with its material library. Without a library the
// file goes through the standard pipeline with default materials.
func (l *loader) runCompanion(ctx context.Context, file InputFile, desc FormatDescriptor, b *batch) (err error) {
	mtl, ok := findCompanion(file, b.textures.files, l.companionMatch)
	if !ok {
		l.logger.Debug("importing without materials",
			zap.String("file", file.Name),
			zap.Error(zerr.With(ErrMissingCompanion, "file", file.Name)),
		)
		return l.runPipeline(ctx, file, desc, b)
	}

	ctx, span := l.startSpan(ctx, file, desc)
	defer endSpan(span, &err)
	span.SetAttributes(attribute.String("companion", mtl.Name))

	// The library is read before the geometry.
	mtlContent, err := l.read(ctx, mtl, codec.ReadText)
	if err != nil {
		return err
	}
	objContent, err := l.read(ctx, file, desc.ReadMode)
	if err != nil {
		return err
	}

	creator, err := codec.ParseMTL(mtlContent.String(), b.textures)
	if err != nil {
		return zerr.With(err, "companion", mtl.Name)
	}
	creator.Preload()

	obj, err := codec.ParseOBJ(objContent.String(), creator)
	if err != nil {
		return zerr.With(err, "file", file.Name)
	}
	obj.Traverse(func(o *model.Object) {
		if !o.IsMesh() || o.Material == nil || o.Material.Name == "" {
			return
		}
		if m := creator.Create(o.Material.Name); m != nil {
			o.Material = m
		}
	})
	obj.Name = file.Name

	if l.legacyDirect && l.direct != nil {
		l.direct.AddObject(obj)
		l.direct.Select(obj)
		l.logger.Info("imported file", zap.String("file", file.Name), zap.String("companion", mtl.Name), zap.Bool("direct", true))
		return nil
	}
	if err := l.doc.Execute(document.AddObjectCommand{Object: obj}); err != nil {
		return zerr.With(zerr.Wrap(err, "document rejected ObjectAddition"), "file", file.Name)
	}
	l.logger.Info("imported file", zap.String("file", file.Name), zap.String("companion", mtl.Name))
	return nil
}
