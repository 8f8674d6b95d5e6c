package commands

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-editor/engine/loader"
	"github.com/Carmen-Shannon/oxy-editor/engine/logging"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrImportFailed is returned when at least one file of the batch failed. The summary has
// already been printed.
var ErrImportFailed = zerr.New("import failed")

// objectSummary is the printed form of one top-level object.
type objectSummary struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Meshes    int      `yaml:"meshes"`
	Vertices  int      `yaml:"vertices"`
	Materials []string `yaml:"materials,omitempty"`
}

// importSummary is the printed result of an import.
type importSummary struct {
	Scene      string          `yaml:"scene"`
	Files      int             `yaml:"files"`
	Recognized int             `yaml:"recognized"`
	Objects    []objectSummary `yaml:"objects"`
	Textures   int             `yaml:"textures"`
	History    []string        `yaml:"history,omitempty"`
	Snapshot   bool            `yaml:"snapshot,omitempty"`
	Alerts     []string        `yaml:"alerts,omitempty"`
	Errors     []string        `yaml:"errors,omitempty"`
}

func (c *CLI) newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import files into a new scene and print a summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("texture-path"); v != "" {
				cfg.TexturePath = v
			}

			logger, _, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			files, err := readFiles(cmd, args)
			if err != nil {
				return err
			}

			sc := scene.NewScene("import", scene.WithLogger(logger))
			options := append(cfg.LoaderOptions(),
				loader.WithNotifier(sc),
				loader.WithDirectEditor(sc),
				loader.WithLogger(logger),
				loader.WithProgress(func(file string, loaded, total int64) {
					logger.Debug("read progress", zap.String("file", file), zap.Int64("loaded", loaded), zap.Int64("total", total))
				}),
			)
			l := loader.NewLoader(sc, options...)
			batch := l.ImportBatch(cmd.Context(), files)
			batch.Wait()
			l.Close()

			summary := summarize(sc, batch, len(files))
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(summary); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if len(summary.Errors) > 0 {
				logger.Warn("batch finished with errors", zap.Int("errors", len(summary.Errors)))
				return ErrImportFailed
			}
			return nil
		},
	}
	cmd.Flags().StringP("texture-path", "t", "", "Prefix prepended to texture names referenced by JSON documents")
	return cmd
}

// readFiles checks every path concurrently and returns the batch with sources that read from
// disk when the loader opens them. The MIME type is derived from the extension.
func readFiles(cmd *cobra.Command, paths []string) ([]loader.InputFile, error) {
	files := make([]loader.InputFile, len(paths))
	g, _ := errgroup.WithContext(cmd.Context())
	for i, path := range paths {
		g.Go(func() error {
			info, err := os.Stat(path)
			if err != nil {
				return zerr.With(zerr.Wrap(loader.ErrReadFailure, err.Error()), "path", path)
			}
			if info.IsDir() {
				return zerr.With(zerr.Wrap(loader.ErrReadFailure, "is a directory"), "path", path)
			}
			files[i] = loader.InputFile{
				Name:   filepath.Base(path),
				Type:   mime.TypeByExtension(filepath.Ext(path)),
				Source: loader.FileSource(path),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// summarize collects the printable state of the scene after a batch.
func summarize(sc scene.Scene, batch loader.Batch, files int) importSummary {
	s := importSummary{
		Scene:      sc.Root().Name,
		Files:      files,
		Recognized: batch.Recognized(),
		Textures:   batch.Textures().Len(),
		History:    sc.History(),
		Snapshot:   sc.Snapshot() != nil,
		Alerts:     sc.Alerts(),
	}
	for _, obj := range sc.Root().Children {
		s.Objects = append(s.Objects, describe(obj))
	}
	for _, err := range batch.Errors() {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}

func describe(obj *model.Object) objectSummary {
	out := objectSummary{Name: obj.Name, Type: string(obj.Type)}
	seen := make(map[string]bool)
	for _, mesh := range obj.Meshes() {
		out.Meshes++
		if mesh.Geometry != nil {
			out.Vertices += mesh.Geometry.VertexCount()
		}
		if mesh.Material != nil && !seen[mesh.Material.Name] && mesh.Material.Name != "" {
			seen[mesh.Material.Name] = true
			out.Materials = append(out.Materials, mesh.Material.Name)
		}
	}
	return out
}
