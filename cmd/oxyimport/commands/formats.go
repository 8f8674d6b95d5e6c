package commands

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/loader"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// formatInfo is the printed form of a format descriptor.
type formatInfo struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
	Mode       string   `yaml:"mode"`
	Companion  bool     `yaml:"companion,omitempty"`
	Pluggable  bool     `yaml:"pluggable,omitempty"`
}

func (c *CLI) newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the recognized file formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var infos []formatInfo
			for _, f := range loader.Formats() {
				infos = append(infos, formatInfo{
					Name:       f.Name,
					Extensions: f.Extensions,
					Mode:       f.ReadMode.String(),
					Companion:  f.RequiresCompanion,
					Pluggable:  f.Pluggable(),
				})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{"formats": infos})
		},
	}
}
