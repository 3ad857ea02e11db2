package cmd

import (
	"fmt"
	"os"

	"github.com/9oormthon-univ-Veri/vericard/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newStylesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List available background and font presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			palette, err := loadPalette(cfg)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(palette)
			if err != nil {
				return fmt.Errorf("failed to marshal palette: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("failed to write palette file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d backgrounds and %d fonts to %s\n",
					len(palette.Backgrounds), len(palette.Fonts), output)
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the palette to a yaml file instead of stdout")

	return cmd
}
