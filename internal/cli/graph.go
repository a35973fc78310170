package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/pkg/pipeline"
	"github.com/matzehuels/depmanifest/pkg/render"
)

// graphCommand creates the graph command for drawing a resolution.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    resolveFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <manifest>",
		Short: "Draw the resolved dependencies as a graph",
		Long: `Graph resolves a manifest and draws the project, its platform and every
dependency. Edge style encodes the role; dashed edges connect the platform
to the dependencies whose version it supplies.`,
		Example: `  depmanifest graph build.gradle.kts -o deps.svg
  depmanifest graph pom.xml --format dot | dot -Tpdf > deps.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			result, err := c.resolve(ctx, args[0], flags)
			if err != nil {
				return err
			}

			spinner := newSpinner(ctx, c.status, "Rendering "+format+"...")
			spinner.Start()
			data, err := pipeline.Render(ctx, result, pipeline.GraphOptions{Format: format, Detailed: detailed})
			if err != nil {
				spinner.StopWithError("Rendering failed")
				return err
			}
			spinner.Stop()

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered %d dependencies", len(result.Dependencies))
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatSVG, "output format ("+strings.Join(render.Formats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show roles in node labels")
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(render.Formats))

	return cmd
}
