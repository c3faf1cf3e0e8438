package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/pipeline"
	"github.com/matzehuels/pedigree/pkg/render/dot"
)

// renderCommand creates the "render" command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output string
		opts   dot.Options
	)

	cmd := &cobra.Command{
		Use:   "render [dot|svg]",
		Short: "Draw the pedigree chart as Graphviz DOT or SVG",
		Long: `Draw the pedigree chart as Graphviz DOT or SVG.

Individuals are pinned at their layout coordinates; the SVG is produced by
Graphviz's neato engine, which keeps pinned positions.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{dot.FormatDOT, dot.FormatSVG},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := dot.FormatSVG
			if len(args) == 1 {
				format = args[0]
			}

			ctx := cmd.Context()
			ws, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering "+format+"...")
			if output != "" {
				spinner.Start()
			}
			out, err := ws.session.Render(ctx, pipeline.RenderOptions{Format: format, Options: opts})
			spinner.Stop()
			if err != nil {
				return err
			}

			return c.writeOutput(cmd, output, func(w io.Writer) error {
				_, err := w.Write(out)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", true, "label individuals with ID and name")
	cmd.Flags().BoolVar(&opts.Risks, "risks", false, "add calculated risks to labels")

	return cmd
}
