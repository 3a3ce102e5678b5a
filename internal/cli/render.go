package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/pipeline"
	"github.com/matzehuels/nodeio/pkg/render"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		group    string
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw one group of a document",
		Long: `Render draws one group of a document as a node-link diagram: nodes are
boxes labelled with name and type, frames enclose their children, group
nodes name the group they use, and edges carry socket indices.

Without --group, an interactive picker lists the groups when stdout is a
terminal; otherwise "main" is drawn.`,
		Example: `  nodeio render material.bnodes --group Grain -o grain.svg
  nodeio render material.bnodes --format dot | dot -Tpng > main.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" && (f == render.FormatPDF || f == render.FormatPNG) {
				return errors.New(errors.ErrCodeInvalidInput, "%s output needs --output", f)
			}
			if err := errors.ValidatePath(args[0]); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", args[0])
			}

			if group == "" {
				group, err = c.chooseGroup(args[0])
				if err != nil {
					return err
				}
				if group == "" {
					return nil
				}
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			out, err := runner.Render(cmd.Context(), data, pipeline.RenderOptions{
				Group:    group,
				Format:   f,
				Detailed: detailed,
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
			}
			printSuccess("Rendered %s", StyleGroup.Render(groupLabel(group)))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "group to draw (default: pick interactively, or main)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, pdf, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list node attributes in the labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "render without the artifact cache")
	return cmd
}

// chooseGroup asks for a group when the document has more than one and
// the session is interactive. Otherwise it returns "main".
func (c *CLI) chooseGroup(path string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return document.MainGroup, nil
	}
	runner, err := c.newRunner(true)
	if err != nil {
		return "", err
	}
	defer runner.Close()
	sum, err := runner.Inspect(path)
	if err != nil {
		return "", err
	}
	if len(sum.Groups) < 2 {
		return document.MainGroup, nil
	}
	return pickGroup(sum.Groups)
}

func groupLabel(group string) string {
	if group == document.MainGroup {
		return "main graph"
	}
	return "group " + group
}
