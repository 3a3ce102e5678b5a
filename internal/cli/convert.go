package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/pipeline"
)

func (c *CLI) convertCommand() *cobra.Command {
	var (
		output   string
		pathMode string
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a document, optionally switching path mode",
		Long: `Convert restores a document into a scratch library and exports it again.

With --path-mode relative the referenced asset files are copied next to the
output document and recorded by bare name, which makes the document and its
directory portable. With --path-mode absolute the recorded paths point at
the files wherever the input document found them.`,
		Example: `  nodeio convert material.bnodes -o share/material.bnodes --path-mode relative`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--output is required")
			}
			if pathMode == "" {
				pathMode = c.Config.Export.PathMode
			}
			mode, err := assets.ParsePathMode(pathMode)
			if err != nil {
				return err
			}
			indent := c.Config.Export.Indent
			if cmd.Flags().Changed("compact") {
				indent = !compact
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(cmd.Context()))
			spinner := newSpinner(cmd.Context(), "Converting "+args[0]+"...")
			spinner.Start()
			res, err := runner.Convert(cmd.Context(), args[0], output, pipeline.ConvertOptions{
				PathMode: mode,
				Indent:   indent,
			})
			if err != nil {
				spinner.StopWithError("Conversion failed")
				return err
			}
			spinner.Stop()

			printSuccess("Converted %s", args[0])
			printFile(res.Export.Path)
			for _, p := range res.Export.Staged {
				printFile(p)
			}
			printWarnings(res.Warnings())
			prog.done("converted document")
			printNextStep("Check the result", "nodeio validate "+res.Export.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output document path")
	cmd.Flags().StringVar(&pathMode, "path-mode", "", "dependency paths: absolute or relative (default from config)")
	cmd.Flags().BoolVar(&compact, "compact", false, "write the document without indentation")
	return cmd
}
