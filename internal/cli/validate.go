package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
)

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>",
		Short: "Check that documents restore cleanly",
		Long: `Validate restores each document into a scratch library and reports the
warnings a real import would produce. Given a directory, every .bnodes file
directly inside it is checked.

The command fails if any document cannot be restored at all. Warnings do
not fail it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			entries, err := loadEntries(args[0])
			if err != nil {
				return err
			}

			failed := 0
			for _, e := range entries {
				if e.Err != nil {
					printError("%s: %s", e.Path, errors.UserMessage(e.Err))
					failed++
					continue
				}
				docDir, _ := filepath.Abs(filepath.Dir(e.Path))
				res, err := runner.Validate(cmd.Context(), e.Doc, docDir, nil)
				if err != nil {
					printError("%s: %s", e.Path, errors.UserMessage(err))
					failed++
					continue
				}
				if len(res.Warnings) == 0 {
					printSuccess("%s: %d nodes, %d links", e.Path, res.Nodes, res.Links)
					continue
				}
				printWarning("%s: %d nodes, %d links, %d warnings", e.Path, res.Nodes, res.Links, len(res.Warnings))
				for _, w := range res.Warnings {
					printDetail("%s", w)
				}
			}

			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidDocument, "%d of %d documents failed validation", failed, len(entries))
			}
			return nil
		},
	}
}

// loadEntries reads a single document or every document in a directory.
func loadEntries(path string) ([]document.Entry, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if info.IsDir() {
		entries, err := document.ImportDir(path)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New(errors.ErrCodeNotFound, "no %s files in %s", document.Extension, path)
		}
		return entries, nil
	}
	doc, err := document.ImportJSON(path)
	return []document.Entry{{Path: path, Doc: doc, Err: err}}, nil
}
