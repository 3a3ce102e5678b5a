package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) catalogCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the node types documents may use",
		Long: `Catalog lists the node types known to this installation: the builtin
catalog merged with the files configured under [catalog] files. Documents
that use other types restore with those nodes skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.Config.LoadCatalog()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, t := range cat.NodeTypes() {
				if category != "" && !strings.EqualFold(t.Category, category) {
					continue
				}
				rows = append(rows, []string{
					t.ID,
					t.Label,
					t.Category,
					strconv.Itoa(len(t.Inputs)),
					strconv.Itoa(len(t.Outputs)),
					strconv.Itoa(len(t.Declared)),
				})
			}
			if len(rows) == 0 {
				printInfo("No node types match")
				return nil
			}
			printTable([]string{"Type", "Label", "Category", "In", "Out", "Props"}, rows)
			printDetail("%d node types", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list types in this category")
	return cmd
}
