package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/pipeline"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a node document",
		Long: `Inspect reads a .bnodes document and prints its header, the groups it
contains in restore order, and the asset files it depends on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			sum, err := runner.Inspect(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(args[0], sum)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(path string, s *pipeline.Summary) {
	h := s.Header
	writeLine(StyleTitle.Render(path))
	printNewline()
	printKeyValue("Name", h.Name)
	printKeyValue("ID", h.ID)
	printKeyValue("Kind", h.GraphKind)
	printKeyValue("Version", strconv.Itoa(h.Version))
	printKeyValue("Paths", h.PathMode)
	if !h.Created.IsZero() {
		printKeyValue("Created", h.Created.Format("2006-01-02 15:04:05 MST"))
	}
	if h.Generator != "" {
		printKeyValue("Generator", h.Generator)
	}
	printKeyValue("Nodes", StyleNumber.Render(strconv.Itoa(s.Stats.Nodes)))
	printKeyValue("Links", StyleNumber.Render(strconv.Itoa(s.Stats.Links)))
	printNewline()

	rows := make([][]string, 0, len(s.Groups))
	for i, g := range s.Groups {
		rows = append(rows, []string{strconv.Itoa(i + 1), g.Name, strconv.Itoa(g.Nodes), strconv.Itoa(g.Links)})
	}
	printTable([]string{"#", "Group", "Nodes", "Links"}, rows)

	if len(h.Dependencies) == 0 {
		return
	}
	rows = rows[:0]
	for _, d := range h.Dependencies {
		rows = append(rows, []string{d.Kind, d.Name, d.Path})
	}
	printTable([]string{"Kind", "Name", "Path"}, rows)
}
