package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/petski/rector-src/pkg/rules/registry"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// NewListRulesCommand creates the list-rules command.
func NewListRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-rules",
		Short: "Show the registered rules",
		RunE: func(_ *cobra.Command, _ []string) error {
			reg := registry.NewRegistry()

			writer := table.NewWriter()
			writer.SetOutputMirror(os.Stdout)
			writer.AppendHeader(table.Row{"Rule", "Configurable", "Description"})

			for _, name := range reg.Names() {
				described, err := reg.Describe(name)
				if err != nil {
					return err
				}

				_, configurable := described.(rule.Configurable)

				writer.AppendRow(table.Row{described.Name(), configurable, described.Description()})
			}

			writer.Render()

			return nil
		},
	}
}
