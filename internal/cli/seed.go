package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/internal/sample"
	"github.com/matzehuels/stacklineage/pkg/errors"
	pkgio "github.com/matzehuels/stacklineage/pkg/io"
)

// seedCommand creates the seed command.
func (c *CLI) seedCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the sample lineage graph",
		Long: `Write a twelve-step ETL pipeline as lineage JSON: jobs feeding datasets,
ending in a business intelligence report, with audit tasks under three of
the jobs.

Without --output the graph is printed to stdout.`,
		Example: `  # Generate the sample and view the report's job chain
  stacklineage seed -o sample.json
  stacklineage view sample.json --focus ` + sample.FinalReport + ` --datasets=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := sample.Graph()
			if err != nil {
				return err
			}
			if output == "" {
				return pkgio.WriteJSON(g, cmd.OutOrStdout())
			}
			if err := errors.ValidatePath(output); err != nil {
				return err
			}
			if err := pkgio.ExportJSON(g, output); err != nil {
				return err
			}
			printSuccess("Sample graph")
			printStats(g.NodeCount(), g.EdgeCount(), false)
			printFile(output)
			printNextStep("View the report", "stacklineage view "+output+" --focus "+sample.FinalReport)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
