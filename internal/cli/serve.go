package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve <graph>",
		Short: "Serve lineage views over HTTP",
		Long: `Serve a lineage graph over HTTP.

Endpoints:
  GET /healthz          build and graph information
  GET /api/v1/nodes     node IDs, kinds and names (?kind=job|dataset)
  GET /api/v1/lineage   the view for ?nodeId= with depth, isFull, isCompact,
                        showJobs, showDatasets, collapsedNodes and format

The graph file is reloaded when it changes unless --watch=false.`,
		Example: `  stacklineage serve lineage.json --addr :9000
  curl 'localhost:9000/api/v1/lineage?nodeId=dataset:default:orders&showDatasets=false'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv, err := server.New(ctx, server.Config{
				Addr:      cfg.Server.Addr,
				GraphPath: args[0],
				Watch:     cfg.Server.Watch,
				Runner:    runner,
				Logger:    c.Logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}

	f := cmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.Bool("watch", true, "reload the graph file when it changes")
	f.BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
