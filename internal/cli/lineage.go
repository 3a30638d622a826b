package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/pkg/errors"
	pkgio "github.com/matzehuels/stacklineage/pkg/io"
	"github.com/matzehuels/stacklineage/pkg/lineage"
)

// lineageOpts holds options for the lineage command.
type lineageOpts struct {
	output     string
	upstream   bool
	downstream bool
	depth      int
}

// lineageOutput is the JSON form of a lineage listing.
type lineageOutput struct {
	Root       string        `json:"root"`
	Upstream   []lineageNode `json:"upstream,omitempty"`
	Downstream []lineageNode `json:"downstream,omitempty"`
}

type lineageNode struct {
	ID   string       `json:"id"`
	Kind lineage.Kind `json:"kind"`
	Name string       `json:"name"`
}

// lineageCommand creates the lineage command.
func (c *CLI) lineageCommand() *cobra.Command {
	opts := &lineageOpts{}

	cmd := &cobra.Command{
		Use:   "lineage <graph> <node>",
		Short: "List what a node depends on and what depends on it",
		Long: `List the upstream and downstream nodes of a node in breadth-first order,
without any filtering or edge synthesis.`,
		Example: `  # Full lineage of a dataset
  stacklineage lineage lineage.json dataset:default:orders

  # Only the direct inputs
  stacklineage lineage lineage.json dataset:default:orders --downstream=false --depth 1

  # As JSON
  stacklineage lineage lineage.json job:default:load -o json`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeLineageArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "text", "output format (text|json)")
	f.BoolVar(&opts.upstream, "upstream", true, "include upstream nodes")
	f.BoolVar(&opts.downstream, "downstream", true, "include downstream nodes")
	f.IntVar(&opts.depth, "depth", 0, "max traversal depth (0 = unlimited)")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions([]string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runLineage(w io.Writer, path, id string, opts *lineageOpts) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	if err := errors.ValidateDepth(opts.depth); err != nil {
		return err
	}
	g, err := pkgio.Import(path)
	if err != nil {
		return err
	}

	idx := lineage.NewIndex(g)
	if !idx.Has(id) {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not in graph", id)
	}

	out := lineageOutput{Root: id}
	if opts.upstream {
		out.Upstream = listNodes(idx.UpstreamDepth(id, opts.depth))
	}
	if opts.downstream {
		out.Downstream = listNodes(idx.DownstreamDepth(id, opts.depth))
	}

	switch opts.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "text", "":
		return lineageTable(w, out, opts)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q (use text or json)", opts.output)
	}
}

// listNodes drops the leading focal node of a traversal.
func listNodes(nodes []*lineage.Node) []lineageNode {
	if len(nodes) > 0 {
		nodes = nodes[1:]
	}
	out := make([]lineageNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, lineageNode{ID: n.ID, Kind: n.Kind(), Name: n.Payload.Name()})
	}
	return out
}

func lineageTable(w io.Writer, out lineageOutput, opts *lineageOpts) error {
	fmt.Fprintf(w, "Lineage for: %s\n\n", out.Root)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Direction", "Kind", "Name", "ID"})

	if opts.upstream {
		for _, n := range out.Upstream {
			t.AppendRow(table.Row{"upstream", n.Kind, n.Name, n.ID})
		}
	}
	if opts.upstream && opts.downstream {
		t.AppendSeparator()
	}
	if opts.downstream {
		for _, n := range out.Downstream {
			t.AppendRow(table.Row{"downstream", n.Kind, n.Name, n.ID})
		}
	}
	t.AppendFooter(table.Row{"", "", "upstream", len(out.Upstream)})
	t.AppendFooter(table.Row{"", "", "downstream", len(out.Downstream)})
	t.Render()
	return nil
}
