package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
)

// viewOpts holds the command-local flags of "view".
type viewOpts struct {
	focus    string
	depth    int
	formats  []string
	output   string
	detailed bool
	noCache  bool
	refresh  bool
}

// addViewFlags registers the view toggles shared by view, explore and serve.
// Their values reach commands through the loaded Config.
func addViewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("full", false, "show every node, not only those on the focal node's path")
	f.Bool("compact", false, "collapse every dataset to its name")
	f.Bool("jobs", true, "show task jobs (jobs with a parent); top-level jobs are always shown")
	f.Bool("datasets", true, "show dataset nodes")
	f.StringSlice("collapsed", nil, "dataset IDs to collapse (comma-separated)")
}

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	opts := &viewOpts{}

	cmd := &cobra.Command{
		Use:   "view <graph>",
		Short: "Build the view around a focal node",
		Long: `Build the view around a focal node and write it as JSON (for an external
layout engine), Graphviz DOT, SVG or PNG.

The graph is a Marquez-style lineage JSON file or a TOML file.`,
		Example: `  # Print the view as JSON
  stacklineage view lineage.json --focus dataset:default:orders

  # Jobs only, rendered with Graphviz
  stacklineage view lineage.json --focus dataset:default:orders --datasets=false -f svg -o orders.svg

  # Everything, with datasets collapsed
  stacklineage view lineage.json --focus job:default:load --full --compact -f json,dot -o out/view`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd, args[0], opts)
		},
	}

	addViewFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.focus, "focus", "", "focal node ID (required unless --full)")
	f.IntVar(&opts.depth, "depth", 0, "limit traversal to this many hops (0 = unlimited)")
	f.StringSliceVarP(&opts.formats, "format", "f", []string{pipeline.FormatJSON}, "output formats: json, dot, svg, png")
	f.StringVarP(&opts.output, "output", "o", "", "output file (extension added per format when several are requested)")
	f.BoolVar(&opts.detailed, "detailed", false, "list dataset fields in DOT, SVG and PNG labels")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "rebuild even if cached")
	_ = cmd.RegisterFlagCompletionFunc("focus", completeFocus)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// requireFocus rejects a view with no focal node unless the whole graph is
// shown.
func requireFocus(focus string, full bool) error {
	if focus == "" && !full {
		return errors.New(errors.ErrCodeInvalidInput, "--focus is required unless --full is set")
	}
	return nil
}

func focusLabel(focus string) string {
	if focus == "" {
		return "(whole graph)"
	}
	return focus
}

func (c *CLI) runView(cmd *cobra.Command, path string, opts *viewOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	vopts := c.config().ViewOptions(opts.focus)
	if err := requireFocus(opts.focus, vopts.Full); err != nil {
		return err
	}

	popts := pipeline.Options{
		Path:     path,
		View:     vopts,
		Depth:    opts.depth,
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Logger:   logger,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	var spinner *Spinner
	if needsGraphviz(popts.Formats) {
		spinner = newSpinner(ctx, "Rendering with Graphviz...")
		spinner.Start()
	}
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built view of %d nodes", result.Stats.ViewNodeCount))

	if _, ok := result.View.Node(opts.focus); !ok && !popts.View.Full {
		printWarning("Focal node %s is not in the graph; the view is empty", opts.focus)
	}

	if opts.output == "" && len(popts.Formats) == 1 && isText(popts.Formats[0]) {
		_, err := os.Stdout.Write(result.Artifacts[popts.Formats[0]])
		return err
	}

	paths, err := outputPaths(opts.output, popts.Formats)
	if err != nil {
		return err
	}
	printSuccess("View of %s", StyleHighlight.Render(focusLabel(opts.focus)))
	printStats(result.Stats.ViewNodeCount, result.Stats.ViewEdgeCount, result.CacheInfo.ViewHit)
	for _, format := range popts.Formats {
		p := paths[format]
		if err := writeArtifact(p, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(p)
	}
	return nil
}

func needsGraphviz(formats []string) bool {
	return slices.Contains(formats, pipeline.FormatSVG) || slices.Contains(formats, pipeline.FormatPNG)
}

func isText(format string) bool {
	return format == pipeline.FormatJSON || format == pipeline.FormatDOT
}

// outputPaths maps each format to a file. A single format writes to output
// as given; several formats share output as a base name. Without output the
// base name is "lineage".
func outputPaths(output string, formats []string) (map[string]string, error) {
	if output != "" {
		if err := errors.ValidatePath(output); err != nil {
			return nil, err
		}
	}
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths, nil
	}

	base := output
	if base == "" {
		base = "lineage"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths, nil
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
