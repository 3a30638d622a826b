package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// pointsPerInch converts view sizes (points) to Graphviz inches.
const pointsPerInch = 72.0

// Colors for the two-tone highlight.
const (
	colorOnPath  = "#1f6feb"
	colorOffPath = "#b0b7c3"
	fillJob      = "#eef4ff"
	fillDataset  = "#ffffff"
	fillFocal    = "#fff4d6"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed lists dataset fields under the dataset name. Sizes are taken
	// from the view either way, so a compact view stays compact.
	Detailed bool
}

// ToDOT converts a view to Graphviz DOT format. Node boxes are fixed to the
// sizes computed by the view, on-path nodes and edges are drawn in the
// highlight color, and synthesized edges are dashed.
func ToDOT(v view.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontsize=8, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		attrs := nodeAttrs(n, n.ID == v.FocalID, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range v.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n view.Node, focal, detailed bool) []string {
	color := colorOffPath
	if n.OnPath {
		color = colorOnPath
	}
	fill := fillDataset
	if n.Kind == lineage.KindJob {
		fill = fillJob
	}
	if focal {
		fill = fillFocal
	}

	attrs := []string{
		fmt.Sprintf("label=%q", label(n, detailed)),
		"width=" + inches(n.Width),
		"height=" + inches(n.Height),
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("fillcolor=%q", fill),
	}
	if focal {
		attrs = append(attrs, "penwidth=2")
	}
	if n.Kind == lineage.KindJob {
		attrs = append(attrs, "shape=box", "style=\"filled\"")
	}
	return attrs
}

func label(n view.Node, detailed bool) string {
	name := n.Payload.Name()
	if name == "" {
		name = n.ID
	}
	ds, ok := n.Payload.Dataset()
	if !detailed || !ok || len(ds.Fields) == 0 {
		return name
	}
	lines := []string{name}
	for _, f := range ds.Fields {
		if f.Type == "" {
			lines = append(lines, f.Name)
			continue
		}
		lines = append(lines, f.Name+": "+f.Type)
	}
	return strings.Join(lines, "\n")
}

func edgeAttrs(e view.Edge) []string {
	color := colorOffPath
	if e.Relevance == view.OnPath {
		color = colorOnPath
	}
	attrs := []string{fmt.Sprintf("id=%q", e.ID), fmt.Sprintf("color=%q", color)}
	if e.Synthetic {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based root element with a plain
// pixel-sized one so browsers scale the diagram.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
