// Package nodelink renders lineage views as node-link diagrams.
//
// # Overview
//
// A [view.View] already carries every node's size and every edge's
// relevance; what it lacks is positions. This package hands the view to
// Graphviz, which acts as the layout engine: [ToDOT] produces DOT source with
// fixed-size boxes, and [RenderSVG] or [RenderPNG] run Graphviz in-process.
//
//	v := view.Build(g, view.DefaultOptions(focal))
//	dot := nodelink.ToDOT(v, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// On-path nodes and edges use the highlight color, off-path ones are grey.
// The focal node gets a thicker outline. Edges produced by the synthesizer
// (jobs or datasets hidden in between) are dashed.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system install is required.
package nodelink
