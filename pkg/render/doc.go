// Package render turns lineage views into visual outputs.
//
// The [nodelink] subpackage renders a view as a Graphviz node-link diagram
// (DOT, SVG, PNG). JSON output for external layout engines lives in
// [github.com/matzehuels/stacklineage/pkg/io].
//
// [nodelink]: github.com/matzehuels/stacklineage/pkg/render/nodelink
package render
