// Package pkg provides the core libraries for Stacklineage data-lineage views.
//
// # Overview
//
// A lineage graph records which jobs read and write which datasets. Real
// graphs are too large to draw whole, so Stacklineage builds a view around one
// focal node: everything upstream of it, everything downstream of it, and
// optionally the rest of the graph dimmed. The pkg directory is organized as:
//
//  1. [lineage] - Graph model and breadth-first traversal
//  2. [view] - Visibility filter, edge synthesis and node sizing
//  3. [io] - Marquez lineage JSON, TOML fixtures and the view JSON document
//  4. [pipeline] - Orchestration (load → build → render) with caching
//  5. [render] - Graphviz node-link output (DOT, SVG, PNG)
//
// # Architecture
//
// The typical data flow:
//
//	lineage.json / lineage.toml
//	         ↓
//	    [io] package (decode into a lineage.Graph)
//	         ↓
//	    [lineage] package (index, upstream/downstream traversal)
//	         ↓
//	    [view] package (filter, materialize + synthesize edges, size nodes)
//	         ↓
//	    view JSON for a layout engine, or DOT/SVG/PNG via [render/nodelink]
//
// # Quick Start
//
//	g, _ := io.Import("lineage.json")
//
//	opts := view.DefaultOptions("dataset:default:orders")
//	opts.ShowDatasets = false // bridge datasets with job-to-job edges
//
//	v := view.Build(g, opts)
//	for _, e := range v.Edges {
//	    fmt.Println(e.ID, e.Relevance, e.Synthetic)
//	}
//
// # Supporting Packages
//
// [cache] - Cache backends for built views and rendered artifacts: file (CLI
// default), in-memory LRU, Redis and MongoDB. Keys derive from the graph's
// content hash, so editing the graph invalidates its views.
//
// [errors] - Coded errors (INVALID_FORMAT, NODE_NOT_FOUND, ...) shared by the
// CLI and the HTTP server, plus input validation.
//
// [observability] - Hook registry for load, build, render, cache and HTTP
// events.
//
// [buildinfo] - Version information set through ldflags.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/view/...      # Specific package
//	go test -run Example        # Examples only
//	go test -short ./...        # Skip Graphviz rendering
package pkg
