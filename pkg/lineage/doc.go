// Package lineage provides the in-memory data-lineage graph and reachability
// traversal used to build focused views.
//
// # Overview
//
// A lineage graph connects jobs and datasets with directed data-flow edges:
// a job writes a dataset (job → dataset) and a dataset feeds a job
// (dataset → job). Each [Node] carries its incident edges directly, matching
// the shape returned by lineage services such as Marquez:
//
//	{"id": "dataset:default:orders", "type": "DATASET",
//	 "inEdges": [...], "outEdges": [...]}
//
// The payload of a node is a tagged union over [Job] and [Dataset]; switch on
// [Node.Kind] and use [Payload.Job] or [Payload.Dataset] to reach the variant.
//
// # Building Graphs
//
// Graphs usually come from pkg/io. For tests and generators, [Builder] keeps
// both endpoints of every edge in sync:
//
//	b := lineage.NewBuilder()
//	_ = b.Job("job:ns:load", lineage.Job{Name: "load"})
//	_ = b.Dataset("dataset:ns:orders", lineage.Dataset{Name: "orders"})
//	_ = b.Edge("job:ns:load", "dataset:ns:orders")
//	g := b.Graph()
//
// # Traversal
//
// [Downstream] and [Upstream] run a breadth-first search from a focal node and
// return nodes in discovery order, focal first. A visited set guarantees each
// node appears once even when the graph has cycles. Both use an [Index] for
// O(1) lookups, so a traversal is O(V+E). Edges pointing at unknown IDs are
// skipped, never reported.
//
// # Concurrency
//
// Graphs are not safe for concurrent mutation. Read-only use (indexing,
// traversal, building views) from multiple goroutines is safe.
package lineage
