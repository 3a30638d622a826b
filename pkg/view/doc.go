// Package view turns a lineage graph into the node and edge lists a layout
// engine consumes.
//
// # Pipeline
//
// [Build] runs four steps over an immutable [lineage.Graph]:
//
//  1. Traversal: upstream and downstream of the focal node.
//  2. [Filter]: focus, task and dataset toggles from [Options].
//  3. [Size]: fixed width, height from a text-wrapping estimate.
//  4. Edges: [Materialize] direct edges, then [Synthesize] job → job bridges
//     across hidden datasets.
//
// Every step returns fresh values, so a View can be rebuilt from scratch on
// every option change.
//
// # Hidden Datasets
//
// With ShowDatasets off, a dataset D written by jobs P and read by jobs C is
// replaced by edges P × C. Each ordered pair appears once even when several
// hidden datasets connect the same jobs:
//
//	J1 ─┐      ┌─ J3          J1 → J3, J1 → J4
//	    ├ D1 ──┤        ⇒     J2 → J3, J2 → J4
//	J2 ─┘      └─ J4
//
// Bridging looks through exactly one hidden dataset. Hidden tasks in a chain
// break the bridge.
//
// # Relevance
//
// Edges are two-tone: [OnPath] when the source node is upstream or downstream
// of the focal node, [OffPath] otherwise. Synthesized edges take the
// producer's relevance.
package view
