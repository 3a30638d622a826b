// Package io reads and writes lineage graphs and views.
//
// # Lineage JSON
//
// The primary input is the document returned by a Marquez lineage endpoint:
// a "graph" array of nodes, each carrying its own in- and out-edges.
//
//	{
//	  "graph": [
//	    {
//	      "id": "dataset:food_delivery:public.orders",
//	      "type": "DATASET",
//	      "data": {"name": "public.orders", "namespace": "food_delivery",
//	               "fields": [{"name": "id", "type": "INTEGER"}]},
//	      "inEdges":  [{"origin": "job:food_delivery:etl_orders", "destination": "dataset:food_delivery:public.orders"}],
//	      "outEdges": []
//	    }
//	  ]
//	}
//
// Job data may carry "parentJobName" or "parentJobUuid"; either marks the job
// as a task. Use [ImportJSON] for files and [ReadJSON] for any io.Reader.
//
// # TOML Fixtures
//
// [ReadTOML] accepts a flatter format with [[nodes]] and [[edges]] tables,
// convenient for small hand-written graphs. [Import] picks the decoder from
// the file extension.
//
// # View JSON
//
// [WriteView] emits the result of view.Build for a layout engine:
//
//	{
//	  "focalId": "dataset:food_delivery:public.orders",
//	  "nodes": [{"id": "...", "kind": "JOB", "width": 112, "height": 24, "onPath": true, "data": {...}}],
//	  "edges": [{"id": "a:b", "sourceId": "a", "targetId": "b", "relevance": "on-path"}]
//	}
//
// [ReadView] decodes the same document, which lets views be cached as bytes.
//
// # Errors
//
// Decoding failures carry pkg/errors codes: INVALID_GRAPH for malformed or
// inconsistent graphs, FILE_NOT_FOUND for missing files and UNSUPPORTED for
// unknown extensions.
package io
