package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
)

type lineageDoc struct {
	Graph []wireNode `json:"graph"`
}

type wireNode struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Data     wireData   `json:"data"`
	InEdges  []wireEdge `json:"inEdges"`
	OutEdges []wireEdge `json:"outEdges"`
}

// wireData covers both job and dataset payloads; the fields do not overlap
// apart from name and namespace.
type wireData struct {
	Name          string      `json:"name"`
	Namespace     string      `json:"namespace,omitempty"`
	ParentJobName string      `json:"parentJobName,omitempty"`
	ParentJobUUID string      `json:"parentJobUuid,omitempty"`
	Fields        []wireField `json:"fields,omitempty"`
}

type wireField struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type wireEdge struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// ReadJSON decodes a lineage graph in the shape returned by the Marquez
// lineage endpoint:
//
//	{"graph": [
//	  {"id": "job:ns:load", "type": "JOB",
//	   "data": {"name": "load", "namespace": "ns"},
//	   "inEdges": [], "outEdges": [{"origin": "job:ns:load", "destination": "dataset:ns:orders"}]}
//	]}
//
// Edges are taken verbatim from each node; references to unknown nodes are
// kept and later skipped by traversal and views. ReadJSON returns an
// INVALID_GRAPH error for malformed JSON, unknown node types, and empty or
// duplicate IDs. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*lineage.Graph, error) {
	var doc lineageDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode lineage JSON")
	}

	g := &lineage.Graph{Nodes: make([]*lineage.Node, 0, len(doc.Graph))}
	for i, wn := range doc.Graph {
		n, err := decodeNode(wn)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d (%s)", i, wn.ID)
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "validate graph")
	}
	return g, nil
}

func decodeNode(wn wireNode) (*lineage.Node, error) {
	kind, err := lineage.ParseKind(wn.Type)
	if err != nil {
		return nil, err
	}
	var n *lineage.Node
	switch kind {
	case lineage.KindJob:
		n = lineage.NewJobNode(wn.ID, lineage.Job{
			Name:          wn.Data.Name,
			Namespace:     wn.Data.Namespace,
			ParentJobName: wn.Data.ParentJobName,
			ParentJobUUID: wn.Data.ParentJobUUID,
		})
	case lineage.KindDataset:
		fields := make([]lineage.Field, len(wn.Data.Fields))
		for i, f := range wn.Data.Fields {
			fields[i] = lineage.Field{Name: f.Name, Type: f.Type}
		}
		n = lineage.NewDatasetNode(wn.ID, lineage.Dataset{
			Name:      wn.Data.Name,
			Namespace: wn.Data.Namespace,
			Fields:    fields,
		})
	}
	n.InEdges = decodeEdges(wn.InEdges)
	n.OutEdges = decodeEdges(wn.OutEdges)
	return n, nil
}

func decodeEdges(in []wireEdge) []lineage.Edge {
	if len(in) == 0 {
		return nil
	}
	out := make([]lineage.Edge, len(in))
	for i, e := range in {
		out[i] = lineage.Edge{Origin: e.Origin, Destination: e.Destination}
	}
	return out
}

// WriteJSON encodes g in the format read by [ReadJSON].
func WriteJSON(g *lineage.Graph, w io.Writer) error {
	doc := lineageDoc{Graph: make([]wireNode, len(g.Nodes))}
	for i, n := range g.Nodes {
		doc.Graph[i] = wireNode{
			ID:       n.ID,
			Type:     string(n.Kind()),
			Data:     encodePayload(n.Payload),
			InEdges:  encodeEdges(n.InEdges),
			OutEdges: encodeEdges(n.OutEdges),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func encodePayload(p lineage.Payload) wireData {
	switch p.Kind() {
	case lineage.KindJob:
		j, _ := p.Job()
		return wireData{
			Name:          j.Name,
			Namespace:     j.Namespace,
			ParentJobName: j.ParentJobName,
			ParentJobUUID: j.ParentJobUUID,
		}
	case lineage.KindDataset:
		d, _ := p.Dataset()
		fields := make([]wireField, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = wireField{Name: f.Name, Type: f.Type}
		}
		return wireData{Name: d.Name, Namespace: d.Namespace, Fields: fields}
	default:
		return wireData{}
	}
}

func encodeEdges(in []lineage.Edge) []wireEdge {
	out := make([]wireEdge, len(in))
	for i, e := range in {
		out[i] = wireEdge{Origin: e.Origin, Destination: e.Destination}
	}
	return out
}
