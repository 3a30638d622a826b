package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/view"
)

type viewDoc struct {
	FocalID string      `json:"focalId,omitempty"`
	Nodes   []viewNode  `json:"nodes"`
	Edges   []view.Edge `json:"edges"`
	Stats   *view.Stats `json:"stats,omitempty"`
}

type viewNode struct {
	ID     string   `json:"id"`
	Kind   string   `json:"kind"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	OnPath bool     `json:"onPath"`
	Data   wireData `json:"data"`
}

// WriteView encodes v as the {nodes, edges} document consumed by layout
// engines. Node payloads use the same "data" shape as [WriteJSON].
func WriteView(v view.View, w io.Writer) error {
	doc := viewDoc{
		FocalID: v.FocalID,
		Nodes:   make([]viewNode, len(v.Nodes)),
		Edges:   v.Edges,
	}
	stats := v.Stats()
	doc.Stats = &stats
	if doc.Edges == nil {
		doc.Edges = []view.Edge{}
	}
	for i, n := range v.Nodes {
		doc.Nodes[i] = viewNode{
			ID:     n.ID,
			Kind:   string(n.Kind),
			Width:  n.Width,
			Height: n.Height,
			OnPath: n.OnPath,
			Data:   encodePayload(n.Payload),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return nil
}

// ReadView decodes a document written by [WriteView].
func ReadView(r io.Reader) (view.View, error) {
	var doc viewDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return view.View{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode view JSON")
	}

	v := view.View{FocalID: doc.FocalID, Edges: doc.Edges, Nodes: make([]view.Node, len(doc.Nodes))}
	for i, vn := range doc.Nodes {
		n, err := decodeNode(wireNode{ID: vn.ID, Type: vn.Kind, Data: vn.Data})
		if err != nil {
			return view.View{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "view node %s", vn.ID)
		}
		v.Nodes[i] = view.Node{
			ID:      vn.ID,
			Kind:    lineage.Kind(vn.Kind),
			Width:   vn.Width,
			Height:  vn.Height,
			Payload: n.Payload,
			OnPath:  vn.OnPath,
		}
	}
	return v, nil
}
