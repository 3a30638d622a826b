package io

import (
	"io"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
)

type tomlDoc struct {
	Nodes []tomlNode `toml:"nodes"`
	Edges []tomlEdge `toml:"edges"`
}

type tomlNode struct {
	ID        string      `toml:"id"`
	Type      string      `toml:"type"`
	Name      string      `toml:"name"`
	Namespace string      `toml:"namespace"`
	Parent    string      `toml:"parent"`
	ParentID  string      `toml:"parent_uuid"`
	Fields    []tomlField `toml:"fields"`
}

type tomlField struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type tomlEdge struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// ReadTOML decodes a hand-written lineage graph:
//
//	[[nodes]]
//	id = "job:ns:load"
//	type = "JOB"
//	name = "load"
//
//	[[nodes]]
//	id = "dataset:ns:orders"
//	type = "DATASET"
//	name = "orders"
//	fields = [{ name = "id", type = "INTEGER" }]
//
//	[[edges]]
//	from = "job:ns:load"
//	to = "dataset:ns:orders"
//
// Edges are listed once and attached to both endpoints. Unlike [ReadJSON],
// an edge naming an unknown node is an INVALID_GRAPH error.
func ReadTOML(r io.Reader) (*lineage.Graph, error) {
	var doc tomlDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode lineage TOML")
	}

	b := lineage.NewBuilder()
	for i, tn := range doc.Nodes {
		kind, err := lineage.ParseKind(tn.Type)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d (%s)", i, tn.ID)
		}
		switch kind {
		case lineage.KindJob:
			err = b.Job(tn.ID, lineage.Job{
				Name:          tn.Name,
				Namespace:     tn.Namespace,
				ParentJobName: tn.Parent,
				ParentJobUUID: tn.ParentID,
			})
		case lineage.KindDataset:
			fields := make([]lineage.Field, len(tn.Fields))
			for j, f := range tn.Fields {
				fields[j] = lineage.Field{Name: f.Name, Type: f.Type}
			}
			err = b.Dataset(tn.ID, lineage.Dataset{Name: tn.Name, Namespace: tn.Namespace, Fields: fields})
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d (%s)", i, tn.ID)
		}
	}
	for _, e := range doc.Edges {
		if err := b.Edge(e.From, e.To); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %s->%s", e.From, e.To)
		}
	}
	return b.Graph(), nil
}
