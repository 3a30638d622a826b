package view

import "github.com/matzehuels/stacklineage/pkg/lineage"

// Relevance is the two-tone classification of an edge.
type Relevance string

const (
	// OnPath marks edges whose source lies upstream or downstream of the focal node.
	OnPath Relevance = "on-path"
	// OffPath marks every other edge.
	OffPath Relevance = "off-path"
)

// Edge is a directed edge between two visible nodes.
type Edge struct {
	ID        string    `json:"id"`
	Source    string    `json:"sourceId"`
	Target    string    `json:"targetId"`
	Relevance Relevance `json:"relevance"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

func newEdge(source, target string, rel Relevance, synthetic bool) Edge {
	return Edge{
		ID:        lineage.Edge{Origin: source, Destination: target}.String(),
		Source:    source,
		Target:    target,
		Relevance: rel,
		Synthetic: synthetic,
	}
}

// Materialize returns one edge per out-edge of a visible node whose
// destination is also visible, in visible-node order. Edges to hidden or
// unknown nodes are dropped. Repeated origin/destination pairs collapse into
// the first occurrence.
func Materialize(v *Visibility) []Edge {
	var out []Edge
	seen := make(map[string]struct{})
	for _, n := range v.Nodes {
		rel := v.RelevanceOf(n.ID)
		for _, e := range n.OutEdges {
			if !v.Visible(e.Destination) {
				continue
			}
			id := e.String()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, newEdge(n.ID, e.Destination, rel, false))
		}
	}
	return out
}

// Synthesize bridges every hidden dataset with direct producer → consumer
// edges. Producers are candidate jobs with an out-edge into the dataset;
// consumers are candidate jobs the dataset has an out-edge into. Only pairs
// with both ends visible are kept, each ordered pair at most once across all
// hidden datasets, and never when direct already holds an edge with the same
// ID. Relevance follows the producer.
//
// Bridging covers a single hidden dataset between two jobs; chains through
// hidden tasks are not followed.
func Synthesize(v *Visibility, direct []Edge) []Edge {
	if len(v.Hidden) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(direct))
	for _, e := range direct {
		seen[e.ID] = struct{}{}
	}

	producers := producersByDataset(v)

	var out []Edge
	for _, ds := range v.Hidden {
		consumers := consumersOf(v, ds)
		for _, p := range producers[ds.ID] {
			if !v.Visible(p.ID) {
				continue
			}
			rel := v.RelevanceOf(p.ID)
			for _, c := range consumers {
				if !v.Visible(c.ID) {
					continue
				}
				e := newEdge(p.ID, c.ID, rel, true)
				if _, dup := seen[e.ID]; dup {
					continue
				}
				seen[e.ID] = struct{}{}
				out = append(out, e)
			}
		}
	}
	return out
}

// producersByDataset scans candidate jobs once and groups them by the hidden
// datasets they write, preserving candidate order.
func producersByDataset(v *Visibility) map[string][]*lineage.Node {
	hidden := make(map[string]struct{}, len(v.Hidden))
	for _, ds := range v.Hidden {
		hidden[ds.ID] = struct{}{}
	}

	out := make(map[string][]*lineage.Node)
	for _, n := range v.Candidates {
		if n.Kind() != lineage.KindJob {
			continue
		}
		written := make(map[string]struct{})
		for _, e := range n.OutEdges {
			if _, ok := hidden[e.Destination]; !ok {
				continue
			}
			if _, dup := written[e.Destination]; dup {
				continue
			}
			written[e.Destination] = struct{}{}
			out[e.Destination] = append(out[e.Destination], n)
		}
	}
	return out
}

// consumersOf returns the candidate jobs ds feeds, in candidate order.
func consumersOf(v *Visibility, ds *lineage.Node) []*lineage.Node {
	feeds := make(map[string]struct{}, len(ds.OutEdges))
	for _, e := range ds.OutEdges {
		feeds[e.Destination] = struct{}{}
	}

	var out []*lineage.Node
	for _, n := range v.Candidates {
		if n.Kind() != lineage.KindJob {
			continue
		}
		if _, ok := feeds[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}
