package view

import "github.com/matzehuels/stacklineage/pkg/lineage"

// Visibility is the result of Filter: which nodes are shown, which survived
// the task filter, and which datasets were hidden but still bridge edges.
type Visibility struct {
	// Nodes are the visible nodes in graph order.
	Nodes []*lineage.Node

	// Candidates are the nodes that passed the focus and task filters,
	// including hidden datasets, in graph order.
	Candidates []*lineage.Node

	// Hidden are the datasets removed by the dataset filter, in graph order.
	Hidden []*lineage.Node

	visible   map[string]struct{}
	candidate map[string]*lineage.Node
	relevant  map[string]struct{}
}

// Visible reports whether id is in the emitted node set.
func (v *Visibility) Visible(id string) bool {
	_, ok := v.visible[id]
	return ok
}

// Candidate returns the candidate node for id, if it passed the task filter.
func (v *Visibility) Candidate(id string) (*lineage.Node, bool) {
	n, ok := v.candidate[id]
	return n, ok
}

// Relevant reports whether id lies upstream or downstream of the focal node.
func (v *Visibility) Relevant(id string) bool {
	_, ok := v.relevant[id]
	return ok
}

// RelevanceOf maps Relevant to the two-tone edge classification.
func (v *Visibility) RelevanceOf(id string) Relevance {
	if v.Relevant(id) {
		return OnPath
	}
	return OffPath
}

// Filter applies the view toggles in opts to g. up and down are the focal
// node's traversal results; they decide both the base node set (when
// opts.Full is false) and the relevance flag of every node.
func Filter(g *lineage.Graph, opts Options, up, down []*lineage.Node) *Visibility {
	v := &Visibility{
		visible:   make(map[string]struct{}),
		candidate: make(map[string]*lineage.Node),
		relevant:  make(map[string]struct{}, len(up)+len(down)),
	}
	for _, n := range up {
		v.relevant[n.ID] = struct{}{}
	}
	for _, n := range down {
		v.relevant[n.ID] = struct{}{}
	}
	if g == nil {
		return v
	}

	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		if _, dup := v.candidate[n.ID]; dup {
			continue
		}
		if !opts.Full && !v.Relevant(n.ID) && (opts.FocalID == "" || n.ID != opts.FocalID) {
			continue
		}
		if !opts.ShowJobs && n.IsTask() {
			continue
		}

		v.Candidates = append(v.Candidates, n)
		v.candidate[n.ID] = n

		if !opts.ShowDatasets && n.Kind() == lineage.KindDataset {
			v.Hidden = append(v.Hidden, n)
			continue
		}
		v.Nodes = append(v.Nodes, n)
		v.visible[n.ID] = struct{}{}
	}
	return v
}
