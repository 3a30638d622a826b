package view

import "github.com/matzehuels/stacklineage/pkg/lineage"

// Node is a visible lineage node with its computed footprint. Positions are
// left to the layout engine.
type Node struct {
	ID      string
	Kind    lineage.Kind
	Width   float64
	Height  float64
	Payload lineage.Payload

	// OnPath reports whether the node lies upstream or downstream of the
	// focal node.
	OnPath bool
}

// View is the output handed to a layout engine.
type View struct {
	FocalID string
	Nodes   []Node
	Edges   []Edge
}

// Build computes the view of g under opts. It never fails: an unknown focal
// node yields empty traversals, so only Full views show anything and no node
// is on-path.
func Build(g *lineage.Graph, opts Options) View {
	idx := lineage.NewIndex(g)
	down := idx.Downstream(opts.FocalID)
	up := idx.Upstream(opts.FocalID)

	vis := Filter(g, opts, up, down)

	nodes := make([]Node, 0, len(vis.Nodes))
	for _, n := range vis.Nodes {
		w, h := Size(n, opts)
		nodes = append(nodes, Node{
			ID:      n.ID,
			Kind:    n.Kind(),
			Width:   w,
			Height:  h,
			Payload: n.Payload,
			OnPath:  vis.Relevant(n.ID),
		})
	}

	edges := Materialize(vis)
	edges = append(edges, Synthesize(vis, edges)...)

	return View{FocalID: opts.FocalID, Nodes: nodes, Edges: edges}
}

// Node returns the view node with the given ID.
func (v View) Node(id string) (Node, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns node IDs in view order.
func (v View) NodeIDs() []string {
	ids := make([]string, len(v.Nodes))
	for i, n := range v.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgeIDs returns edge IDs in view order.
func (v View) EdgeIDs() []string {
	ids := make([]string, len(v.Edges))
	for i, e := range v.Edges {
		ids[i] = e.ID
	}
	return ids
}

// Stats summarizes a view.
type Stats struct {
	Nodes     int `json:"nodes"`
	Jobs      int `json:"jobs"`
	Datasets  int `json:"datasets"`
	Edges     int `json:"edges"`
	Synthetic int `json:"synthetic"`
	OnPath    int `json:"onPath"`
}

// Stats counts nodes and edges by kind.
func (v View) Stats() Stats {
	s := Stats{Nodes: len(v.Nodes), Edges: len(v.Edges)}
	for _, n := range v.Nodes {
		switch n.Kind {
		case lineage.KindJob:
			s.Jobs++
		case lineage.KindDataset:
			s.Datasets++
		}
		if n.OnPath {
			s.OnPath++
		}
	}
	for _, e := range v.Edges {
		if e.Synthetic {
			s.Synthetic++
		}
	}
	return s
}
