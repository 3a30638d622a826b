package lineage

// Index is an id→node lookup built once over a Graph.
//
// Lookups of unknown IDs report false rather than failing; callers treat a
// miss as "skip this reference". When a graph contains duplicate IDs the
// first occurrence wins.
type Index struct {
	nodes map[string]*Node
}

// NewIndex builds an Index over g. A nil graph yields an empty index.
func NewIndex(g *Graph) *Index {
	if g == nil {
		return &Index{nodes: map[string]*Node{}}
	}
	m := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		if _, exists := m[n.ID]; !exists {
			m[n.ID] = n
		}
	}
	return &Index{nodes: m}
}

// Node returns the node with the given ID and true, or nil and false.
func (x *Index) Node(id string) (*Node, bool) {
	n, ok := x.nodes[id]
	return n, ok
}

// Has reports whether id is indexed.
func (x *Index) Has(id string) bool {
	_, ok := x.nodes[id]
	return ok
}

// Len returns the number of indexed nodes.
func (x *Index) Len() int { return len(x.nodes) }
