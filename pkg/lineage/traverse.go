package lineage

// direction selects which incident edges a traversal follows.
type direction int

const (
	dirDownstream direction = iota
	dirUpstream
)

// Downstream returns every node reachable from focal by following out-edges,
// in breadth-first discovery order with focal first. It returns nil when focal
// is empty or not in g.
func Downstream(g *Graph, focal string) []*Node {
	return NewIndex(g).Downstream(focal)
}

// Upstream returns every node that reaches focal, following in-edges
// backwards, in breadth-first discovery order with focal first. It returns nil
// when focal is empty or not in g.
func Upstream(g *Graph, focal string) []*Node {
	return NewIndex(g).Upstream(focal)
}

// Downstream is the indexed form of the package-level [Downstream].
func (x *Index) Downstream(focal string) []*Node { return x.walk(focal, dirDownstream, 0) }

// Upstream is the indexed form of the package-level [Upstream].
func (x *Index) Upstream(focal string) []*Node { return x.walk(focal, dirUpstream, 0) }

// DownstreamDepth is like Downstream but stops expanding after maxDepth hops.
// A maxDepth of zero or less means unlimited.
func (x *Index) DownstreamDepth(focal string, maxDepth int) []*Node {
	return x.walk(focal, dirDownstream, maxDepth)
}

// UpstreamDepth is like Upstream but stops expanding after maxDepth hops.
// A maxDepth of zero or less means unlimited.
func (x *Index) UpstreamDepth(focal string, maxDepth int) []*Node {
	return x.walk(focal, dirUpstream, maxDepth)
}

type queued struct {
	node  *Node
	depth int
}

func (x *Index) walk(focal string, dir direction, maxDepth int) []*Node {
	if focal == "" {
		return nil
	}
	start, ok := x.Node(focal)
	if !ok {
		return nil
	}

	visited := map[string]struct{}{start.ID: {}}
	out := []*Node{start}
	queue := []queued{{node: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && cur.depth >= maxDepth {
			continue
		}
		for _, id := range neighbours(cur.node, dir) {
			if _, seen := visited[id]; seen {
				continue
			}
			next, ok := x.Node(id)
			if !ok {
				continue
			}
			visited[id] = struct{}{}
			out = append(out, next)
			queue = append(queue, queued{node: next, depth: cur.depth + 1})
		}
	}
	return out
}

func neighbours(n *Node, dir direction) []string {
	if dir == dirDownstream {
		ids := make([]string, len(n.OutEdges))
		for i, e := range n.OutEdges {
			ids[i] = e.Destination
		}
		return ids
	}
	ids := make([]string, len(n.InEdges))
	for i, e := range n.InEdges {
		ids[i] = e.Origin
	}
	return ids
}

// Neighbourhood returns the subgraph of nodes within maxDepth hops of focal in
// either direction, in graph order. Edges are kept as-is; references to nodes
// outside the subgraph become dangling and are skipped by views. It returns an
// empty graph when focal is unknown.
func (x *Index) Neighbourhood(g *Graph, focal string, maxDepth int) *Graph {
	keep := make(map[string]struct{})
	for _, n := range x.DownstreamDepth(focal, maxDepth) {
		keep[n.ID] = struct{}{}
	}
	for _, n := range x.UpstreamDepth(focal, maxDepth) {
		keep[n.ID] = struct{}{}
	}

	sub := &Graph{}
	for _, n := range g.Nodes {
		if _, ok := keep[n.ID]; ok {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	return sub
}
