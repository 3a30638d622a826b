package lineage

// Builder assembles a Graph node by node, keeping InEdges and OutEdges of
// both endpoints consistent. It is the programmatic counterpart to the JSON
// and TOML loaders in pkg/io.
//
// The zero value is not usable; call NewBuilder.
type Builder struct {
	g    *Graph
	byID map[string]*Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{}, byID: make(map[string]*Node)}
}

// Add appends n to the graph. It returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is already present. Edges already attached to
// n are kept verbatim.
func (b *Builder) Add(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := b.byID[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	b.byID[n.ID] = n
	b.g.Nodes = append(b.g.Nodes, n)
	return nil
}

// Job adds a JOB node.
func (b *Builder) Job(id string, j Job) error { return b.Add(NewJobNode(id, j)) }

// Dataset adds a DATASET node.
func (b *Builder) Dataset(id string, d Dataset) error { return b.Add(NewDatasetNode(id, d)) }

// Edge records origin→destination on both endpoints. Both nodes must already
// exist. Repeated edges are appended again, mirroring what a fetch service may
// return.
func (b *Builder) Edge(origin, destination string) error {
	src, ok := b.byID[origin]
	if !ok {
		return ErrUnknownOrigin
	}
	dst, ok := b.byID[destination]
	if !ok {
		return ErrUnknownDestination
	}
	e := Edge{Origin: origin, Destination: destination}
	src.OutEdges = append(src.OutEdges, e)
	dst.InEdges = append(dst.InEdges, e)
	return nil
}

// Graph returns the assembled graph. The builder keeps a reference, so
// further calls continue to mutate the same graph.
func (b *Builder) Graph() *Graph { return b.g }
