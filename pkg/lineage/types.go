package lineage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNodeID is returned by [Builder] methods and [Graph.Validate]
	// when a node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownOrigin is returned by [Builder.Edge] when the origin node
	// has not been added yet.
	ErrUnknownOrigin = errors.New("unknown origin node")

	// ErrUnknownDestination is returned by [Builder.Edge] when the destination
	// node has not been added yet.
	ErrUnknownDestination = errors.New("unknown destination node")

	// ErrUnknownKind is returned when a node kind string is neither JOB nor DATASET.
	ErrUnknownKind = errors.New("unknown node kind")
)

// Kind distinguishes jobs from datasets.
type Kind string

const (
	KindJob     Kind = "JOB"
	KindDataset Kind = "DATASET"
)

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindJob:
		return KindJob, nil
	case KindDataset:
		return KindDataset, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Job is the payload of a JOB node. A job with either parent field set is a
// task (sub-job); a job with neither is a top-level dag.
type Job struct {
	Name          string
	Namespace     string
	ParentJobName string
	ParentJobUUID string
}

// IsTask reports whether the job has a parent reference. Missing parent
// information means the job is treated as a dag.
func (j *Job) IsTask() bool {
	return j.ParentJobName != "" || j.ParentJobUUID != ""
}

// Field is a single column in a dataset schema.
type Field struct {
	Name string
	Type string
}

// Dataset is the payload of a DATASET node.
type Dataset struct {
	Name      string
	Namespace string
	Fields    []Field
}

// Payload holds either a Job or a Dataset, tagged by Kind. The zero value
// holds neither and reports an empty Kind.
type Payload struct {
	kind    Kind
	job     *Job
	dataset *Dataset
}

// JobPayload wraps a Job.
func JobPayload(j Job) Payload { return Payload{kind: KindJob, job: &j} }

// DatasetPayload wraps a Dataset.
func DatasetPayload(d Dataset) Payload { return Payload{kind: KindDataset, dataset: &d} }

// Kind returns the tag of the payload.
func (p Payload) Kind() Kind { return p.kind }

// Job returns the job payload and true if the payload is a job.
func (p Payload) Job() (*Job, bool) { return p.job, p.kind == KindJob && p.job != nil }

// Dataset returns the dataset payload and true if the payload is a dataset.
func (p Payload) Dataset() (*Dataset, bool) {
	return p.dataset, p.kind == KindDataset && p.dataset != nil
}

// Name returns the display name of whichever variant is set.
func (p Payload) Name() string {
	switch p.kind {
	case KindJob:
		if p.job != nil {
			return p.job.Name
		}
	case KindDataset:
		if p.dataset != nil {
			return p.dataset.Name
		}
	}
	return ""
}

// Edge is a directed data-flow edge between two node IDs.
type Edge struct {
	Origin      string
	Destination string
}

// String returns the deterministic "origin:destination" form used as edge ID.
func (e Edge) String() string { return e.Origin + ":" + e.Destination }

// Node is a job or dataset together with its incident edges. OutEdges all
// have this node as Origin; InEdges all have it as Destination.
type Node struct {
	ID       string
	Payload  Payload
	InEdges  []Edge
	OutEdges []Edge
}

// NewJobNode creates a JOB node without edges.
func NewJobNode(id string, j Job) *Node {
	return &Node{ID: id, Payload: JobPayload(j)}
}

// NewDatasetNode creates a DATASET node without edges.
func NewDatasetNode(id string, d Dataset) *Node {
	return &Node{ID: id, Payload: DatasetPayload(d)}
}

// Kind returns the node kind as carried by its payload.
func (n *Node) Kind() Kind { return n.Payload.Kind() }

// IsTask reports whether n is a JOB node with a parent reference.
func (n *Node) IsTask() bool {
	j, ok := n.Payload.Job()
	return ok && j.IsTask()
}

// Graph is an in-memory lineage graph. Node order is significant: views emit
// nodes in this order. Edges may reference IDs that are not present; such
// references are skipped by every consumer.
type Graph struct {
	Nodes []*Node
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of out-edges across all nodes.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, node := range g.Nodes {
		n += len(node.OutEdges)
	}
	return n
}

// Validate checks that every node has a non-empty, unique ID and a known kind.
// Dangling edge references are not an error.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n == nil || n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrInvalidNodeID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
		}
		seen[n.ID] = struct{}{}
		if _, err := ParseKind(string(n.Kind())); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	return nil
}

// DanglingEdges returns out-edges and in-edges whose other endpoint is missing.
func (g *Graph) DanglingEdges() []Edge {
	idx := NewIndex(g)
	var out []Edge
	for _, n := range g.Nodes {
		for _, e := range n.OutEdges {
			if _, ok := idx.Node(e.Destination); !ok {
				out = append(out, e)
			}
		}
		for _, e := range n.InEdges {
			if _, ok := idx.Node(e.Origin); !ok {
				out = append(out, e)
			}
		}
	}
	return out
}

// NodeIDs extracts the ID of each node, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
