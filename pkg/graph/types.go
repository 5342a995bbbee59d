package graph

import (
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// =============================================================================
// Graph - Prerequisite Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for prerequisite graphs.
// Used for CLI files, API responses and caching.
//
// Nodes and edges keep graph insertion order. Edge order decides the order of
// a node's inputs, so a round trip reproduces identical evaluation output.
type Graph struct {
	Root  string `json:"root" bson:"root"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// =============================================================================
// Node - Graph Vertex
// =============================================================================

// Node is a serialized graph node.
type Node struct {
	ID       string          `json:"id" bson:"id"`
	Kind     string          `json:"kind" bson:"kind"` // COURSE, AND, OR or LEAF
	CourseID int             `json:"course_id,omitempty" bson:"course_id,omitempty"`
	Label    string          `json:"label,omitempty" bson:"label,omitempty"`
	Title    string          `json:"title,omitempty" bson:"title,omitempty"`
	Course   *dag.CourseMeta `json:"course,omitempty" bson:"course,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Prerequisite Relation
// =============================================================================

// Edge points from a prerequisite to what it unlocks.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// DAG ↔ Graph Conversion
// =============================================================================

// FromDAG converts a DAG to its serialization format. Virtual nodes never
// appear in built graphs and are skipped. Positions are not serialized.
func FromDAG(g *dag.DAG) Graph {
	out := Graph{
		Root:  g.Root(),
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			continue
		}
		out.Nodes = append(out.Nodes, Node{
			ID:       n.ID,
			Kind:     n.Kind.String(),
			CourseID: n.CourseID,
			Label:    n.Label,
			Title:    n.Title,
			Course:   n.Course,
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// ToDAG converts a Graph to a validated DAG. Structural defects fail with an
// INVALID_GRAPH error naming the offending ids.
func ToDAG(gj Graph) (*dag.DAG, error) {
	d := dag.New()
	for _, nj := range gj.Nodes {
		kind, ok := dag.ParseKind(nj.Kind)
		if !ok {
			return nil, invalid(fmt.Errorf("node %s: unknown kind %q", nj.ID, nj.Kind), nj.ID)
		}
		n := dag.Node{
			ID:       nj.ID,
			Kind:     kind,
			CourseID: nj.CourseID,
			Label:    nj.Label,
			Title:    nj.Title,
			Course:   nj.Course,
		}
		if err := d.AddNode(n); err != nil {
			return nil, invalid(fmt.Errorf("add node %s: %w", nj.ID, err), nj.ID)
		}
	}
	for _, ej := range gj.Edges {
		if err := d.AddEdge(dag.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, invalid(fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err), ej.From, ej.To)
		}
	}
	if err := d.SetRoot(gj.Root); err != nil {
		return nil, invalid(err)
	}
	if err := d.Validate(); err != nil {
		return nil, invalid(err)
	}
	return d, nil
}
