package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] when From equals To.
	ErrSelfLoop = errors.New("edge connects a node to itself")

	// ErrDuplicateEdge is returned by [DAG.AddEdge] when the ordered pair
	// From→To already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMissingCourseID is returned by [DAG.Validate] when a course node has
	// no positive course identifier.
	ErrMissingCourseID = errors.New("course node without course id")

	// ErrEmptyGate is returned by [DAG.Validate] when an AND or OR node has no
	// incoming edges.
	ErrEmptyGate = errors.New("logic gate has no inputs")

	// ErrNoRoot is returned when the root is unset or names a missing node.
	ErrNoRoot = errors.New("graph has no root")

	// ErrInvalidRoot is returned by [DAG.Validate] when the root is not a
	// course node or has outgoing edges.
	ErrInvalidRoot = errors.New("root must be a course node with no outgoing edges")

	// ErrGraphHasCycle is returned by [DAG.Validate] and [DAG.TopoOrder] when
	// a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// ValidationError attaches the offending node IDs to one of the sentinel
// errors above. Use errors.Is against the sentinel and errors.As to read IDs.
type ValidationError struct {
	Err error
	IDs []string
}

func (e *ValidationError) Error() string {
	if len(e.IDs) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.IDs, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, ids ...string) error {
	return &ValidationError{Err: err, IDs: ids}
}

// NodeKind classifies a vertex of a prerequisite graph.
type NodeKind int

const (
	// KindCourse is a real catalog course. Satisfied when completed.
	KindCourse NodeKind = iota
	// KindAnd is satisfied when every input is satisfied.
	KindAnd
	// KindOr is satisfied when at least one input is satisfied.
	KindOr
	// KindLeaf is a non-course requirement (placement, consent, standing).
	// Leaves are treated as satisfied.
	KindLeaf
	// KindVirtual is a synthetic node inserted by layout to break an edge
	// spanning several ranks. It never appears in a built graph.
	KindVirtual
)

var kindNames = [...]string{"COURSE", "AND", "OR", "LEAF", "VIRTUAL"}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a kind name case-insensitively. VIRTUAL is not accepted
// because it is never part of input data.
func ParseKind(s string) (NodeKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COURSE":
		return KindCourse, true
	case "AND":
		return KindAnd, true
	case "OR":
		return KindOr, true
	case "LEAF":
		return KindLeaf, true
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown node kind %q", b)
	}
	*k = parsed
	return nil
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// CourseMeta is catalog metadata attached to a course node.
type CourseMeta struct {
	Code        string   `json:"code,omitempty" bson:"code,omitempty"`
	Credits     *float64 `json:"credits,omitempty" bson:"credits,omitempty"`
	Level       string   `json:"level,omitempty" bson:"level,omitempty"`
	Unit        string   `json:"unit,omitempty" bson:"unit,omitempty"`
	LastOffered string   `json:"last_offered,omitempty" bson:"last_offered,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
}

func (m *CourseMeta) clone() *CourseMeta {
	if m == nil {
		return nil
	}
	c := *m
	if m.Credits != nil {
		v := *m.Credits
		c.Credits = &v
	}
	return &c
}

// Node is a vertex in a prerequisite graph.
//
// The zero value is not usable - ID and Kind must be set before adding to a
// DAG, and course nodes need a positive CourseID.
type Node struct {
	ID       string      // Unique identifier within the graph
	Kind     NodeKind    // Course, gate, leaf or virtual
	CourseID int         // Catalog identifier; meaningful only for KindCourse
	Label    string      // Short display text ("CS 300", "AND")
	Title    string      // Long display text, optional
	Course   *CourseMeta // Catalog metadata, optional
	Position *Point      // Upstream coordinates; ignored by layout

	// Row is the layer assignment used by layout working copies.
	Row int
	// MasterID links a virtual node back to the source of the edge it breaks.
	MasterID string
}

// IsGate reports whether the node is an AND or OR gate.
func (n Node) IsGate() bool { return n.Kind == KindAnd || n.Kind == KindOr }

// IsCourse reports whether the node is a catalog course.
func (n Node) IsCourse() bool { return n.Kind == KindCourse }

// IsVirtual reports whether the node was inserted by layout.
func (n Node) IsVirtual() bool { return n.Kind == KindVirtual }

// EffectiveID returns MasterID if set (for virtual nodes), otherwise the node's ID.
func (n Node) EffectiveID() string {
	if n.MasterID != "" {
		return n.MasterID
	}
	return n.ID
}

// DisplayLabel returns Label, falling back to the kind name for gates and the
// ID for everything else.
func (n Node) DisplayLabel() string {
	switch {
	case n.Label != "":
		return n.Label
	case n.IsGate():
		return n.Kind.String()
	}
	return n.ID
}

// Edge is a directed prerequisite relation: From must be satisfied for To's
// gate to close. Edges point from prerequisite toward the target course.
type Edge struct {
	From string
	To   string
}

// DAG is a directed acyclic prerequisite graph with a single root course.
//
// Nodes are kept in insertion order so that every traversal, and therefore
// every derived result, is deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent mutation. A built graph is treated as
// immutable, and concurrent reads are safe.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string // nodeID -> targets it feeds
	incoming map[string][]string // nodeID -> inputs feeding it
	rows     map[int][]*Node     // row -> nodes in that row
	root     string
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a node to the graph and indexes it by its Row.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return invalid(ErrDuplicateNodeID, n.ID)
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Self loops and repeated ordered pairs are rejected.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return invalid(ErrUnknownSourceNode, e.From)
	}
	if _, ok := d.nodes[e.To]; !ok {
		return invalid(ErrUnknownTargetNode, e.To)
	}
	if e.From == e.To {
		return invalid(ErrSelfLoop, e.From)
	}
	if _, dup := d.edgeSet[e]; dup {
		return invalid(ErrDuplicateEdge, e.From, e.To)
	}
	d.edgeSet[e] = struct{}{}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
func (d *DAG) RemoveEdge(from, to string) {
	e := Edge{From: from, To: to}
	if _, ok := d.edgeSet[e]; !ok {
		return
	}
	delete(d.edgeSet, e)
	d.edges = slices.DeleteFunc(d.edges, func(x Edge) bool { return x == e })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
}

// SetRoot marks the target course. The node must already exist.
func (d *DAG) SetRoot(id string) error {
	if id == "" {
		return invalid(ErrNoRoot)
	}
	if _, ok := d.nodes[id]; !ok {
		return invalid(ErrNoRoot, id)
	}
	d.root = id
	return nil
}

// Root returns the root node ID, or "" if unset.
func (d *DAG) Root() string { return d.root }

// RootNode returns the root node, or nil if unset.
func (d *DAG) RootNode() *Node { return d.nodes[d.root] }

// SetRows updates the row assignments for nodes and rebuilds the row index.
// Nodes not present in the rows map retain their current row assignment.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, id := range d.order {
		n := d.nodes[id]
		if newRow, ok := rows[n.ID]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// HasEdge reports whether from→to exists.
func (d *DAG) HasEdge(from, to string) bool {
	_, ok := d.edgeSet[Edge{From: from, To: to}]
	return ok
}

// Outputs returns the IDs of nodes this node feeds, in edge order.
// The returned slice should not be modified.
func (d *DAG) Outputs(id string) []string { return d.outgoing[id] }

// Inputs returns the IDs of nodes feeding this node, in edge order.
// For a gate these are its operands; for a course, its direct prerequisites.
// The returned slice should not be modified.
func (d *DAG) Inputs(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns all nodes assigned to the given row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// MaxRow returns the highest row index, or 0 if the graph is empty.
func (d *DAG) MaxRow() int {
	if len(d.rows) == 0 {
		return 0
	}
	rowIDs := d.RowIDs()
	return rowIDs[len(rowIDs)-1]
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, d.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, d.nodes[id])
		}
	}
	return sinks
}

// Clone returns a deep copy of the graph.
func (d *DAG) Clone() *DAG {
	c := New()
	for _, id := range d.order {
		n := *d.nodes[id]
		n.Course = n.Course.clone()
		if n.Position != nil {
			p := *n.Position
			n.Position = &p
		}
		_ = c.AddNode(n)
	}
	for _, e := range d.edges {
		_ = c.AddEdge(e)
	}
	c.root = d.root
	return c
}

// Validate checks graph integrity and returns nil if valid.
// It verifies, in order:
//
//  1. All edges connect existing nodes
//  2. Every course node carries a course id
//  3. Every AND/OR gate has at least one input
//  4. The graph is acyclic
//  5. The root exists, is a course, and has no outgoing edges
//
// Failures are returned as *ValidationError wrapping the matching sentinel.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return invalid(ErrInvalidEdgeEndpoint, e.From, e.To)
		}
	}
	for _, id := range d.order {
		n := d.nodes[id]
		if n.IsCourse() && n.CourseID <= 0 {
			return invalid(ErrMissingCourseID, id)
		}
		if n.IsGate() && len(d.incoming[id]) == 0 {
			return invalid(ErrEmptyGate, id)
		}
	}
	if cycle := d.FindCycle(); cycle != nil {
		return invalid(ErrGraphHasCycle, cycle...)
	}
	root, ok := d.nodes[d.root]
	if !ok {
		return invalid(ErrNoRoot)
	}
	if !root.IsCourse() || len(d.outgoing[d.root]) > 0 {
		return invalid(ErrInvalidRoot, d.root)
	}
	return nil
}

// FindCycle returns the node IDs of one directed cycle in traversal order, or
// nil if the graph is acyclic. Detection uses depth-first search with
// white/gray/black coloring.
func (d *DAG) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack, cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range d.outgoing[id] {
			switch color[next] {
			case white:
				if dfs(next) {
					return true
				}
			case gray:
				start := slices.Index(stack, next)
				cycle = slices.Clone(stack[start:])
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopoOrder returns node IDs so that every edge source precedes its target,
// using Kahn's algorithm. Ties are broken by insertion order, so the result is
// deterministic. If the graph has a cycle, the error wraps ErrGraphHasCycle and
// names the nodes that could not be ordered.
func (d *DAG) TopoOrder() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	queue := make([]string, 0, len(d.nodes))
	for _, id := range d.order {
		inDegree[id] = len(d.incoming[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(d.nodes))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		for _, next := range d.outgoing[curr] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(d.nodes) {
		var stuck []string
		for _, id := range d.order {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, invalid(ErrGraphHasCycle, stuck...)
	}
	return order, nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
