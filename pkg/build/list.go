package build

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Keys consulted when a node carries no explicit kind.
var (
	gateKeys     = []string{"type", "gate", "operator", "nodeType"}
	courseIDKeys = []string{"course_id", "courseId", "courseID"}
)

// ListInput is the node/edge-list form of a prerequisite record. Edges may
// be given as "edges" or "links"; both are used.
type ListInput struct {
	Root  string    `json:"root,omitempty"`
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges,omitempty"`
	Links []RawEdge `json:"links,omitempty"`
}

// RawNode is one node as supplied upstream. Kind may be empty, in which case
// it is inferred from Data. Unknown JSON fields land in Data.
type RawNode struct {
	ID       string
	Kind     string
	Label    string
	Title    string
	Position *dag.Point
	Data     map[string]any
}

// UnmarshalJSON accepts any object with an "id". Numeric ids are stringified.
// Known fields are lifted out; everything else, including a nested "data"
// object, is merged into Data.
func (n *RawNode) UnmarshalJSON(b []byte) error {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*n = RawNode{Data: map[string]any{}}
	n.ID = stringify(m["id"])
	n.Kind = stringify(m["kind"])
	n.Label = stringify(m["label"])
	n.Title = stringify(m["title"])
	if p, ok := m["position"].(map[string]any); ok {
		n.Position = point(p)
	} else if _, ok := m["x"]; ok {
		n.Position = point(m)
	}
	for k, v := range m {
		switch k {
		case "id", "kind", "label", "title", "position", "x", "y":
		case "data":
			if inner, ok := v.(map[string]any); ok {
				for ik, iv := range inner {
					n.Data[ik] = iv
				}
			}
		default:
			n.Data[k] = v
		}
	}
	return nil
}

func point(m map[string]any) *dag.Point {
	x, y := float(m["x"]), float(m["y"])
	if x == nil || y == nil {
		return nil
	}
	return &dag.Point{X: *x, Y: *y}
}

// RawEdge is one edge as supplied upstream.
type RawEdge struct {
	Source string
	Target string
}

// UnmarshalJSON accepts both source/target and from/to spellings.
func (e *RawEdge) UnmarshalJSON(b []byte) error {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	src, _ := first(m, "source", "from")
	dst, _ := first(m, "target", "to")
	e.Source, e.Target = stringify(src), stringify(dst)
	return nil
}

// InferKind decides a node's kind. An explicit kind wins. Otherwise, in
// order: a gate-type field equal to AND or OR, a numeric course identifier
// (COURSE), and finally LEAF. A gate-type field reading "course" or "leaf"
// counts as explicit.
func InferKind(n RawNode) (dag.NodeKind, error) {
	if n.Kind != "" {
		k, ok := dag.ParseKind(n.Kind)
		if !ok {
			return 0, perrors.GraphValidation([]string{n.ID}, "unknown node kind %q", n.Kind)
		}
		return k, nil
	}
	if v, _ := first(n.Data, gateKeys...); v != nil {
		if k, ok := dag.ParseKind(stringify(v)); ok {
			return k, nil
		}
	}
	if v, _ := first(n.Data, courseIDKeys...); v != nil {
		if _, ok := courseID(v); ok {
			return dag.KindCourse, nil
		}
	}
	return dag.KindLeaf, nil
}

func (n RawNode) node() (dag.Node, error) {
	if err := perrors.ValidateNodeID(n.ID); err != nil {
		return dag.Node{}, err
	}
	kind, err := InferKind(n)
	if err != nil {
		return dag.Node{}, err
	}
	out := dag.Node{
		ID:       n.ID,
		Kind:     kind,
		Label:    n.Label,
		Title:    n.Title,
		Position: n.Position,
	}
	if kind != dag.KindCourse {
		return out, nil
	}
	if v, _ := first(n.Data, courseIDKeys...); v != nil {
		out.CourseID, _ = courseID(v)
	}
	out.Course = courseMeta(n.Data)
	if out.Label == "" && out.Course != nil {
		out.Label = out.Course.Code
	}
	return out, nil
}

func courseMeta(data map[string]any) *dag.CourseMeta {
	m := &dag.CourseMeta{}
	if v, _ := first(data, "course_code", "code", "courseCode"); v != nil {
		m.Code = strings.TrimSpace(stringify(v))
	}
	if v, _ := first(data, "credits"); v != nil {
		m.Credits = float(v)
	}
	if v, _ := first(data, "level"); v != nil {
		m.Level = stringify(v)
	}
	if v, _ := first(data, "college", "unit"); v != nil {
		m.Unit = stringify(v)
	}
	if v, _ := first(data, "last_taught_term", "last_offered", "lastOffered"); v != nil {
		m.LastOffered = stringify(v)
	}
	if v, _ := first(data, "description"); v != nil {
		m.Description = stringify(v)
	}
	if *m == (dag.CourseMeta{}) {
		return nil
	}
	return m
}

// FromLists builds a validated graph from the node/edge-list form.
//
// The root is, in order of preference: the WithRoot option, the input's Root
// field, the sink course matching WithRootCourse, or the unique course node
// with no outgoing edges. On any failure no graph is returned and the error
// is an INVALID_GRAPH *errors.Error naming the offending ids.
func FromLists(in ListInput, opts ...Option) (*dag.DAG, error) {
	o := newOptions(opts)
	g := dag.New()

	for _, raw := range in.Nodes {
		n, err := raw.node()
		if err != nil {
			return nil, invalidGraph(err)
		}
		if err := g.AddNode(n); err != nil {
			return nil, invalidGraph(err)
		}
	}
	for _, list := range [][]RawEdge{in.Edges, in.Links} {
		for _, e := range list {
			if err := g.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
				return nil, invalidGraph(err)
			}
		}
	}

	root, err := pickRoot(g, in.Root, o)
	if err != nil {
		return nil, err
	}
	if err := g.SetRoot(root); err != nil {
		return nil, invalidGraph(err)
	}
	if err := g.Validate(); err != nil {
		return nil, invalidGraph(err)
	}
	return g, nil
}

func pickRoot(g *dag.DAG, declared string, o *options) (string, error) {
	switch {
	case o.root != "":
		return o.root, nil
	case declared != "":
		return declared, nil
	}
	var candidates []string
	for _, n := range g.Sinks() {
		if !n.IsCourse() {
			continue
		}
		if o.rootCourse != nil && n.CourseID == o.rootCourse.ID {
			return n.ID, nil
		}
		candidates = append(candidates, n.ID)
	}
	if len(candidates) == 1 && o.rootCourse == nil {
		return candidates[0], nil
	}
	return "", perrors.GraphValidation(candidates, "cannot determine root course from %d candidates", len(candidates))
}
