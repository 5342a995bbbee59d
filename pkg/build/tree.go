package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Tree is the nested boolean form of a prerequisite record:
//
//	{"type": "AND", "children": [
//	    {"type": "OR", "children": [{"type": "COURSE", "courseId": 211}, ...]},
//	    {"type": "COURSE", "courseId": 301, "label": "ECON 301"}
//	]}
//
// Decoding also accepts the operator form ({"operator": "AND", "children":
// [...]}), bare strings as leaves, and course references given as
// {"subjects": ["MATH", "STAT"], "course_number": 211}.
type Tree struct {
	Type     string // COURSE, AND, OR or LEAF; may be empty
	CourseID int
	Label    string
	Title    string
	Children []Tree

	// Subjects and Number hold a course reference by code. Cross-listed
	// courses carry several subjects.
	Subjects []string
	Number   string

	// bare marks a leaf decoded from a plain string.
	bare bool
}

type treeJSON struct {
	Type         string          `json:"type"`
	Kind         string          `json:"kind"`
	Operator     string          `json:"operator"`
	CourseID     json.RawMessage `json:"courseId"`
	CourseIDAlt  json.RawMessage `json:"course_id"`
	Label        string          `json:"label"`
	Title        string          `json:"title"`
	Subjects     []string        `json:"subjects"`
	CourseNumber json.RawMessage `json:"course_number"`
	Children     []Tree          `json:"children"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Tree{Label: strings.TrimSpace(s), bare: true}
		return nil
	}

	var raw treeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Tree{
		Type:     firstNonEmpty(raw.Type, raw.Kind, raw.Operator),
		Label:    raw.Label,
		Title:    raw.Title,
		Subjects: raw.Subjects,
		Children: raw.Children,
	}
	if id, ok := rawCourseID(raw.CourseID); ok {
		t.CourseID = id
	} else if id, ok := rawCourseID(raw.CourseIDAlt); ok {
		t.CourseID = id
	}
	if len(raw.CourseNumber) > 0 {
		t.Number = strings.Trim(string(raw.CourseNumber), `"`)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsZero reports whether the tree holds no requirement at all.
func (t Tree) IsZero() bool {
	return t.Type == "" && t.CourseID == 0 && t.Label == "" &&
		len(t.Children) == 0 && len(t.Subjects) == 0
}

// Code returns the course code of a reference node ("MATH/STAT 211"), or "".
func (t Tree) Code() string {
	if len(t.Subjects) == 0 {
		return ""
	}
	return strings.Join(t.Subjects, "/") + " " + t.Number
}

// FromTree flattens a nested tree into a validated graph.
//
// A top-level course node becomes the root. Otherwise WithRootCourse must name
// the root, and the top expression feeds it. A top-level node with no type but
// children attaches each child directly to the root.
//
// Every embedded gate gets a fresh id ("AND_1", "OR_2", numbered in pre-order).
// Courses are de-duplicated by course id and leaves by label, so a course that
// appears in several branches becomes one node with several outgoing edges.
func FromTree(t Tree, opts ...Option) (*dag.DAG, error) {
	o := newOptions(opts)
	f := &flattener{
		g:        dag.New(),
		opts:     o,
		expanded: make(map[string]bool),
		listed:   make(map[string][]Tree),
	}

	implicit := t.Type == "" && !t.bare && len(t.Children) > 0 && t.CourseID == 0 && len(t.Subjects) == 0
	kind, id := dag.KindLeaf, 0
	if !implicit {
		var err error
		if kind, id, err = f.classify(t); err != nil {
			return nil, err
		}
	}

	var rootID string
	var err error
	switch {
	case kind == dag.KindCourse && (o.rootCourse == nil || o.rootCourse.ID == id):
		rootID, err = f.addCourse(t, id)
		if err != nil {
			return nil, err
		}
		f.expanded[rootID] = true
		if err := f.walkChildren(t.Children, rootID); err != nil {
			return nil, err
		}
	case o.rootCourse != nil:
		rootID, err = f.addCourse(Tree{Label: o.rootCourse.Label, Title: o.rootCourse.Title}, o.rootCourse.ID)
		if err != nil {
			return nil, err
		}
		f.expanded[rootID] = true
		switch {
		case t.IsZero():
		case implicit:
			err = f.walkChildren(t.Children, rootID)
		default:
			err = f.walk(t, rootID)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, perrors.GraphValidation(nil, "tree has no root course")
	}

	if err := f.g.SetRoot(rootID); err != nil {
		return nil, invalidGraph(err)
	}
	if err := f.g.Validate(); err != nil {
		return nil, invalidGraph(err)
	}
	return f.g, nil
}

type flattener struct {
	g        *dag.DAG
	opts     *options
	gates    int
	expanded map[string]bool
	listed   map[string][]Tree // children each course was expanded with
}

// classify returns the node kind of t and, for courses, its course id.
func (f *flattener) classify(t Tree) (dag.NodeKind, int, error) {
	if t.Type != "" {
		k, ok := dag.ParseKind(t.Type)
		if !ok {
			return 0, 0, perrors.GraphValidation(nil, "unknown node type %q", t.Type)
		}
		if k != dag.KindCourse {
			return k, 0, nil
		}
		if t.CourseID > 0 {
			return k, t.CourseID, nil
		}
		if id, ok := f.resolve(firstNonEmpty(t.Code(), t.Label)); ok {
			return k, id, nil
		}
		return 0, 0, perrors.GraphValidation(nil, "course %q has no course id", firstNonEmpty(t.Label, t.Code()))
	}
	if t.CourseID > 0 {
		return dag.KindCourse, t.CourseID, nil
	}
	if code := t.Code(); code != "" {
		if id, ok := f.resolve(code); ok {
			return dag.KindCourse, id, nil
		}
		return dag.KindLeaf, 0, nil
	}
	if t.bare {
		if id, ok := f.resolve(t.Label); ok {
			return dag.KindCourse, id, nil
		}
		return dag.KindLeaf, 0, nil
	}
	if len(t.Children) > 0 {
		return 0, 0, perrors.GraphValidation(nil, "node %q has children but no AND/OR type", t.Label)
	}
	return dag.KindLeaf, 0, nil
}

func (f *flattener) resolve(code string) (int, bool) {
	if f.opts.resolve == nil || code == "" {
		return 0, false
	}
	return f.opts.resolve(code)
}

// walk adds the node for t (if new) and an edge from it to target.
func (f *flattener) walk(t Tree, target string) error {
	kind, courseID, err := f.classify(t)
	if err != nil {
		return err
	}

	var id string
	switch kind {
	case dag.KindAnd, dag.KindOr:
		f.gates++
		id = fmt.Sprintf("%s_%d", kind, f.gates)
		if err := f.g.AddNode(dag.Node{ID: id, Kind: kind, Label: t.Label}); err != nil {
			return invalidGraph(err)
		}
	case dag.KindCourse:
		if id, err = f.addCourse(t, courseID); err != nil {
			return err
		}
	default:
		if len(t.Children) > 0 {
			return perrors.GraphValidation(nil, "leaf %q cannot have children", t.Label)
		}
		if id, err = f.addLeaf(t); err != nil {
			return err
		}
	}

	if err := f.g.AddEdge(dag.Edge{From: id, To: target}); err != nil {
		return invalidGraph(err)
	}
	if f.expanded[id] {
		return f.revisit(id, t)
	}
	f.expanded[id] = true
	f.listed[id] = t.Children
	return f.walkChildren(t.Children, id)
}

// revisit handles a course that was already expanded elsewhere in the tree.
// A bare reference or an identical subtree adds nothing. A course first seen
// bare is expanded now. Two different child lists are an error.
func (f *flattener) revisit(id string, t Tree) error {
	prev, walked := f.listed[id]
	switch {
	case len(t.Children) == 0 || reflect.DeepEqual(prev, t.Children):
		return nil
	case walked && len(prev) == 0:
		f.listed[id] = t.Children
		return f.walkChildren(t.Children, id)
	}
	return perrors.GraphValidation([]string{id}, "course lists different prerequisites in different branches")
}

func (f *flattener) walkChildren(children []Tree, target string) error {
	for _, c := range children {
		if err := f.walk(c, target); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) addCourse(t Tree, courseID int) (string, error) {
	id := CourseNodeID(courseID)
	if _, ok := f.g.Node(id); ok {
		return id, nil
	}
	label := firstNonEmpty(t.Label, t.Code())
	n := dag.Node{ID: id, Kind: dag.KindCourse, CourseID: courseID, Label: label, Title: t.Title}
	if code := t.Code(); code != "" {
		n.Course = &dag.CourseMeta{Code: code}
	}
	if err := f.g.AddNode(n); err != nil {
		return "", invalidGraph(err)
	}
	return id, nil
}

func (f *flattener) addLeaf(t Tree) (string, error) {
	label := firstNonEmpty(t.Code(), t.Label, "requirement")
	id := "leaf:" + strings.Join(strings.Fields(label), " ")
	if err := perrors.ValidateNodeID(id); err != nil {
		return "", err
	}
	if _, ok := f.g.Node(id); ok {
		return id, nil
	}
	if err := f.g.AddNode(dag.Node{ID: id, Kind: dag.KindLeaf, Label: label, Title: t.Title}); err != nil {
		return "", invalidGraph(err)
	}
	return id, nil
}
