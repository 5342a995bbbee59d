package dag

import (
	"errors"
	"slices"
	"testing"
)

func course(id string, courseID int) Node {
	return Node{ID: id, Kind: KindCourse, CourseID: courseID}
}

// cs300 builds CS300 ← AND(OR(MATH211, MATH221), ECON301).
func cs300(t *testing.T) *DAG {
	t.Helper()
	g := New()
	for _, n := range []Node{
		course("cs300", 300),
		{ID: "and", Kind: KindAnd},
		{ID: "or", Kind: KindOr},
		course("math211", 211),
		course("math221", 221),
		course("econ301", 301),
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range []Edge{
		{From: "and", To: "cs300"},
		{From: "or", To: "and"},
		{From: "econ301", To: "and"},
		{From: "math211", To: "or"},
		{From: "math221", To: "or"},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	if err := g.SetRoot("cs300"); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	return g
}

func idsOf(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.IDs
	}
	return nil
}

func TestAddNode(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(course("a", 1)); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	err := g.AddNode(course("a", 2))
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want %v", err, ErrDuplicateNodeID)
	}
	if got := idsOf(err); !slices.Equal(got, []string{"a"}) {
		t.Errorf("IDs = %v, want [a]", got)
	}
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"unknown source", Edge{From: "x", To: "a"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
		{"self loop", Edge{From: "a", To: "a"}, ErrSelfLoop},
		{"duplicate", Edge{From: "a", To: "b"}, ErrDuplicateEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			_ = g.AddNode(course("a", 1))
			_ = g.AddNode(course("b", 2))
			_ = g.AddEdge(Edge{From: "a", To: "b"})

			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge(%v) = %v, want %v", tt.edge, err, tt.want)
			}
			if g.EdgeCount() != 1 {
				t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
			}
		})
	}
}

func TestRemoveEdge(t *testing.T) {
	g := cs300(t)
	g.RemoveEdge("math211", "or")
	if g.HasEdge("math211", "or") {
		t.Error("HasEdge after RemoveEdge = true")
	}
	if got := g.Inputs("or"); !slices.Equal(got, []string{"math221"}) {
		t.Errorf("Inputs(or) = %v, want [math221]", got)
	}
	if err := g.AddEdge(Edge{From: "math211", To: "or"}); err != nil {
		t.Errorf("re-adding removed edge: %v", err)
	}
	g.RemoveEdge("missing", "edge")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *DAG)
		want    error
		wantIDs []string
	}{
		{
			name:   "valid",
			mutate: func(*DAG) {},
		},
		{
			name: "empty gate",
			mutate: func(g *DAG) {
				_ = g.AddNode(Node{ID: "lonely", Kind: KindOr})
				_ = g.AddEdge(Edge{From: "lonely", To: "and"})
			},
			want:    ErrEmptyGate,
			wantIDs: []string{"lonely"},
		},
		{
			name: "course without id",
			mutate: func(g *DAG) {
				_ = g.AddNode(Node{ID: "nameless", Kind: KindCourse})
				_ = g.AddEdge(Edge{From: "nameless", To: "or"})
			},
			want:    ErrMissingCourseID,
			wantIDs: []string{"nameless"},
		},
		{
			name: "cycle through gates",
			mutate: func(g *DAG) {
				_ = g.AddNode(Node{ID: "x", Kind: KindAnd})
				_ = g.AddEdge(Edge{From: "or", To: "x"})
				_ = g.AddEdge(Edge{From: "x", To: "or"})
			},
			want:    ErrGraphHasCycle,
			wantIDs: []string{"or", "x"},
		},
		{
			name: "root with outgoing edge",
			mutate: func(g *DAG) {
				_ = g.AddNode(course("cs400", 400))
				_ = g.AddEdge(Edge{From: "cs300", To: "cs400"})
			},
			want:    ErrInvalidRoot,
			wantIDs: []string{"cs300"},
		},
		{
			name:    "root is gate",
			mutate:  func(g *DAG) { _ = g.SetRoot("and") },
			want:    ErrInvalidRoot,
			wantIDs: []string{"and"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := cs300(t)
			tt.mutate(g)
			err := g.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if got := idsOf(err); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("IDs = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestValidate_NoRoot(t *testing.T) {
	g := New()
	_ = g.AddNode(course("a", 1))
	if err := g.Validate(); !errors.Is(err, ErrNoRoot) {
		t.Errorf("Validate() = %v, want %v", err, ErrNoRoot)
	}
	if err := g.SetRoot("missing"); !errors.Is(err, ErrNoRoot) {
		t.Errorf("SetRoot(missing) = %v, want %v", err, ErrNoRoot)
	}
}

func TestTopoOrder(t *testing.T) {
	g := cs300(t)
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error: %v", err)
	}
	want := []string{"math211", "math221", "econ301", "or", "and", "cs300"}
	if !slices.Equal(order, want) {
		t.Errorf("TopoOrder() = %v, want %v", order, want)
	}

	pos := PosMap(order)
	for _, e := range g.Edges() {
		if pos[e.From] >= pos[e.To] {
			t.Errorf("edge %s->%s out of order", e.From, e.To)
		}
	}
}

func TestTopoOrder_Cycle(t *testing.T) {
	g := cs300(t)
	_ = g.AddEdge(Edge{From: "and", To: "or"})

	_, err := g.TopoOrder()
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Fatalf("TopoOrder() = %v, want %v", err, ErrGraphHasCycle)
	}
	if got := idsOf(err); !slices.Equal(got, []string{"cs300", "and", "or"}) {
		t.Errorf("IDs = %v, want [cs300 and or]", got)
	}
}

func TestClone(t *testing.T) {
	g := cs300(t)
	credits := 3.0
	n, _ := g.Node("math211")
	n.Course = &CourseMeta{Code: "MATH 211", Credits: &credits}

	c := g.Clone()
	cn, _ := c.Node("math211")
	*cn.Course.Credits = 4
	cn.Label = "changed"
	c.RemoveEdge("math211", "or")

	if *n.Course.Credits != 3 {
		t.Errorf("original credits = %v, want 3", *n.Course.Credits)
	}
	if n.Label != "" {
		t.Errorf("original label = %q, want empty", n.Label)
	}
	if !g.HasEdge("math211", "or") {
		t.Error("original edge removed through clone")
	}
	if c.Root() != g.Root() {
		t.Errorf("clone root = %q, want %q", c.Root(), g.Root())
	}
	if !slices.Equal(NodeIDs(c.Nodes()), NodeIDs(g.Nodes())) {
		t.Error("clone changed node order")
	}
}

func TestSetRowsAndRowIndex(t *testing.T) {
	g := cs300(t)
	g.SetRows(map[string]int{"math211": 0, "math221": 0, "econ301": 1, "or": 1, "and": 2, "cs300": 3})

	if got := NodeIDs(g.NodesInRow(1)); !slices.Equal(got, []string{"or", "econ301"}) &&
		!slices.Equal(got, []string{"econ301", "or"}) {
		t.Errorf("NodesInRow(1) = %v", got)
	}
	if g.MaxRow() != 3 {
		t.Errorf("MaxRow() = %d, want 3", g.MaxRow())
	}
	if !slices.Equal(g.RowIDs(), []int{0, 1, 2, 3}) {
		t.Errorf("RowIDs() = %v", g.RowIDs())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want NodeKind
		ok   bool
	}{
		{"COURSE", KindCourse, true},
		{"course", KindCourse, true},
		{" and ", KindAnd, true},
		{"Or", KindOr, true},
		{"leaf", KindLeaf, true},
		{"virtual", 0, false},
		{"xor", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCountPairCrossingsWithPos(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "x", "y"} {
		_ = g.AddNode(Node{ID: id, Kind: KindLeaf})
	}
	_ = g.AddEdge(Edge{From: "x", To: "b"})
	_ = g.AddEdge(Edge{From: "y", To: "a"})

	pos := PosMap([]string{"a", "b"})
	if got := CountPairCrossingsWithPos(g, "x", "y", pos, false); got != 1 {
		t.Errorf("x before y = %d, want 1", got)
	}
	if got := CountPairCrossingsWithPos(g, "y", "x", pos, false); got != 0 {
		t.Errorf("y before x = %d, want 0", got)
	}
}
