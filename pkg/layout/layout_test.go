package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

func build(t *testing.T, nodes []dag.Node, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

// cs300 builds CS300 ← AND(OR(MATH211, MATH221), ECON301).
func cs300(t *testing.T) *dag.DAG {
	g := build(t,
		[]dag.Node{
			{ID: "cs300", Kind: dag.KindCourse, CourseID: 300},
			{ID: "and", Kind: dag.KindAnd},
			{ID: "or", Kind: dag.KindOr},
			{ID: "math211", Kind: dag.KindCourse, CourseID: 211},
			{ID: "math221", Kind: dag.KindCourse, CourseID: 221},
			{ID: "econ301", Kind: dag.KindCourse, CourseID: 301},
		},
		[][2]string{
			{"and", "cs300"},
			{"or", "and"},
			{"econ301", "and"},
			{"math211", "or"},
			{"math221", "or"},
		})
	if err := g.SetRoot("cs300"); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestCompute(t *testing.T) {
	l, err := Compute(cs300(t), Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantRanks := map[string]int{
		"math211": 0, "math221": 0, "econ301": 0,
		"or": 1, "and": 2, "cs300": 3,
	}
	if diff := cmp.Diff(wantRanks, l.Ranks); diff != "" {
		t.Errorf("ranks mismatch (-want +got):\n%s", diff)
	}

	wantPos := map[string]dag.Point{
		"math211": {X: 0, Y: 0},
		"math221": {X: 0, Y: 80},
		"econ301": {X: 0, Y: 160},
		"or":      {X: 200, Y: 80},
		"and":     {X: 400, Y: 80},
		"cs300":   {X: 600, Y: 80},
	}
	if diff := cmp.Diff(wantPos, l.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if l.Width != 600 || l.Height != 160 {
		t.Errorf("size = %gx%g, want 600x160", l.Width, l.Height)
	}
	if l.Direction != LeftToRight {
		t.Errorf("direction = %s, want %s", l.Direction, LeftToRight)
	}
	if l.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", l.Crossings)
	}
	if len(l.Edges) != 5 {
		t.Errorf("edges = %v, want the 5 input edges", l.Edges)
	}
}

func TestCompute_Directions(t *testing.T) {
	tests := []struct {
		dir  Direction
		root dag.Point
		src  dag.Point
	}{
		{LeftToRight, dag.Point{X: 600, Y: 80}, dag.Point{X: 0, Y: 0}},
		{RightToLeft, dag.Point{X: 0, Y: 80}, dag.Point{X: 600, Y: 0}},
		{TopToBottom, dag.Point{X: 80, Y: 600}, dag.Point{X: 0, Y: 0}},
		{BottomToTop, dag.Point{X: 80, Y: 0}, dag.Point{X: 0, Y: 600}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			l, err := Compute(cs300(t), Options{Direction: tt.dir})
			if err != nil {
				t.Fatal(err)
			}
			if got := l.Positions["cs300"]; got != tt.root {
				t.Errorf("cs300 = %+v, want %+v", got, tt.root)
			}
			if got := l.Positions["math211"]; got != tt.src {
				t.Errorf("math211 = %+v, want %+v", got, tt.src)
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	g := cs300(t)
	opts := Options{Direction: TopToBottom, NodeSeparation: 50, RankSeparation: 120}
	first, err := Compute(g, opts)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := Compute(g, opts)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("layout changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestCompute_NoOverlap(t *testing.T) {
	g := cs300(t)
	l, err := Compute(g, Options{NodeSeparation: 30})
	if err != nil {
		t.Fatal(err)
	}
	seen := map[dag.Point]string{}
	for id, p := range l.Positions {
		if other, ok := seen[p]; ok {
			t.Errorf("%s and %s share position %+v", id, other, p)
		}
		seen[p] = id
	}
	for r, ids := range l.Orders {
		for i := 1; i < len(ids); i++ {
			a, b := l.Positions[ids[i-1]], l.Positions[ids[i]]
			if b.Y-a.Y != 30 {
				t.Errorf("rank %d: %s→%s spacing %g, want 30", r, ids[i-1], ids[i], b.Y-a.Y)
			}
		}
	}
	if len(l.Positions) != g.NodeCount() {
		t.Errorf("positions = %d, want one per node (%d)", len(l.Positions), g.NodeCount())
	}
}

func TestCompute_IgnoresUpstreamPositions(t *testing.T) {
	plain, err := Compute(cs300(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	g := cs300(t)
	for _, n := range g.Nodes() {
		n.Position = &dag.Point{X: -999, Y: 42}
	}
	placed, err := Compute(g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(plain.Positions, placed.Positions); diff != "" {
		t.Errorf("upstream positions leaked into layout:\n%s", diff)
	}
	if n, _ := g.Node("cs300"); n.Position == nil || n.Position.X != -999 {
		t.Error("input graph was modified")
	}
}

func TestCompute_LeavesInputUntouched(t *testing.T) {
	g := cs300(t)
	nodes, edges := g.NodeCount(), g.EdgeCount()
	if _, err := Compute(g, Options{}); err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != nodes || g.EdgeCount() != edges {
		t.Errorf("graph grew to %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if !g.HasEdge("econ301", "and") {
		t.Error("long edge was subdivided in the input graph")
	}
}

func TestCompute_MinimizesCrossings(t *testing.T) {
	// a→y and b→x cross in insertion order.
	g := build(t,
		[]dag.Node{
			{ID: "a", Kind: dag.KindCourse, CourseID: 1},
			{ID: "b", Kind: dag.KindCourse, CourseID: 2},
			{ID: "x", Kind: dag.KindCourse, CourseID: 3},
			{ID: "y", Kind: dag.KindCourse, CourseID: 4},
		},
		[][2]string{{"a", "y"}, {"b", "x"}})
	if got := dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}); got != 1 {
		t.Fatalf("initial crossings = %d, want 1", got)
	}

	l, err := Compute(g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", l.Crossings)
	}
	if diff := cmp.Diff([]string{"y", "x"}, l.Orders[1]); diff != "" {
		t.Errorf("rank 1 order (-want +got):\n%s", diff)
	}
}

func TestCompute_Empty(t *testing.T) {
	l, err := Compute(dag.New(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Positions) != 0 || l.Width != 0 || l.Height != 0 {
		t.Errorf("empty layout = %+v", l)
	}
}

func TestCompute_Cycle(t *testing.T) {
	g := build(t,
		[]dag.Node{
			{ID: "a", Kind: dag.KindCourse, CourseID: 1},
			{ID: "b", Kind: dag.KindCourse, CourseID: 2},
		},
		[][2]string{{"a", "b"}, {"b", "a"}})
	_, err := Compute(g, Options{})
	if got := perrors.GetCode(err); got != perrors.ErrCodeCycleDetected {
		t.Errorf("code = %q, want %q", got, perrors.ErrCodeCycleDetected)
	}
}

func TestCompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ComputeContext(ctx, cs300(t), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want %v", err, context.Canceled)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"zero", Options{}, true},
		{"lower case direction", Options{Direction: "tb"}, true},
		{"bad direction", Options{Direction: "diagonal"}, false},
		{"negative node separation", Options{NodeSeparation: -1}, false},
		{"negative rank separation", Options{RankSeparation: -1}, false},
		{"negative passes", Options{Passes: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
				t.Errorf("code = %q, want %q", perrors.GetCode(err), perrors.ErrCodeInvalidInput)
			}
		})
	}

	if (Options{}).Hash() != (Options{Direction: LeftToRight, NodeSeparation: 80, RankSeparation: 200, Passes: 24}).Hash() {
		t.Error("defaults and explicit defaults hash differently")
	}
	if (Options{}).Hash() == (Options{Direction: TopToBottom}).Hash() {
		t.Error("direction does not affect hash")
	}
}

func TestBarycentric_SingleRank(t *testing.T) {
	g := build(t,
		[]dag.Node{
			{ID: "a", Kind: dag.KindCourse, CourseID: 1},
			{ID: "b", Kind: dag.KindCourse, CourseID: 2},
		}, nil)
	orders := Barycentric{}.OrderRows(g)
	if diff := cmp.Diff(map[int][]string{0: {"a", "b"}}, orders); diff != "" {
		t.Errorf("orders (-want +got):\n%s", diff)
	}
}
