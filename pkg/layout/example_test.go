package layout_test

import (
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/layout"
)

func ExampleCompute() {
	// CS 300 requires MATH 211 or MATH 221
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "course:300", Kind: dag.KindCourse, CourseID: 300})
	_ = g.AddNode(dag.Node{ID: "OR_1", Kind: dag.KindOr})
	_ = g.AddNode(dag.Node{ID: "course:211", Kind: dag.KindCourse, CourseID: 211})
	_ = g.AddNode(dag.Node{ID: "course:221", Kind: dag.KindCourse, CourseID: 221})
	_ = g.AddEdge(dag.Edge{From: "OR_1", To: "course:300"})
	_ = g.AddEdge(dag.Edge{From: "course:211", To: "OR_1"})
	_ = g.AddEdge(dag.Edge{From: "course:221", To: "OR_1"})
	_ = g.SetRoot("course:300")

	l, _ := layout.Compute(g, layout.Options{Direction: layout.TopToBottom})
	for _, id := range []string{"course:211", "course:221", "OR_1", "course:300"} {
		p := l.Positions[id]
		fmt.Printf("%-10s rank %d at (%g, %g)\n", id, l.Ranks[id], p.X, p.Y)
	}
	fmt.Printf("size %gx%g\n", l.Width, l.Height)
	// Output:
	// course:211 rank 0 at (0, 0)
	// course:221 rank 0 at (80, 0)
	// OR_1       rank 1 at (40, 200)
	// course:300 rank 2 at (40, 400)
	// size 80x400
}

func ExampleParseDirection() {
	d, err := layout.ParseDirection("rl")
	fmt.Println(d, err)
	_, err = layout.ParseDirection("up")
	fmt.Println(err)
	// Output:
	// RL <nil>
	// INVALID_INPUT: unknown layout direction "up" (want LR, RL, TB or BT)
}
