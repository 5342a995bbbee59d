package transform_test

import (
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/dag/transform"
)

func ExampleAssignLayers() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "cs300", Kind: dag.KindCourse, CourseID: 300})
	_ = g.AddNode(dag.Node{ID: "and", Kind: dag.KindAnd})
	_ = g.AddNode(dag.Node{ID: "cs200", Kind: dag.KindCourse, CourseID: 200})
	_ = g.AddNode(dag.Node{ID: "cs100", Kind: dag.KindCourse, CourseID: 100})
	_ = g.AddEdge(dag.Edge{From: "and", To: "cs300"})
	_ = g.AddEdge(dag.Edge{From: "cs200", To: "and"})
	_ = g.AddEdge(dag.Edge{From: "cs100", To: "cs200"})
	_ = g.AddEdge(dag.Edge{From: "cs100", To: "and"})

	transform.AssignLayers(g)

	for _, id := range []string{"cs100", "cs200", "and", "cs300"} {
		n, _ := g.Node(id)
		fmt.Printf("%s rank: %d\n", id, n.Row)
	}
	// Output:
	// cs100 rank: 0
	// cs200 rank: 1
	// and rank: 2
	// cs300 rank: 3
}

func ExampleSubdivide() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "cs300", Kind: dag.KindCourse, CourseID: 300})
	_ = g.AddNode(dag.Node{ID: "cs200", Kind: dag.KindCourse, CourseID: 200})
	_ = g.AddNode(dag.Node{ID: "cs100", Kind: dag.KindCourse, CourseID: 100})
	_ = g.AddEdge(dag.Edge{From: "cs200", To: "cs300"})
	_ = g.AddEdge(dag.Edge{From: "cs100", To: "cs200"})
	_ = g.AddEdge(dag.Edge{From: "cs100", To: "cs300"}) // spans two ranks

	transform.AssignLayers(g)
	added := transform.Subdivide(g)

	fmt.Println("Virtual nodes:", added)
	fmt.Println("Outputs of cs100:", g.Outputs("cs100"))
	fmt.Println("Outputs of cs100_v_1:", g.Outputs("cs100_v_1"))
	// Output:
	// Virtual nodes: 1
	// Outputs of cs100: [cs200 cs100_v_1]
	// Outputs of cs100_v_1: [cs300]
}
