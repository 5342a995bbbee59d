package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "math211", Kind: dag.KindCourse, CourseID: 211, Label: "MATH 211"})
	_ = g.AddNode(dag.Node{ID: "cs300", Kind: dag.KindCourse, CourseID: 300, Label: "CS 300"})
	_ = g.AddEdge(dag.Edge{From: "math211", To: "cs300"})
	_ = g.SetRoot("cs300")

	// Color by where the learner stands
	res, _ := eval.Evaluate(g, eval.Progress{Completed: []int{211}})

	fmt.Print(nodelink.ToDOT(g, nodelink.Options{Statuses: res.Statuses}))
	// Output:
	// digraph G {
	//   rankdir=LR;
	//   bgcolor="transparent";
	//   node [fontname="Helvetica", fontsize=14, margin="0.2,0.1"];
	//   edge [arrowsize=0.7];
	//   ranksep=0.6;
	//   nodesep=0.3;
	//
	//   "math211" [label="MATH 211", shape=box, style="rounded,filled", fillcolor="#b7e4c7"];
	//   "cs300" [label="CS 300", shape=box, style="rounded,filled", fillcolor="#fff3b0"];
	//
	//   "math211" -> "cs300";
	// }
}
