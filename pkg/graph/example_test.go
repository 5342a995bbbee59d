package graph_test

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/graph"
)

func ExampleMarshalGraph() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "course:300", Kind: dag.KindCourse, CourseID: 300, Label: "CS 300"})
	_ = g.AddNode(dag.Node{ID: "course:211", Kind: dag.KindCourse, CourseID: 211})
	_ = g.AddEdge(dag.Edge{From: "course:211", To: "course:300"})
	_ = g.SetRoot("course:300")

	data, _ := graph.MarshalGraph(g)
	fmt.Print(string(data))
	// Output:
	// {
	//   "root": "course:300",
	//   "nodes": [
	//     {
	//       "id": "course:300",
	//       "kind": "COURSE",
	//       "course_id": 300,
	//       "label": "CS 300"
	//     },
	//     {
	//       "id": "course:211",
	//       "kind": "COURSE",
	//       "course_id": 211
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "course:211",
	//       "to": "course:300"
	//     }
	//   ]
	// }
}

func ExampleReadGraph() {
	input := `{
	  "root": "course:300",
	  "nodes": [
	    {"id": "course:300", "kind": "COURSE", "course_id": 300},
	    {"id": "OR_1", "kind": "OR"},
	    {"id": "course:211", "kind": "COURSE", "course_id": 211},
	    {"id": "course:221", "kind": "COURSE", "course_id": 221}
	  ],
	  "edges": [
	    {"from": "OR_1", "to": "course:300"},
	    {"from": "course:211", "to": "OR_1"},
	    {"from": "course:221", "to": "OR_1"}
	  ]
	}`
	g, err := graph.ReadGraph(strings.NewReader(input))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("nodes:", g.NodeCount())
	fmt.Println("inputs of OR_1:", g.Inputs("OR_1"))
	// Output:
	// nodes: 4
	// inputs of OR_1: [course:211 course:221]
}

func ExampleNewEvaluation() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "course:300", Kind: dag.KindCourse, CourseID: 300})
	_ = g.AddNode(dag.Node{ID: "course:211", Kind: dag.KindCourse, CourseID: 211})
	_ = g.AddEdge(dag.Edge{From: "course:211", To: "course:300"})
	_ = g.SetRoot("course:300")

	res, _ := eval.Evaluate(g, eval.Progress{})
	out, _ := json.Marshal(graph.NewEvaluation(300, g, res, nil))
	fmt.Println(string(out))
	// Output:
	// {"course_id":300,"can_take":false,"missing":[211],"satisfied":[],"statuses":{"course:211":"available","course:300":"locked"}}
}
