// Package dag provides the prerequisite graph model: a directed acyclic graph
// of course, logic-gate and leaf nodes feeding a single root course.
//
// # Overview
//
// A prerequisite rule such as "(MATH 211 or MATH 221) and ECON 301" becomes a
// small graph. Course nodes are real catalog courses, [KindAnd] and [KindOr]
// gates combine their inputs, and [KindLeaf] nodes stand for non-course
// requirements (placement exams, instructor consent). Edges point from a
// prerequisite toward what it unlocks, ending at the root:
//
//	MATH 211 ─┐
//	          OR_1 ─┐
//	MATH 221 ─┘     AND_1 ── CS 300
//	ECON 301 ───────┘
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [DAG.AddNode], edges with
// [DAG.AddEdge], mark the target course with [DAG.SetRoot], and check the
// structural rules with [DAG.Validate]:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "course:300", Kind: dag.KindCourse, CourseID: 300})
//	g.AddNode(dag.Node{ID: "course:211", Kind: dag.KindCourse, CourseID: 211})
//	g.AddEdge(dag.Edge{From: "course:211", To: "course:300"})
//	g.SetRoot("course:300")
//	err := g.Validate()
//
// Most callers never build graphs by hand: the build package turns raw
// prerequisite records into validated graphs.
//
// # Determinism
//
// Nodes keep insertion order, and [DAG.Nodes], [DAG.Sources], [DAG.Sinks] and
// [DAG.TopoOrder] all follow it. Evaluation and layout built on these
// traversals therefore produce identical output for identical input.
//
// # Validation Errors
//
// Structural failures are returned as [*ValidationError], wrapping one of the
// package sentinels ([ErrDuplicateEdge], [ErrEmptyGate], [ErrGraphHasCycle],
// ...) and naming the offending node IDs.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V) time. The layout engine uses them to pick the best
// node ordering found during barycentric sweeps.
//
// # Concurrency
//
// A DAG is not safe for concurrent mutation. Built graphs are treated as
// immutable values: evaluation and layout only read them, so one graph may be
// shared across goroutines.
//
// # Related Packages
//
// The [transform] subpackage assigns layers and subdivides long edges for the
// layout engine.
//
// [transform]: github.com/matzehuels/prereqgraph/pkg/dag/transform
package dag
