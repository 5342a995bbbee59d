// Package graph provides serialization types for prerequisite graphs,
// layouts and evaluations.
//
// This package defines the canonical wire format used for JSON files, API
// responses and caching.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Graph], [Layout], [Evaluation]: serialization types (this package)
//   - pkg/dag.DAG: internal graph representation
//   - pkg/layout.Layout: internal layout (positions keyed by node id)
//   - pkg/eval.Result: internal evaluation
//
// Use [FromDAG]/[ToDAG], [FromLayout] and [NewEvaluation] to convert.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "root": "course:300",
//	  "nodes": [
//	    {"id": "course:300", "kind": "COURSE", "course_id": 300, "label": "CS 300"},
//	    {"id": "OR_1", "kind": "OR"},
//	    {"id": "course:211", "kind": "COURSE", "course_id": 211}
//	  ],
//	  "edges": [
//	    {"from": "OR_1", "to": "course:300"},
//	    {"from": "course:211", "to": "OR_1"}
//	  ]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("cs300.json")   // File → DAG (validated)
//	graph.WriteGraphFile(g, "output.json")      // DAG → File
//	data, _ := graph.MarshalGraph(g)            // DAG → []byte
//	parsed, _ := graph.UnmarshalGraph(data)     // []byte → Graph
//
// Reading always validates: a file that does not describe a well-formed
// prerequisite graph fails with INVALID_GRAPH.
//
// # Evaluation Serialization
//
// [Evaluation] keeps statuses in topological order using an ordered map, so
// JSON output lists prerequisites before the courses they unlock.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
