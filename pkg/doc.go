// Package pkg provides the core libraries for prerequisite graph evaluation.
//
// # Overview
//
// Prereqgraph turns the raw prerequisite record of a course into a small
// directed graph of courses and AND/OR gates, checks a learner's history
// against it, and lays it out for display. The pkg directory is organized
// into four areas:
//
//  1. Domain logic: [dag], [build], [eval], [layout]
//  2. Data access: [source], [catalog], [cache]
//  3. Orchestration: [pipeline]
//  4. Output: [graph], [render]
//
// # Architecture
//
// The typical data flow:
//
//	Raw record (directory, PostgreSQL, MongoDB)
//	         ↓
//	    [build] package (decode lists or nested trees, validate, decorate)
//	         ↓
//	    [dag] package (graph structure)
//	         ↓
//	    [eval] package (satisfaction, status, eligibility, stats)
//	         ↓
//	    [layout] package (ranks, crossing reduction, coordinates)
//	         ↓
//	    JSON, DOT, SVG, PNG or PDF output
//
// # Quick Start
//
// Build a graph from a record and check eligibility:
//
//	import (
//	    "github.com/matzehuels/prereqgraph/pkg/build"
//	    "github.com/matzehuels/prereqgraph/pkg/eval"
//	)
//
//	g, err := build.Decode(record, build.WithRootCourse(build.RootCourse{ID: 300}))
//	if err != nil {
//	    return err // INVALID_GRAPH names the offending node ids
//	}
//	e, err := eval.CheckEligibility(g, eval.Progress{Completed: []int{211}})
//	fmt.Println(e.CanTake, e.Missing)
//
// # Main Packages
//
// [dag] - Directed graph of course, gate, leaf and virtual nodes. Edges run
// from a prerequisite to what it unlocks, so the root course is the sink.
//
// [build] - Decoders for the flat node/edge list and nested tree record
// shapes. Validation rejects dangling edges, duplicate ids and cycles.
//
// [eval] - Pure evaluation of a graph against a learner's progress:
// per-node satisfaction and status, eligibility, and depth statistics.
//
// [layout] - Layered layout: longest-path ranking, edge subdivision with
// [dag/transform], barycentric crossing reduction and coordinate assignment.
//
// [source] - Where raw records come from: a directory of JSON files,
// PostgreSQL or MongoDB.
//
// [cache] - File, Redis and null caches with the key and TTL conventions
// shared by every stage.
//
// [pipeline] - Cached graph, evaluate, stats, layout and render stages used
// by both the CLI and the HTTP API.
//
// [graph] - Serialization types for graphs, evaluations and layouts.
//
// [render] - Graphviz node-link diagrams colored by status.
//
// [observability] - Hook interfaces for metrics, with a Prometheus
// implementation in observability/prom.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test -short ./pkg/...             # Skip Graphviz rendering
//	go test -run Example ./pkg/...       # Examples only
//
// The PostgreSQL source is tested against sqlmock. The Redis cache and the
// MongoDB source have integration tests gated on PREREQGRAPH_TEST_REDIS_URL
// and PREREQGRAPH_TEST_MONGO_URI.
package pkg
