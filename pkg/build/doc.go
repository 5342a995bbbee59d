// Package build turns raw prerequisite records into validated prerequisite
// graphs.
//
// # Input Forms
//
// Three shapes of upstream data are accepted:
//
//   - Node/edge lists with an explicit kind on every node ([FromLists]).
//   - Node/edge lists without kinds. The kind is inferred from each node's
//     data: an AND/OR gate field first, then a numeric course id (COURSE),
//     otherwise LEAF ([InferKind]).
//   - A nested boolean tree, flattened into a graph ([FromTree]). Gates get
//     fresh ids and courses are de-duplicated, so shared prerequisites
//     become shared nodes.
//
// [Decode] sniffs raw JSON and dispatches to the right form.
//
// # Validation
//
// Every build ends with [dag.DAG.Validate]. Unknown edge endpoints, duplicate
// ids or edges, self loops, gates without inputs, cycles and a missing or
// misplaced root all fail with an INVALID_GRAPH error naming the offending
// ids. A partial graph is never returned.
//
// # Decoration
//
// [Decorate] returns a copy of a graph whose course nodes carry catalog
// metadata (code, credits, level, unit), looked up concurrently.
//
// [dag.DAG.Validate]: github.com/matzehuels/prereqgraph/pkg/dag.DAG.Validate
package build
