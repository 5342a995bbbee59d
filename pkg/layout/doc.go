// Package layout assigns 2-D coordinates to the nodes of a prerequisite
// graph.
//
// Layout is independent of any learner: the same graph always produces the
// same picture, and statuses are painted on top by the renderer.
//
// # Pipeline
//
// [Compute] works on a private copy of the graph:
//
//  1. [StripPositions] drops coordinates that came with the upstream record.
//  2. Nodes are ranked by their longest path from a source, so every
//     prerequisite lies on an earlier rank than what it unlocks.
//  3. Edges spanning several ranks are subdivided with virtual nodes.
//  4. Each rank is ordered by the [Barycentric] heuristic to reduce edge
//     crossings.
//  5. Ranks become columns (or rows, depending on [Direction]) spaced by
//     RankSeparation; nodes within a rank are NodeSeparation apart and
//     centred on the widest rank.
//
// AND and OR gates occupy a full slot like courses do, even though renderers
// draw them smaller. Virtual nodes take part in ordering but get no
// coordinates.
package layout
