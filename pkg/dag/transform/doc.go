// Package transform provides graph transformations that prepare a working
// copy of a prerequisite graph for layered layout.
//
// # Overview
//
// The layout engine draws a prerequisite graph in ranks: prerequisites with no
// prerequisites of their own on the first rank, the root course on the last.
// Two transformations get a graph into that shape:
//
//   - [AssignLayers] computes each node's rank as the longest path from a
//     source, using Kahn's algorithm.
//   - [Subdivide] replaces every edge spanning more than one rank with a chain
//     of virtual nodes, so each edge connects consecutive ranks.
//
// Both mutate the graph they are given. Built graphs are immutable, so callers
// apply these to a [dag.DAG.Clone]:
//
//	work := g.Clone()
//	transform.AssignLayers(work)
//	transform.Subdivide(work)
//
// [dag.DAG.Clone]: github.com/matzehuels/prereqgraph/pkg/dag.DAG.Clone
package transform
