package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the total number of edge crossings for the given rank
// orderings. It sums the crossings between each pair of consecutive ranks.
// The orders map holds node IDs in order for each rank; ranks without entries
// are treated as empty.
//
// Only edges between consecutive ranks are counted, so callers normally
// subdivide long edges first.
//
// Example:
//
//	orders := map[int][]string{
//	    0: {"MATH 211", "MATH 221", "ECON 301"},
//	    1: {"OR_1"},
//	}
//	crossings := dag.CountCrossings(g, orders)
func CountCrossings(g *DAG, orders map[int][]string) int {
	rows := slices.Sorted(maps.Keys(orders))
	crossings := 0
	for i := 0; i < len(rows)-1; i++ {
		r := rows[i]
		crossings += CountLayerCrossings(g, orders[r], orders[r+1])
	}
	return crossings
}

// CountLayerCrossings counts edge crossings between two adjacent ranks using a
// Fenwick tree (binary indexed tree) in O(E log V), where E is the number of
// edges between the ranks and V the number of nodes in the lower rank.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// This is equivalent to counting inversions in the sequence of target positions
// when edges are sorted by source position.
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, nodeID := range upper {
		for _, next := range g.Outputs(nodeID) {
			if pos, ok := lowerPos[next]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// CountPairCrossingsWithPos counts the crossings between edges of two nodes
// placed left and right of each other in the same rank. If useInputs is true,
// edges to the previous rank are considered; otherwise edges to the next rank.
//
// The adjPos map gives node positions in the adjacent rank. Nodes not in the
// map are ignored. Comparing (a,b) against (b,a) tells an adjacent-swap
// heuristic whether swapping the pair reduces crossings.
func CountPairCrossingsWithPos(g *DAG, left, right string, adjPos map[string]int, useInputs bool) int {
	var lnbr, rnbr []string
	if useInputs {
		lnbr = g.Inputs(left)
		rnbr = g.Inputs(right)
	} else {
		lnbr = g.Outputs(left)
		rnbr = g.Outputs(right)
	}

	crossings := 0
	for _, ln := range lnbr {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range rnbr {
			if rp, ok := adjPos[rn]; ok && lp > rp {
				crossings++
			}
		}
	}
	return crossings
}
