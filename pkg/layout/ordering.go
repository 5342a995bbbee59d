package layout

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// Orderer decides the sequence of nodes within each rank of a layered graph.
type Orderer interface {
	OrderRows(g *dag.DAG) map[int][]string
}

// ContextOrderer is an Orderer that can be cancelled between passes.
type ContextOrderer interface {
	Orderer
	OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string
}

// Barycentric is the Sugiyama barycenter heuristic.
//
// Each pass sweeps the ranks in one direction, alternating top-down and
// bottom-up. Within a rank every node is keyed by the mean position of its
// neighbours in the rank just swept, and the rank is stably sorted by that
// key; nodes without neighbours there keep their current position as key.
// An adjacent-swap transpose then removes any remaining local crossings.
// The ordering with the fewest crossings over all passes wins, and ties go
// to the earliest, so the result is deterministic.
//
// The graph must be layered (every node has a Row) and subdivided, so that
// every edge joins adjacent ranks.
type Barycentric struct {
	Passes int
}

// OrderRows implements [Orderer].
func (b Barycentric) OrderRows(g *dag.DAG) map[int][]string {
	return b.OrderRowsContext(context.Background(), g)
}

// OrderRowsContext implements [ContextOrderer]. On cancellation the best
// ordering found so far is returned.
func (b Barycentric) OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string {
	rows := g.RowIDs()
	orders := make(map[int][]string, len(rows))
	for _, r := range rows {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	if len(rows) < 2 {
		return orders
	}

	passes := b.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}

	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)
	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		if ctx.Err() != nil {
			break
		}
		if pass%2 == 0 {
			for i := 1; i < len(rows); i++ {
				orders[rows[i]] = sweep(g, orders[rows[i]], orders[rows[i-1]], true)
			}
		} else {
			for i := len(rows) - 2; i >= 0; i-- {
				orders[rows[i]] = sweep(g, orders[rows[i]], orders[rows[i+1]], false)
			}
		}
		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			bestCrossings = c
			best = cloneOrders(orders)
		}
	}
	return best
}

// sweep reorders row by the barycenters of its neighbours in adj, then
// transposes adjacent pairs.
func sweep(g *dag.DAG, row, adj []string, useInputs bool) []string {
	adjPos := dag.PosMap(adj)
	keys := make(map[string]float64, len(row))
	for i, id := range row {
		nbrs := g.Outputs(id)
		if useInputs {
			nbrs = g.Inputs(id)
		}
		sum, n := 0.0, 0
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		if n == 0 {
			keys[id] = float64(i)
			continue
		}
		keys[id] = sum / float64(n)
	}

	out := slices.Clone(row)
	slices.SortStableFunc(out, func(a, b string) int {
		switch ka, kb := keys[a], keys[b]; {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	transpose(g, out, adjPos, useInputs)
	return out
}

// transpose swaps adjacent nodes while that strictly reduces crossings with
// the adjacent rank. Every swap lowers the count, so it terminates.
func transpose(g *dag.DAG, row []string, adjPos map[string]int, useInputs bool) {
	for improved := true; improved; {
		improved = false
		for i := 0; i+1 < len(row); i++ {
			a, b := row[i], row[i+1]
			before := dag.CountPairCrossingsWithPos(g, a, b, adjPos, useInputs)
			after := dag.CountPairCrossingsWithPos(g, b, a, adjPos, useInputs)
			if after < before {
				row[i], row[i+1] = b, a
				improved = true
			}
		}
	}
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		out[r] = slices.Clone(orders[r])
	}
	return out
}
