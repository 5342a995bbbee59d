package transform

import (
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// Subdivide breaks edges that span several ranks into chains of single-rank
// edges connected by [dag.KindVirtual] nodes.
//
// After AssignLayers, an edge from a shallow prerequisite straight into the
// root may skip several ranks. Ordering heuristics only look at adjacent
// ranks, so such an edge would be invisible to them. Subdividing it gives the
// edge a presence on every rank it crosses:
//
//	Before: MATH 211 (rank 0) → CS 300 (rank 3)
//	After:  MATH 211 → MATH 211_v_1 → MATH 211_v_2 → CS 300
//
// Each virtual node records the edge source as MasterID and returns it from
// EffectiveID, so the layout can map it back to the edge it belongs to.
//
// # Node IDs
//
// Virtual nodes get IDs of the form "source_v_rank". If a collision occurs a
// numeric suffix is appended ("source_v_1__2").
//
// Subdivide must run on a layout working copy, never on a built graph.
// It returns the number of virtual nodes inserted.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	var toRemove []dag.Edge
	added := 0

	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addVirtual(g, gen, prevID, src.ID, row)
			added++
		}
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID}); err != nil {
			panic(err)
		}
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	return added
}

func addVirtual(g *dag.DAG, gen *idGen, from, master string, row int) string {
	id := gen.next(master, row)
	if err := g.AddNode(dag.Node{
		ID:       id,
		Row:      row,
		Kind:     dag.KindVirtual,
		MasterID: master,
	}); err != nil {
		panic(err)
	}
	if err := g.AddEdge(dag.Edge{From: from, To: id}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_v_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
