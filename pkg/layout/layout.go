package layout

import (
	"context"
	"errors"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/dag/transform"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Layout is the positioned form of a prerequisite graph.
type Layout struct {
	// Positions holds one point per graph node. Gates are placed on the same
	// grid as courses.
	Positions map[string]dag.Point
	// Ranks is each node's longest-path distance from a source.
	Ranks map[string]int
	// Orders lists node ids per rank in their final sequence.
	Orders map[int][]string
	// Edges are the input edges, unchanged.
	Edges []dag.Edge

	Width, Height float64
	Direction     Direction
	// Crossings is the edge crossing count of the chosen ordering, counted
	// on the subdivided graph.
	Crossings int
}

// Compute lays out g with the given options. See [ComputeContext].
func Compute(g *dag.DAG, opts Options) (*Layout, error) {
	return ComputeContext(context.Background(), g, opts)
}

// ComputeContext assigns coordinates to every node of g.
//
// g is not modified. Upstream positions are discarded, nodes are ranked by
// longest path from a source, long edges are subdivided, and each rank is
// ordered with the [Barycentric] heuristic. Ranks are centred on the widest
// one; consecutive nodes of a rank sit exactly NodeSeparation apart and
// consecutive ranks RankSeparation apart.
//
// The result depends only on g and opts. A cancelled ctx aborts the
// ordering and returns ctx.Err().
func ComputeContext(ctx context.Context, g *dag.DAG, opts Options) (*Layout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	dir, _ := ParseDirection(string(opts.Direction))

	work := StripPositions(g)
	if _, err := work.TopoOrder(); err != nil {
		var verr *dag.ValidationError
		if errors.As(err, &verr) {
			return nil, perrors.CycleDetected(verr.IDs, err)
		}
		return nil, perrors.CycleDetected(nil, err)
	}

	transform.AssignLayers(work)
	ranks := make(map[string]int, work.NodeCount())
	for _, n := range work.Nodes() {
		ranks[n.ID] = n.Row
	}
	transform.Subdivide(work)

	full := Barycentric{Passes: opts.Passes}.OrderRowsContext(ctx, work)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := &Layout{
		Positions: make(map[string]dag.Point, len(ranks)),
		Ranks:     ranks,
		Orders:    make(map[int][]string, len(full)),
		Edges:     g.Edges(),
		Direction: dir,
		Crossings: dag.CountCrossings(work, full),
	}

	widest, maxRank := 0, 0
	for r, ids := range full {
		var placed []string
		for _, id := range ids {
			if n, ok := work.Node(id); ok && !n.IsVirtual() {
				placed = append(placed, id)
			}
		}
		l.Orders[r] = placed
		widest = max(widest, len(placed))
		maxRank = max(maxRank, r)
	}
	if widest == 0 {
		return l, nil
	}

	along := float64(maxRank) * opts.RankSeparation
	across := float64(widest-1) * opts.NodeSeparation
	for r, ids := range l.Orders {
		a := float64(r) * opts.RankSeparation
		if dir.reversed() {
			a = along - a
		}
		offset := float64(widest-len(ids)) / 2
		for i, id := range ids {
			c := (offset + float64(i)) * opts.NodeSeparation
			if dir.horizontal() {
				l.Positions[id] = dag.Point{X: a, Y: c}
			} else {
				l.Positions[id] = dag.Point{X: c, Y: a}
			}
		}
	}
	if dir.horizontal() {
		l.Width, l.Height = along, across
	} else {
		l.Width, l.Height = across, along
	}
	return l, nil
}

// StripPositions returns a copy of g with every upstream coordinate cleared.
func StripPositions(g *dag.DAG) *dag.DAG {
	c := g.Clone()
	for _, n := range c.Nodes() {
		n.Position = nil
	}
	return c
}
