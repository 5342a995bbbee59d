package eval

import (
	"errors"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Status is the learner-facing state of a node.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in-progress"
	StatusPlanned    Status = "planned"
	StatusFailed     Status = "failed"
	StatusAvailable  Status = "available"
	StatusLocked     Status = "locked"
)

// Result holds the evaluation of one graph against one progress set. The
// graph itself is never modified; everything derived lives here, keyed by
// node id.
type Result struct {
	// Order is the topological order the evaluation walked.
	Order []string
	// Satisfied is the pass-1 value of every node.
	Satisfied map[string]bool
	// Statuses is the pass-2 display status of every node.
	Statuses map[string]Status
	// CanTake reports whether the root's prerequisites are met.
	CanTake bool
}

// Evaluate computes satisfaction and display status for every node.
//
// Pass 1 walks the graph in topological order, so every input is computed
// before the nodes it feeds, and each node is computed exactly once. Shared
// nodes therefore carry one value in every context:
//
//   - LEAF: always satisfied
//   - COURSE: satisfied when completed
//   - AND: satisfied when every input is
//   - OR: satisfied when any input is
//
// Pass 2 assigns display status. Courses take their progress standing
// (completed, in-progress, failed, planned); untaken courses are available
// when every input feeding them is satisfied and locked otherwise. The root
// follows the same rule, so it is available exactly when CanTake is true.
// Gates and leaves are completed when satisfied and locked otherwise.
//
// A cyclic graph yields a CYCLE_DETECTED error.
func Evaluate(g *dag.DAG, p Progress) (*Result, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}
	idx := p.index()

	sat := make(map[string]bool, len(order))
	for _, id := range order {
		n, _ := g.Node(id)
		sat[id] = satisfied(g, n, idx, sat)
	}

	statuses := make(map[string]Status, len(order))
	for _, id := range order {
		n, _ := g.Node(id)
		statuses[id] = status(g, n, idx, sat)
	}

	return &Result{
		Order:     order,
		Satisfied: sat,
		Statuses:  statuses,
		CanTake:   inputsSatisfied(g, g.Root(), sat),
	}, nil
}

func topoOrder(g *dag.DAG) ([]string, error) {
	order, err := g.TopoOrder()
	if err == nil {
		return order, nil
	}
	var verr *dag.ValidationError
	if errors.As(err, &verr) {
		return nil, perrors.CycleDetected(verr.IDs, err)
	}
	return nil, perrors.CycleDetected(nil, err)
}

func satisfied(g *dag.DAG, n *dag.Node, idx index, sat map[string]bool) bool {
	switch n.Kind {
	case dag.KindCourse:
		return idx[n.CourseID] == Completed
	case dag.KindAnd:
		for _, in := range g.Inputs(n.ID) {
			if !sat[in] {
				return false
			}
		}
		return true
	case dag.KindOr:
		for _, in := range g.Inputs(n.ID) {
			if sat[in] {
				return true
			}
		}
		return false
	}
	return true
}

// inputsSatisfied treats several inputs into one node as an implicit AND.
// A node without inputs has nothing to wait for.
func inputsSatisfied(g *dag.DAG, id string, sat map[string]bool) bool {
	for _, in := range g.Inputs(id) {
		if !sat[in] {
			return false
		}
	}
	return true
}

func status(g *dag.DAG, n *dag.Node, idx index, sat map[string]bool) Status {
	if !n.IsCourse() {
		if sat[n.ID] {
			return StatusCompleted
		}
		return StatusLocked
	}
	switch idx[n.CourseID] {
	case Completed:
		return StatusCompleted
	case InProgress:
		return StatusInProgress
	case Failed:
		return StatusFailed
	case Planned:
		return StatusPlanned
	}
	if inputsSatisfied(g, n.ID, sat) {
		return StatusAvailable
	}
	return StatusLocked
}
