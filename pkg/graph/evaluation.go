package graph

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
)

// =============================================================================
// Evaluation - Learner-Specific Result
// =============================================================================

// Evaluation is the serialization format for one learner's view of a
// course. Statuses keep the topological order of the evaluation, so a
// client listing them shows prerequisites before what they unlock.
type Evaluation struct {
	CourseID  int                                         `json:"course_id"`
	CanTake   bool                                        `json:"can_take"`
	Missing   []int                                       `json:"missing"`
	Satisfied []int                                       `json:"satisfied"`
	Statuses  *orderedmap.OrderedMap[string, eval.Status] `json:"statuses"`
	Stats     *eval.Stats                                 `json:"stats,omitempty"`
}

// NewEvaluation assembles the wire result from an evaluation of g. Stats are
// optional.
func NewEvaluation(courseID int, g *dag.DAG, res *eval.Result, stats *eval.Stats) Evaluation {
	e := res.Eligibility(g)
	statuses := orderedmap.New[string, eval.Status]()
	for _, id := range res.Order {
		statuses.Set(id, res.Statuses[id])
	}
	return Evaluation{
		CourseID:  courseID,
		CanTake:   e.CanTake,
		Missing:   e.Missing,
		Satisfied: e.Satisfied,
		Statuses:  statuses,
		Stats:     stats,
	}
}

// StatusMap returns the statuses as a plain map.
func (e Evaluation) StatusMap() map[string]eval.Status {
	out := make(map[string]eval.Status)
	if e.Statuses == nil {
		return out
	}
	for pair := e.Statuses.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}
