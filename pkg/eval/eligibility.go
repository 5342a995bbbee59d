package eval

import "github.com/matzehuels/prereqgraph/pkg/dag"

// Eligibility answers whether a learner can take the root course.
type Eligibility struct {
	CanTake bool `json:"can_take"`
	// Missing lists course ids on a still-unsatisfied path to the root.
	// Courses inside a branch that is already satisfied are never listed.
	Missing []int `json:"missing"`
	// Satisfied lists completed course ids reached from the root.
	Satisfied []int `json:"satisfied"`
}

// CheckEligibility evaluates g against p and reports eligibility for the root.
// Both lists follow first-visit order of a depth-first walk from the root
// along inputs in edge order, so they are deterministic.
func CheckEligibility(g *dag.DAG, p Progress) (Eligibility, error) {
	res, err := Evaluate(g, p)
	if err != nil {
		return Eligibility{}, err
	}
	return res.Eligibility(g), nil
}

// Eligibility derives the eligibility triple from an existing result.
// g must be the graph r was computed from.
func (r *Result) Eligibility(g *dag.DAG) Eligibility {
	e := Eligibility{
		CanTake:   r.CanTake,
		Missing:   []int{},
		Satisfied: []int{},
	}

	seen := make(map[string]bool)
	var missing func(id string)
	missing = func(id string) {
		for _, in := range g.Inputs(id) {
			if seen[in] || r.Satisfied[in] {
				continue
			}
			seen[in] = true
			if n, _ := g.Node(in); n.IsCourse() {
				e.Missing = append(e.Missing, n.CourseID)
			}
			missing(in)
		}
	}
	missing(g.Root())

	visited := make(map[string]bool)
	var contributed func(id string)
	contributed = func(id string) {
		for _, in := range g.Inputs(id) {
			if visited[in] {
				continue
			}
			visited[in] = true
			n, _ := g.Node(in)
			if n.IsCourse() && r.Satisfied[in] {
				e.Satisfied = append(e.Satisfied, n.CourseID)
				continue
			}
			contributed(in)
		}
	}
	contributed(g.Root())

	e.Missing = dedupe(e.Missing)
	e.Satisfied = dedupe(e.Satisfied)
	return e
}

// dedupe drops repeated course ids, which occur when two nodes reference the
// same course, keeping first occurrences.
func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
