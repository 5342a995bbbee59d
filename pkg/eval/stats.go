package eval

import (
	"slices"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// Stats summarizes a prerequisite graph independent of any learner.
type Stats struct {
	// MaxDepth is the longest path, in edges, from any prerequisite course to
	// the root. It is 0 for a course without prerequisites.
	MaxDepth int `json:"max_depth"`
	// TreeByDepth groups prerequisite course ids by their longest distance to
	// the root. Course ids within a depth appear in graph order.
	TreeByDepth map[int][]int `json:"tree_by_depth"`
	// AverageCredits is the mean over prerequisite courses that carry a
	// credit value. It is nil when none do.
	AverageCredits *float64 `json:"average_credits"`
	// Units and Levels are the distinct, sorted values over prerequisite
	// courses; courses missing the field are ignored.
	Units  []string `json:"units"`
	Levels []string `json:"levels"`
	// TotalPrerequisites counts distinct prerequisite courses.
	TotalPrerequisites int `json:"total_prerequisites"`
}

// ComputeStats derives graph statistics. Nodes that do not reach the root are
// ignored. A cyclic graph yields a CYCLE_DETECTED error.
func ComputeStats(g *dag.DAG) (Stats, error) {
	order, err := topoOrder(g)
	if err != nil {
		return Stats{}, err
	}

	root := g.Root()
	depth := make(map[string]int, len(order))
	if _, ok := g.Node(root); ok {
		depth[root] = 0
	}
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if id == root {
			continue
		}
		best := -1
		for _, out := range g.Outputs(id) {
			if d, ok := depth[out]; ok && d+1 > best {
				best = d + 1
			}
		}
		if best >= 0 {
			depth[id] = best
		}
	}

	st := Stats{
		TreeByDepth: map[int][]int{},
		Units:       []string{},
		Levels:      []string{},
	}
	var (
		creditSum   float64
		creditCount int
		seen        = map[int]bool{}
		units       = map[string]bool{}
		levels      = map[string]bool{}
	)
	for _, n := range g.Nodes() {
		d, ok := depth[n.ID]
		if !ok || n.ID == root || !n.IsCourse() {
			continue
		}
		st.MaxDepth = max(st.MaxDepth, d)
		if seen[n.CourseID] {
			continue
		}
		seen[n.CourseID] = true
		st.TreeByDepth[d] = append(st.TreeByDepth[d], n.CourseID)
		st.TotalPrerequisites++

		if n.Course == nil {
			continue
		}
		if n.Course.Credits != nil {
			creditSum += *n.Course.Credits
			creditCount++
		}
		if n.Course.Unit != "" {
			units[n.Course.Unit] = true
		}
		if n.Course.Level != "" {
			levels[n.Course.Level] = true
		}
	}

	if creditCount > 0 {
		avg := creditSum / float64(creditCount)
		st.AverageCredits = &avg
	}
	st.Units = sortedKeys(units)
	st.Levels = sortedKeys(levels)
	return st, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
