package transform

import "github.com/matzehuels/prereqgraph/pkg/dag"

// AssignLayers assigns every node a rank equal to the length of the longest
// path reaching it from a source (a node with no inputs).
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum rank of its inputs,
// ensuring that:
//   - Source nodes (prerequisites with no prerequisites) are at rank 0
//   - Every input sits at a strictly lower rank than what it feeds
//   - The root course, fed by everything, lands on the highest rank
//
// Existing row assignments in the DAG are overwritten. The queue is seeded in
// node insertion order, so the result is deterministic.
//
// # Cycles
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach zero
// in-degree and keep rank 0; callers validate first.
//
// # Performance
//
// Time complexity is O(V + E). Space complexity is O(V).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.Outputs(curr) {
			if row := rows[curr] + 1; row > rows[next] {
				rows[next] = row
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	g.SetRows(rows)
}
