// Package eval evaluates prerequisite graphs against a learner's progress.
//
// # Evaluation
//
// [Evaluate] computes, for every node, whether it is satisfied and what
// status to display. Satisfaction propagates along edges in topological
// order: courses are satisfied when completed, AND gates when all inputs
// are, OR gates when any input is, and free-text leaves always are. The
// graph is read only; results live in a [Result] keyed by node id, so the
// same graph can be evaluated for any number of learners concurrently.
//
// # Eligibility
//
// [CheckEligibility] answers the headline question: can this learner take
// the root course? It also lists which courses still block the path
// (missing) and which completed courses count toward it (satisfied).
//
// # Statistics
//
// [ComputeStats] summarizes a graph without reference to any learner:
// depth, courses per depth, credit average, and the units and levels
// involved.
package eval
