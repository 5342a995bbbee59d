// Package nodelink renders prerequisite graphs as node-link diagrams.
//
// # Usage
//
// Convert a DAG to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Pass the statuses from an evaluation to color each node by where the
// learner stands:
//
//	res, _ := eval.Evaluate(g, progress)
//	dot := nodelink.ToDOT(g, nodelink.Options{Statuses: res.Statuses, Detailed: true})
//
// # Shapes
//
//   - COURSE: rounded box, labeled with the course code
//   - AND: small circle
//   - OR: small diamond
//   - LEAF: dashed note, never colored
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
