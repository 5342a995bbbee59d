// Package render turns prerequisite graphs into pictures.
//
// The [nodelink] subpackage writes Graphviz DOT, with nodes colored by a
// learner's status, and renders it to SVG in-process. [ToPDF] and [ToPNG]
// convert any SVG further using the external rsvg-convert tool (from
// librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Statuses: res.Statuses})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/matzehuels/prereqgraph/pkg/render/nodelink
package render
