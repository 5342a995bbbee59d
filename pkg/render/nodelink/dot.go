package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/layout"
	"github.com/matzehuels/prereqgraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Direction sets the Graphviz rankdir. Defaults to left-to-right, so
	// prerequisites sit left of the courses they unlock.
	Direction layout.Direction

	// Statuses colors nodes by learner status. Nodes without a status are
	// drawn uncolored.
	Statuses map[string]eval.Status

	// Detailed adds the course title and credits to course labels.
	Detailed bool
}

// Fill colors by status.
var statusColors = map[eval.Status]string{
	eval.StatusCompleted:  "#b7e4c7",
	eval.StatusInProgress: "#a9d6f5",
	eval.StatusPlanned:    "#d7c6f2",
	eval.StatusFailed:     "#f4b6b6",
	eval.StatusAvailable:  "#fff3b0",
	eval.StatusLocked:     "#e0e0e0",
}

// ToDOT converts a prerequisite graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Courses are rounded boxes, AND gates circles, OR gates diamonds and
// leaves dashed notes. Virtual nodes inserted by layout are skipped along
// with their edges.
func ToDOT(g *dag.DAG, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = layout.DefaultDirection
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			continue
		}
		attrs := fmtAttrs(*n, fmtLabel(*n, opts.Detailed), opts.Statuses[n.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if isVirtual(g, e.From) || isVirtual(g, e.To) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func isVirtual(g *dag.DAG, id string) bool {
	n, ok := g.Node(id)
	return ok && n.IsVirtual()
}

func fmtLabel(n dag.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed || !n.IsCourse() {
		return label
	}

	var parts []string
	if n.Title != "" {
		parts = append(parts, n.Title)
	}
	if n.Course != nil && n.Course.Credits != nil {
		parts = append(parts, strconv.FormatFloat(*n.Course.Credits, 'f', -1, 64)+" cr")
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string, status eval.Status) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case dag.KindAnd:
		attrs = append(attrs, "shape=circle", "fontsize=10", "width=0.5", "fixedsize=true")
	case dag.KindOr:
		attrs = append(attrs, "shape=diamond", "fontsize=10", "width=0.6", "height=0.6", "fixedsize=true")
	case dag.KindLeaf:
		attrs = append(attrs, "shape=note", "style=\"dashed\"", "fontcolor=\"#555555\"")
		return attrs
	default:
		attrs = append(attrs, "shape=box")
	}

	style := "filled"
	if n.IsCourse() {
		style = "rounded,filled"
	}
	fill := "white"
	if c, ok := statusColors[status]; ok {
		fill = c
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style), fmt.Sprintf("fillcolor=%q", fill))
	if status == eval.StatusFailed {
		attrs = append(attrs, "color=\"#c0392b\"", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz <svg> tag so the drawing scales
// from a zero origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
