package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/layout"
	"github.com/matzehuels/prereqgraph/pkg/render/nodelink"
)

// Render draws a graph in opts.Format. statuses may be nil for an uncolored
// diagram.
func Render(ctx context.Context, g *dag.DAG, statuses map[string]eval.Status, opts Options) ([]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	dir, _ := layout.ParseDirection(opts.Direction)
	dot := nodelink.ToDOT(g, nodelink.Options{
		Direction: dir,
		Statuses:  statuses,
		Detailed:  opts.Detailed,
	})

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, DefaultPNGScale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}

// Render draws a course's graph. With a non-nil progress, nodes are colored
// by the learner's status.
func (r *Runner) Render(ctx context.Context, courseID int, progress *eval.Progress, opts Options) ([]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	g, err := r.Graph(ctx, courseID, opts)
	if err != nil {
		return nil, err
	}

	var statuses map[string]eval.Status
	if progress != nil {
		ev, err := r.Evaluate(ctx, courseID, *progress, opts)
		if err != nil {
			return nil, err
		}
		statuses = ev.StatusMap()
	}
	return Render(ctx, g, statuses, opts)
}
