package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats: "dot", "svg", "png", "pdf"
	courseID int      // course to fetch when no file is given
	noCache  bool
	progress progressFlags // colors nodes by status when set
	layout   pipeline.Options
}

// renderCommand creates the render command for drawing prerequisite graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a prerequisite graph to SVG, PNG, PDF or DOT",
		Long: `Render a prerequisite graph with Graphviz.

Course nodes are boxes, AND/OR gates are small circles. When progress is
given, nodes are colored by status: completed, in-progress, planned,
failed, available or locked.

Examples:
  prereqgraph render cs300.graph.json
  prereqgraph render --course 300 -f svg,png --completed 211
  prereqgraph render cs300.graph.json -f dot -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := graphInput(args, opts.courseID)
			if err != nil {
				return err
			}
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), input, &opts)
		},
	}

	opts.progress.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().IntVarP(&opts.courseID, "course", "c", 0, "course id to fetch from the configured source")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.layout.Detailed, "detailed", false, "show course titles and credits")
	cmd.Flags().StringVarP(&opts.layout.Direction, "direction", "d", "", "rank direction: LR (default), RL, TB, BT")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// A known format extension on output is stripped.
func basePath(output, input string, courseID int) string {
	if output == "" {
		return strings.TrimSuffix(outputPath("", input, courseID, "x"), ".x")
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads the graph, evaluates progress when given, and writes one
// file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache, input == "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.layout = c.layoutDefaults(opts.layout)

	g, id, _, err := c.loadGraph(ctx, runner, input, opts.courseID, pipeline.Options{})
	if err != nil {
		return err
	}
	logger.Debugf("Loaded graph: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	statuses, err := renderStatuses(g, &opts.progress)
	if err != nil {
		return err
	}

	if len(opts.formats) == 1 && opts.output != "" {
		return renderTo(ctx, g, statuses, opts.formats[0], opts.output, opts.layout)
	}
	base := basePath(opts.output, input, id)
	for _, format := range opts.formats {
		if err := renderTo(ctx, g, statuses, format, base+"."+format, opts.layout); err != nil {
			return err
		}
	}
	return nil
}

// renderStatuses evaluates progress for coloring. It returns nil when no
// progress was given.
func renderStatuses(g *dag.DAG, pf *progressFlags) (map[string]eval.Status, error) {
	if !pf.set() {
		return nil, nil
	}
	p, err := pf.load()
	if err != nil {
		return nil, err
	}
	res, err := eval.Evaluate(g, p)
	if err != nil {
		return nil, err
	}
	return res.Statuses, nil
}

// renderTo renders a single format and writes it to path.
func renderTo(ctx context.Context, g *dag.DAG, statuses map[string]eval.Status, format, path string, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)

	opts.Format = format
	data, err := pipeline.Render(ctx, g, statuses, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", format, err)
	}
	logger.Debugf("Generated %s: %d bytes", format, len(data))

	if err := writeOutput(path, data); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	if path != "-" {
		logger.Infof("Generated %s", path)
	}
	return nil
}
