package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		courseID int
		noCache  bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a layered layout for a prerequisite graph",
		Long: `Compute a layered layout for a prerequisite graph.

The layout command takes a graph.json file (produced by 'build') or a course
id and assigns every node a rank, an order within its rank and coordinates.
The output is a layout.json file.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := graphInput(args, courseID)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), input, courseID, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().IntVarP(&courseID, "course", "c", 0, "course id to fetch from the configured source")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "", "rank direction: LR (default), RL, TB, BT")
	cmd.Flags().Float64Var(&opts.NodeSeparation, "node-sep", 0, "space between nodes in a rank")
	cmd.Flags().Float64Var(&opts.RankSeparation, "rank-sep", 0, "space between ranks")
	cmd.Flags().IntVar(&opts.Passes, "passes", 0, "crossing reduction sweeps")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, courseID int, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, input == "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts = c.layoutDefaults(opts)
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	g, id, _, err := c.loadGraph(ctx, runner, input, courseID, opts)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	layout, cacheHit, err := runner.LayoutGraphWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(output, input, id, "layout.json")
	if out == "-" {
		data, err := graph.MarshalLayout(layout)
		if err != nil {
			return err
		}
		return writeOutput(out, append(data, '\n'))
	}
	if err := graph.WriteLayoutFile(layout, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printKeyValue("Crossings", fmt.Sprint(layout.Crossings))
	printNewline()
	printNextStep("Render", appName+" render "+graphArg(input, id))

	return nil
}

// graphArg formats the graph argument for a suggested follow-up command.
func graphArg(input string, courseID int) string {
	if input != "" {
		return input
	}
	return fmt.Sprintf("--course %d", courseID)
}
