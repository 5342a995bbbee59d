package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// evalCommand creates the eval command, which checks a learner's progress
// against a prerequisite graph.
func (c *CLI) evalCommand() *cobra.Command {
	var (
		progress progressFlags
		courseID int
		output   string
		asJSON   bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "eval [graph.json]",
		Short: "Check eligibility for a course",
		Long: `Evaluate a learner's progress against a prerequisite graph.

Prints every node's status (completed, in-progress, planned, failed,
available or locked), whether the course can be taken, which courses are
still missing, and graph statistics.

Examples:
  prereqgraph eval cs300.graph.json --completed 211,301
  prereqgraph eval --course 300 --progress me.toml
  prereqgraph eval --course 300 -p me.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := graphInput(args, courseID)
			if err != nil {
				return err
			}
			p, err := progress.load()
			if err != nil {
				return err
			}
			return c.runEval(cmd.Context(), input, courseID, p, output, asJSON, noCache)
		},
	}

	progress.register(cmd)
	cmd.Flags().IntVarP(&courseID, "course", "c", 0, "course id to fetch from the configured source")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the evaluation JSON to a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the evaluation as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runEval(ctx context.Context, input string, courseID int, p eval.Progress, output string, asJSON, noCache bool) error {
	logger := loggerFromContext(ctx)
	logger.Debug("evaluating", "progress", describeProgress(p))

	runner, err := c.newRunner(ctx, noCache, input == "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, id, _, err := c.loadGraph(ctx, runner, input, courseID, pipeline.Options{})
	if err != nil {
		return err
	}

	var ev graph.Evaluation
	if input == "" {
		ev, err = runner.Evaluate(ctx, id, p, pipeline.Options{})
	} else {
		ev, err = evaluateGraph(g, id, p)
	}
	if err != nil {
		return err
	}

	if output != "" || asJSON {
		data, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if output != "" {
			if err := writeOutput(output, data); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
		}
		if asJSON {
			return writeOutput("-", data)
		}
	}

	printEvaluation(g, ev)
	if ev.Stats != nil {
		printNewline()
		printCourseStats(*ev.Stats)
	}
	if output != "" {
		printFile(output)
	}
	return nil
}

// evaluateGraph evaluates a graph read from a file.
func evaluateGraph(g *dag.DAG, courseID int, p eval.Progress) (graph.Evaluation, error) {
	res, err := eval.Evaluate(g, p)
	if err != nil {
		return graph.Evaluation{}, err
	}
	stats, err := eval.ComputeStats(g)
	if err != nil {
		return graph.Evaluation{}, err
	}
	return graph.NewEvaluation(courseID, g, res, &stats), nil
}
