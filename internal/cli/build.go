package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/pkg/build"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
	"github.com/matzehuels/prereqgraph/pkg/source/local"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	courseID int    // course the record belongs to
	catalog  string // courses.json used to name and decorate course nodes
	output   string // output file path
	noCache  bool
	refresh  bool
}

// buildCommand creates the build command, which turns a raw prerequisite
// record into a canonical graph file.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [record.json]",
		Short: "Build a prerequisite graph from a raw record",
		Long: `Build a canonical prerequisite graph from a raw record.

The record may be a flat node and edge list or a nested AND/OR tree. With a
file argument the record is read from disk ("-" reads stdin); without one,
--course fetches it from the configured source.

Examples:
  prereqgraph build --course 300                    # from the configured source
  prereqgraph build cs300.json --course 300         # from a file
  prereqgraph build cs300.json --catalog courses.json -o cs300.graph.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if input == "" && opts.courseID == 0 {
				return fmt.Errorf("a record file or --course is required")
			}
			return c.runBuild(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.courseID, "course", "c", 0, "course id the record belongs to")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "catalog file (JSON array of courses) for file input")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.graph.json or course-<id>.graph.json)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "rebuild even if cached")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, input string, opts buildOpts) error {
	prog := newProgress(loggerFromContext(ctx))

	var (
		g      *dag.DAG
		cached bool
		err    error
	)
	if input == "" {
		runner, rerr := c.newRunner(ctx, opts.noCache, true)
		if rerr != nil {
			return fmt.Errorf("initialize runner: %w", rerr)
		}
		defer runner.Close()

		spinner := newSpinner(ctx, fmt.Sprintf("Building course %d...", opts.courseID))
		spinner.Start()
		g, cached, err = runner.GraphWithCacheInfo(ctx, opts.courseID, pipeline.Options{Refresh: opts.refresh})
		if err != nil {
			spinner.StopWithError("Build failed")
			return err
		}
		spinner.Stop()
	} else {
		g, err = buildFile(ctx, input, opts)
		if err != nil {
			return err
		}
	}

	out := outputPath(opts.output, input, opts.courseID, "graph.json")
	if input == "-" && opts.output == "" {
		out = "-"
	}
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return err
	}
	if err := writeOutput(out, append(data, '\n')); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}
	if out == "-" {
		return nil
	}

	prog.done(fmt.Sprintf("Built %s", g.Root()))
	printSuccess("Graph built")
	printFile(out)
	printStats(g.NodeCount(), g.EdgeCount(), cached)
	printNewline()
	printNextStep("Check eligibility", appName+" eval "+out+" --completed <ids>")
	return nil
}

// buildFile decodes a record file, decorating it from an optional catalog.
func buildFile(ctx context.Context, input string, opts buildOpts) (*dag.DAG, error) {
	data, err := readInput(input)
	if err != nil {
		return nil, err
	}

	var cat catalog.Catalog
	if opts.catalog != "" {
		m, err := local.LoadCatalog(opts.catalog)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", opts.catalog, err)
		}
		cat = m
	}

	var bopts []build.Option
	if opts.courseID != 0 {
		rc := build.RootCourse{ID: opts.courseID}
		if cat != nil {
			if course, err := cat.Course(ctx, opts.courseID); err == nil {
				rc.Label, rc.Title = course.Code, course.Title
			}
		}
		bopts = append(bopts, build.WithRootCourse(rc))
	}
	if cat != nil {
		bopts = append(bopts, build.WithCodeResolver(build.CatalogResolver(ctx, cat)))
	}

	g, err := build.Decode(data, bopts...)
	if err != nil {
		return nil, err
	}
	return build.Decorate(ctx, g, cat)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
