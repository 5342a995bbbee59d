package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/internal/server"
	"github.com/matzehuels/prereqgraph/pkg/observability"
	"github.com/matzehuels/prereqgraph/pkg/observability/prom"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prerequisite API over HTTP",
		Long: `Serve the prerequisite API over HTTP.

Routes:
  GET  /courses/{id}/graph          canonical graph
  POST /courses/{id}/eligibility    evaluate a learner's progress
  GET  /courses/{id}/stats          depth, tree by depth and credits
  GET  /courses/{id}/tree           courses grouped by depth
  GET  /courses/{id}/layout         layered layout
  GET  /courses/{id}/graph.svg      rendered diagram (also .png, .pdf, .dot)
  GET  /health                      liveness
  GET  /metrics                     Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noMetrics bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc := cfg.Server
	if addr != "" {
		sc.Addr = addr
	}

	var opts []server.Option
	if sc.Metrics && !noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom.New(reg).Install()
		defer observability.Reset()
		opts = append(opts, server.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	runner, err := c.newRunner(ctx, false, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	c.Logger.Info("starting server",
		"source", cfg.Source.Kind, "cache", cfg.Cache.Backend, "metrics", len(opts) > 0)
	return server.New(runner, c.Logger, opts...).Run(ctx, sc)
}
