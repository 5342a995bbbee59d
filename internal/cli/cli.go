package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/internal/config"
	"github.com/matzehuels/prereqgraph/pkg/buildinfo"
	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/graph"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "prereqgraph"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	envFile    string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Prereqgraph evaluates course prerequisite graphs",
		Long: `Prereqgraph builds course prerequisite graphs from raw catalog records,
checks a learner's eligibility against them, and lays them out for display.

Records come from a directory of JSON files, PostgreSQL or MongoDB, as
configured in ` + "`$XDG_CONFIG_HOME/prereqgraph/config.toml`" + ` or PREREQGRAPH_*
environment variables.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/prereqgraph/config.toml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	if err := config.LoadEnvFile(c.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Log.Level != "" && c.Logger.GetLevel() > log.DebugLevel {
		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			c.Logger.SetLevel(level)
		}
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. With withSource false the
// runner only serves layout and rendering of graphs read from files.
func (c *CLI) newRunner(ctx context.Context, noCache, withSource bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	store, keyer := c.openCache(ctx, cfg.Cache, noCache)

	if !withSource {
		return pipeline.NewRunner(nil, nil, store, keyer, c.Logger), nil
	}
	src, err := cfg.Source.Open(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open %s source: %w", cfg.Source.Kind, err)
	}
	return pipeline.NewRunner(src, nil, store, keyer, c.Logger), nil
}

// openCache opens the configured cache. Failures degrade to no caching.
func (c *CLI) openCache(ctx context.Context, cc config.CacheConfig, noCache bool) (cache.Cache, cache.Keyer) {
	if noCache {
		cc.Backend = config.CacheNone
	}
	store, err := cc.Open(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cc.Backend, "error", err)
		store = cache.NewNullCache()
	}
	return store, cc.Keyer()
}

// layoutDefaults fills unset layout options from the [layout] config section.
func (c *CLI) layoutDefaults(opts pipeline.Options) pipeline.Options {
	if c.cfg == nil {
		return opts
	}
	d := c.cfg.Layout
	if opts.Direction == "" {
		opts.Direction = d.Direction
	}
	if opts.NodeSeparation == 0 {
		opts.NodeSeparation = d.NodeSeparation
	}
	if opts.RankSeparation == 0 {
		opts.RankSeparation = d.RankSeparation
	}
	if opts.Passes == 0 {
		opts.Passes = d.Passes
	}
	return opts
}

// loadGraph reads a graph file, or builds the graph of courseID through the
// runner when input is empty. It returns the graph's root course id.
func (c *CLI) loadGraph(ctx context.Context, runner *pipeline.Runner, input string, courseID int, opts pipeline.Options) (*dag.DAG, int, bool, error) {
	if input != "" {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			return nil, 0, false, fmt.Errorf("load graph %s: %w", input, err)
		}
		id := courseID
		if root := g.RootNode(); root != nil && root.IsCourse() {
			id = root.CourseID
		}
		return g, id, false, nil
	}
	g, hit, err := runner.GraphWithCacheInfo(ctx, courseID, opts)
	if err != nil {
		return nil, 0, false, err
	}
	return g, courseID, hit, nil
}

// graphInput validates the "file or --course" argument pair shared by the
// graph commands.
func graphInput(args []string, courseID int) (string, error) {
	switch {
	case len(args) == 1 && courseID != 0:
		return "", fmt.Errorf("pass either a graph file or --course, not both")
	case len(args) == 1:
		return args[0], nil
	case courseID != 0:
		return "", nil
	}
	return "", fmt.Errorf("a graph file or --course is required")
}

// =============================================================================
// Paths
// =============================================================================

// outputPath derives an output file name: explicit output wins, then
// <input>.<suffix>, then course-<id>.<suffix>.
func outputPath(output, input string, courseID int, suffix string) string {
	if output != "" {
		return output
	}
	if input != "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		base = strings.TrimSuffix(base, ".graph")
		return base + "." + suffix
	}
	return fmt.Sprintf("course-%d.%s", courseID, suffix)
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
