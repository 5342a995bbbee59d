package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/internal/cli"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		report(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// The level must be set before the root's own pre-run attaches the logger.
	attachLogger := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if attachLogger != nil {
			return attachLogger(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// report prints err for a terminal user. Missing records are a normal state,
// not a failure of the tool, so they get the short message alone.
func report(err error) {
	switch {
	case perrors.Is(err, perrors.ErrCodeMissingData):
		fmt.Fprintln(os.Stderr, perrors.UserMessage(err))
	case perrors.Retryable(err):
		fmt.Fprintf(os.Stderr, "Error: %v\n(this may be temporary, try again)\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
