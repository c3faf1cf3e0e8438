package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/internal/cli"
	"github.com/matzehuels/pedigree/pkg/errors"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2   // the pedigree refused the operation
	exitCanceled = 130 // SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context) int {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return nil
	}

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, context.Canceled):
		return exitCanceled
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.IsPrecondition(err) {
		return exitRejected
	}
	return exitFailure
}
