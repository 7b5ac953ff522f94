// Command vats tracks checkouts of shared VR headsets.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/vats/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// cobra usage errors: unknown flag, wrong argument count
		fmt.Fprintf(os.Stderr, "vats: %v\n", err)
		return cli.ExitCommandError
	}

	// Errors with a cause were already rendered by the formatter.
	if exitErr.Err == nil {
		fmt.Fprintf(os.Stderr, "vats: %v\n", err)
	}
	return exitErr.Code
}
