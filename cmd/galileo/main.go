// Command galileo is the self-hosted arbitrage bot's entrypoint: strategy
// loop, one-shot lander submission, config template generation, and
// quoter-process lifecycle management. Grounded on the teacher's
// cmd/gocoffee-cli/main.go (signal-context entrypoint, cobra root command).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/galileobot/galileo/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(version, commit, date)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error onto spec.md §6's exit codes: 0 success
// (handled by the caller never reaching this function), 1 fatal error,
// 2 usage error.
func exitCodeFor(err error) int {
	var usageErr *cli.UsageError
	if errors.As(err, &usageErr) {
		return 2
	}
	return 1
}
