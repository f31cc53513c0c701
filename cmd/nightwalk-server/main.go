package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nightwalk/server/internal/cli"
)

// main runs the nightwalk command tree. SIGINT and SIGTERM cancel the
// command context so serve and view shut down cleanly.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
