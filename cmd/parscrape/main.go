package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/parscrape/internal/cli"
)

func main() {
	// Cancel the command context on SIGINT/SIGTERM so the service and batch
	// runs shut down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
