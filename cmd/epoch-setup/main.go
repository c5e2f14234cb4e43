// Package main provides the epoch-setup command.
// It prompts for a rendering API and runs the vendored project generator.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/epoch-engine/epoch-setup/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
