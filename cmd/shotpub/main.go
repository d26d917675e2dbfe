// Package main provides the entry point for the shotpub CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrz1836/shotpub/internal/cli"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // Build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	stop()

	if err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
