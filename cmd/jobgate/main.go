// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command jobgate is the operator CLI for the automation safety core:
// policy tokens, job evaluation, tenant reports, trigger simulation,
// and audit export.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/cmd/jobgate/commands"
)

// logLevelVariable sets the stderr log level (debug, info, warn, error).
const logLevelVariable = "JOBGATE_LOG_LEVEL"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if text := os.Getenv(logLevelVariable); text != "" {
		if err := level.UnmarshalText([]byte(text)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", logLevelVariable, err)
			return cli.ExitUsage
		}
	}

	err := commands.Root(os.Stdout).Execute(ctx, os.Args[1:], cli.NewCommandLogger(level))
	if err != nil && !cli.Silent(err) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return cli.ExitCodeOf(err)
}
