// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/version"
)

// Root builds the complete command tree. Command output goes to out.
func Root(out io.Writer) *cli.Command {
	var params struct {
		Version bool `flag:"version" desc:"print version information and exit"`
	}

	root := &cli.Command{
		Name: "jobgate",
		Description: `jobgate: automation safety checks for job execution.

Issues and verifies policy tokens, evaluates job requests against
tenant automation policies, and simulates trigger activations, all
against a single configuration file.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("jobgate", &params)
		},
		Subcommands: []*cli.Command{
			tokenCommand(out),
			evaluateCommand(out),
			reportCommand(out),
			triggerCommand(out),
			auditCommand(out),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string, *slog.Logger) error {
					fmt.Fprintf(out, "jobgate %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Issue a single-use token allowing one pr.create",
				Command:     "jobgate token issue --actor alice --tenant acme --scope action:execute --tool pr.create --single-use",
			},
			{
				Description: "Check whether a job may run",
				Command:     "jobgate evaluate --tenant acme --job deploy.rollback --token pt_...",
			},
			{
				Description: "Show what a tenant's policy permits",
				Command:     "jobgate report --tenant acme",
			},
			{
				Description: "Fire a trigger five times to see throttling",
				Command:     "jobgate trigger simulate --tenant acme --trigger nightly-audit --count 5",
			},
		},
	}
	root.Run = func(context.Context, []string, *slog.Logger) error {
		if params.Version {
			fmt.Fprintf(out, "jobgate %s\n", version.Info())
			return nil
		}
		root.PrintHelp(out)
		return cli.Usagef("command required")
	}
	return root
}
