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
	"github.com/bureau-foundation/jobgate/lib/policy"
)

type evaluateParams struct {
	cli.JSONOutput
	Config  configFlags
	Tenant  string `flag:"tenant" desc:"tenant requesting the job (required)"`
	Project string `flag:"project" desc:"project within the tenant"`
	Job     string `flag:"job" desc:"job type to evaluate (required)"`
	Token   string `flag:"token" desc:"policy token for ACTION jobs"`
	Actor   string `flag:"actor" desc:"actor recorded in the audit entry"`
	DryRun  bool   `flag:"dry-run" desc:"evaluate as a dry run"`
}

func evaluateCommand(out io.Writer) *cli.Command {
	var params evaluateParams
	return &cli.Command{
		Name:    "evaluate",
		Summary: "Decide whether a job may run",
		Description: `Run the policy guard for one job request and print the decision.

A presented single-use token is consumed only when the job is allowed
and --dry-run is not set. Exits 0 when allowed and 1 when denied.`,
		Usage: "jobgate evaluate --tenant TENANT --job JOB_TYPE [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("evaluate", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if err := cli.RequireFlags(map[string]string{"tenant": params.Tenant, "job": params.Job}); err != nil {
				return err
			}
			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)

			decision := g.EvaluateJob(params.Tenant, params.Job, policy.EvaluateOptions{
				ProjectID:   params.Project,
				PolicyToken: params.Token,
				IsDryRun:    params.DryRun,
				ActorID:     params.Actor,
			})

			if done, err := params.EmitJSON(out, decision); done {
				if err != nil {
					return err
				}
				return deniedUnless(decision.Allowed)
			}
			printDecision(out, decision)
			return deniedUnless(decision.Allowed)
		},
	}
}

func printDecision(w io.Writer, decision policy.Decision) {
	verdict := "DENY"
	if decision.Allowed {
		verdict = "ALLOW"
	}
	fmt.Fprintf(w, "%s %s: %s\n", verdict, decision.Code, decision.Reason)
	if decision.Categorized {
		printField(w, "category", decision.Category)
		printField(w, "required level", decision.RequiredLevel)
	} else {
		printField(w, "category", "(uncategorized)")
	}
	printField(w, "current level", decision.CurrentLevel)
	if decision.RequiresPolicyToken {
		valid := "not presented"
		if decision.PolicyTokenValid != nil {
			valid = fmt.Sprint(*decision.PolicyTokenValid)
		}
		printField(w, "policy token valid", valid)
	}
}
