// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/trigger"
)

func triggerCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "trigger",
		Summary:     "Exercise the trigger safety gate",
		Subcommands: []*cli.Command{triggerSimulateCommand(out)},
	}
}

type triggerSimulateParams struct {
	cli.JSONOutput
	Config  configFlags
	Tenant  string `flag:"tenant" desc:"tenant owning the trigger (required)"`
	Trigger string `flag:"trigger" desc:"configured trigger id (required)"`
	Job     string `flag:"job" desc:"override the rule's job type"`
	Event   string `flag:"event" desc:"event type for event and webhook triggers"`
	Trace   string `flag:"trace" desc:"trace id of the source event; repeated activations share it"`
	Actor   string `flag:"actor" desc:"actor recorded in the audit entries"`
	Count   int    `flag:"count" desc:"number of back-to-back activations" default:"1"`
}

func triggerSimulateCommand(out io.Writer) *cli.Command {
	var params triggerSimulateParams
	return &cli.Command{
		Name:    "simulate",
		Summary: "Evaluate activations of a configured trigger",
		Description: `Evaluate one or more back-to-back activations of a configured trigger
rule and print each decision. Cooldowns, hourly caps, rate limits,
and event deduplication apply across the activations of one run.

Exits 1 when the last activation was blocked.`,
		Usage: "jobgate trigger simulate --tenant TENANT --trigger ID [flags]",
		Examples: []cli.Example{
			{
				Description: "Redeliver the same webhook event twice",
				Command:     "jobgate trigger simulate --tenant acme --trigger on-push --event push --trace abc123 --count 2",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("simulate", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if err := cli.RequireFlags(map[string]string{"tenant": params.Tenant, "trigger": params.Trigger}); err != nil {
				return err
			}
			if params.Count < 1 {
				return cli.Usagef("--count must be at least 1")
			}
			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)

			rule, ok := g.Config().Trigger(params.Tenant, params.Trigger)
			if !ok {
				return fmt.Errorf("no trigger %q configured for tenant %q", params.Trigger, params.Tenant)
			}
			if params.Job != "" {
				rule.JobType = params.Job
			}

			decisions := make([]trigger.Decision, 0, params.Count)
			for range params.Count {
				request := rule.Request(params.Event, params.Trace, params.Actor)
				decisions = append(decisions, g.Triggers().Evaluate(request, rule.Config))
			}
			last := decisions[len(decisions)-1]

			if done, err := params.EmitJSON(out, decisions); done {
				if err != nil {
					return err
				}
				return deniedUnless(last.Action != trigger.Block)
			}
			for index, decision := range decisions {
				fmt.Fprintf(out, "#%d %-8s %-24s %s\n", index+1, decision.Action, decision.Code, decision.Reason)
			}
			if !last.NextScheduledAt.IsZero() {
				printField(out, "next scheduled", last.NextScheduledAt.Format(time.RFC3339))
			}
			return deniedUnless(last.Action != trigger.Block)
		},
	}
}
