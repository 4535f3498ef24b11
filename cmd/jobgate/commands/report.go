// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/policy"
)

type reportParams struct {
	cli.JSONOutput
	Config configFlags
	Tenant string `flag:"tenant" desc:"tenant to report on (required)"`
}

func reportCommand(out io.Writer) *cli.Command {
	var params reportParams
	return &cli.Command{
		Name:    "report",
		Summary: "List which job types a tenant may run",
		Description: `Evaluate every registered job type for a tenant as a dry run and
print the allowed and blocked job types with reasons. Nothing is
audited or consumed.`,
		Usage: "jobgate report --tenant TENANT [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("report", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if err := cli.RequireFlags(map[string]string{"tenant": params.Tenant}); err != nil {
				return err
			}
			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)

			report := g.Guard().GenerateReport(params.Tenant)
			if done, err := params.EmitJSON(out, report); done {
				return err
			}
			fmt.Fprint(out, renderReport(lipgloss.NewRenderer(out), report))
			return nil
		},
	}
}

// renderReport lays out a report as two titled sections. Colors are
// applied only when the renderer's output supports them.
func renderReport(renderer *lipgloss.Renderer, report policy.Report) string {
	title := renderer.NewStyle().Bold(true)
	allowedStyle := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	blockedStyle := renderer.NewStyle().Foreground(lipgloss.Color("1"))
	faint := renderer.NewStyle().Faint(true)

	width := 0
	for _, entry := range append(append([]policy.ReportEntry(nil), report.Allowed...), report.Blocked...) {
		width = max(width, lipgloss.Width(entry.JobType))
	}
	column := renderer.NewStyle().Width(width + 2)

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s  %s\n",
		title.Render("Tenant "+report.TenantID),
		faint.Render("automation level "+report.Level.String()))

	section := func(name string, style lipgloss.Style, entries []policy.ReportEntry, reasons bool) {
		fmt.Fprintf(&builder, "\n%s\n", title.Render(fmt.Sprintf("%s (%d)", name, len(entries))))
		if len(entries) == 0 {
			builder.WriteString(faint.Render("  none") + "\n")
			return
		}
		for _, entry := range entries {
			line := "  " + column.Render(style.Render(entry.JobType)) + faint.Render(fmt.Sprintf("%-10s", entry.Category.String()))
			if reasons {
				line += " " + entry.Reason
			}
			builder.WriteString(line + "\n")
		}
	}
	section("Allowed", allowedStyle, report.Allowed, false)
	section("Blocked", blockedStyle, report.Blocked, true)
	return builder.String()
}
