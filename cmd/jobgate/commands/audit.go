// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/archive"
	"github.com/bureau-foundation/jobgate/lib/audit"
	"github.com/bureau-foundation/jobgate/lib/policy"
)

func auditCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Summary: "Export and read audit archives",
		Subcommands: []*cli.Command{
			auditExportCommand(out),
			auditShowCommand(out),
		},
	}
}

type auditExportParams struct {
	Config     configFlags
	Tenant     string   `flag:"tenant" desc:"tenant to evaluate (required)"`
	Output     string   `flag:"out,o" desc:"archive file to write (required)"`
	Recipients []string `flag:"recipient" desc:"age public key to encrypt to, repeatable"`
}

func auditExportCommand(out io.Writer) *cli.Command {
	var params auditExportParams
	return &cli.Command{
		Name:    "export",
		Summary: "Dry-run every job type and export the audit trail",
		Description: `Evaluate every registered job type for a tenant as a dry run, then
write the resulting audit entries as a zstd-compressed CBOR archive,
encrypted with age when --recipient is given.`,
		Usage: "jobgate audit export --tenant TENANT --out FILE [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if err := cli.RequireFlags(map[string]string{"tenant": params.Tenant, "out": params.Output}); err != nil {
				return err
			}
			// Fail on a bad key before any evaluation is recorded.
			if _, err := archive.ParseRecipients(params.Recipients); err != nil {
				return cli.Usagef("%v", err)
			}

			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)
			if !g.Audit().Enabled() {
				return fmt.Errorf("audit logging is disabled in the config (audit_enabled: false)")
			}

			for _, jobType := range g.Guard().Registry().JobTypes() {
				g.EvaluateJob(params.Tenant, jobType, policy.EvaluateOptions{IsDryRun: true, ActorID: "jobgate-cli"})
			}
			entries := g.Audit().Query(params.Tenant, audit.Filter{})

			if err := writeArchive(params.Output, entries, params.Recipients); err != nil {
				return err
			}
			logger.Info("exported audit archive",
				"path", params.Output,
				"entries", len(entries),
				"encrypted", len(params.Recipients) > 0,
			)
			fmt.Fprintf(out, "wrote %d entries to %s\n", len(entries), params.Output)
			return nil
		},
	}
}

// writeArchive writes to a temporary file in the target directory and
// renames it into place so a failed export never leaves a partial file.
func writeArchive(path string, entries []audit.Entry, recipients []string) error {
	file, err := os.CreateTemp(filepath.Dir(path), ".jobgate-export-*")
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer os.Remove(file.Name())

	if err := archive.Write(file, entries, archive.WriteOptions{Recipients: recipients}); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

type auditShowParams struct {
	cli.JSONOutput
	Identity string `flag:"identity,i" desc:"age identity file for encrypted archives"`
	Decision string `flag:"decision" desc:"only show entries with this decision (allow, deny, error)"`
}

func auditShowCommand(out io.Writer) *cli.Command {
	var params auditShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print the entries of an audit archive",
		Usage:   "jobgate audit show [flags] FILE",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return cli.Usagef("expected exactly one FILE argument, got %d", len(args))
			}

			var identities []age.Identity
			if params.Identity != "" {
				identityFile, err := os.Open(params.Identity)
				if err != nil {
					return fmt.Errorf("opening identity file: %w", err)
				}
				identities, err = archive.ParseIdentities(identityFile)
				identityFile.Close()
				if err != nil {
					return err
				}
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening archive: %w", err)
			}
			defer file.Close()

			_, entries, err := archive.Read(file, identities...)
			if err != nil {
				return err
			}
			if params.Decision != "" {
				filtered := entries[:0]
				for _, entry := range entries {
					if string(entry.Decision) == params.Decision {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}

			if done, err := params.EmitJSON(out, entries); done {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(out, "%s %-6s %-22s %-18s %s\n",
					entry.Timestamp.UTC().Format(time.RFC3339), entry.Decision, entry.Action, entry.Resource, entry.Reason)
			}
			return nil
		},
	}
}
