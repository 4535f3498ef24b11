// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/gate"
	"github.com/bureau-foundation/jobgate/lib/policytoken"
)

func tokenCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "token",
		Summary: "Issue and verify policy tokens",
		Subcommands: []*cli.Command{
			tokenIssueCommand(out),
			tokenVerifyCommand(out),
		},
	}
}

type tokenIssueParams struct {
	cli.JSONOutput
	Config    configFlags
	Actor     string        `flag:"actor" desc:"actor the token is issued to (required)"`
	Tenant    string        `flag:"tenant" desc:"tenant the token is valid for (required)"`
	Project   string        `flag:"project" desc:"project within the tenant"`
	Scopes    []string      `flag:"scope" desc:"granted scope, repeatable (e.g. action:execute, repo:*)"`
	Tools     []string      `flag:"tool" desc:"restrict the token to these job types, repeatable"`
	TTL       time.Duration `flag:"ttl" desc:"token lifetime" default:"24h"`
	SingleUse bool          `flag:"single-use" desc:"token is consumed by its first successful use"`
}

type issueResult struct {
	Token  string              `json:"token"`
	Claims *policytoken.Claims `json:"claims"`
}

func tokenIssueCommand(out io.Writer) *cli.Command {
	var params tokenIssueParams
	return &cli.Command{
		Name:    "issue",
		Summary: "Mint a signed policy token",
		Description: `Mint a policy token signed with the configured secret.

The token is printed on stdout. ACTION jobs check it for the
action:execute scope (or action:*), the tenant, and, when --tool is
given, the job type.`,
		Usage: "jobgate token issue --actor ACTOR --tenant TENANT --scope SCOPE... [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("issue", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			if err := cli.RequireFlags(map[string]string{"actor": params.Actor, "tenant": params.Tenant}); err != nil {
				return err
			}
			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)

			codec, err := requireCodec(g)
			if err != nil {
				return err
			}
			token, claims, err := codec.Issue(params.Actor, params.Tenant, params.Scopes, policytoken.IssueOptions{
				ProjectID:    params.Project,
				TTL:          params.TTL,
				AllowedTools: params.Tools,
				SingleUse:    params.SingleUse,
			})
			if err != nil {
				return err
			}
			logger.Info("issued policy token",
				"jti", claims.ID,
				"actor_id", claims.Subject,
				"tenant_id", claims.TenantID,
				"expires_at", claims.Expiry().UTC(),
				"single_use", claims.SingleUse,
			)

			if done, err := params.EmitJSON(out, issueResult{Token: token, Claims: claims}); done {
				return err
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}
}

type tokenVerifyParams struct {
	cli.JSONOutput
	Config configFlags
	Tenant string   `flag:"tenant" desc:"also require the token to belong to this tenant"`
	Scopes []string `flag:"scope" desc:"also require these scopes, repeatable"`
	Tool   string   `flag:"tool" desc:"also require the token to allow this job type"`
}

type verifyResult struct {
	Valid  bool                `json:"valid"`
	Code   string              `json:"code,omitempty"`
	Reason string              `json:"reason,omitempty"`
	Claims *policytoken.Claims `json:"claims,omitempty"`
}

func tokenVerifyCommand(out io.Writer) *cli.Command {
	var params tokenVerifyParams
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a policy token without consuming it",
		Description: `Verify a token's format, signature, and expiry, and optionally its
tenant, scopes, and allowed job types. Single-use tokens are never
consumed by this command. Exits 1 when the token is rejected.`,
		Usage: "jobgate token verify [flags] TOKEN",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Usagef("expected exactly one TOKEN argument, got %d", len(args))
			}
			token := strings.TrimSpace(args[0])

			g, err := params.Config.open(logger)
			if err != nil {
				return err
			}
			defer closeGate(g, logger)

			codec, err := requireCodec(g)
			if err != nil {
				return err
			}
			var result policytoken.Result
			if params.Tenant == "" && len(params.Scopes) == 0 && params.Tool == "" {
				result = codec.Inspect(token)
			} else {
				result = codec.Authorize(token, policytoken.Requirement{
					TenantID: params.Tenant,
					Scopes:   params.Scopes,
					Action:   params.Tool,
				}, false)
			}

			report := verifyResult{Valid: result.Valid, Claims: result.Claims}
			if !result.Valid {
				report.Code = result.Code
				report.Reason = result.Reason
			}
			if done, err := params.EmitJSON(out, report); done {
				if err != nil {
					return err
				}
				return deniedUnless(result.Valid)
			}

			if result.Valid {
				fmt.Fprintln(out, "valid")
			} else {
				fmt.Fprintf(out, "invalid: %s (%s)\n", result.Reason, result.Code)
			}
			if claims := result.Claims; claims != nil {
				printField(out, "actor", claims.Subject)
				printField(out, "tenant", claims.TenantID)
				if claims.ProjectID != "" {
					printField(out, "project", claims.ProjectID)
				}
				printField(out, "scopes", strings.Join(claims.Scopes, " "))
				if len(claims.AllowedTools) > 0 {
					printField(out, "allowed tools", strings.Join(claims.AllowedTools, " "))
				}
				printField(out, "expires", claims.Expiry().UTC().Format(time.RFC3339))
				printField(out, "single use", claims.SingleUse)
			}
			return deniedUnless(result.Valid)
		},
	}
}

func requireCodec(g *gate.Gate) (*policytoken.Codec, error) {
	if codec := g.Codec(); codec != nil {
		return codec, nil
	}
	return nil, fault.Configurationf("no signing secret: set secret_file in the config or pass --secret-file")
}

func deniedUnless(ok bool) error {
	if ok {
		return nil
	}
	return cli.Denied()
}
