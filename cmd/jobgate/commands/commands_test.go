// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/bureau-foundation/jobgate/cmd/jobgate/cli"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/policy"
	"github.com/bureau-foundation/jobgate/lib/trigger"
)

const testConfig = `
action_jobs_enabled: true
require_policy_tokens: true
secret_file: signing.key
tenants:
  - tenant_id: acme
    automation_level: EXECUTE_ACTION
    require_policy_token_for_actions: true
  - tenant_id: observer
    automation_level: OBSERVE_ONLY
triggers:
  - id: nightly
    tenant_id: acme
    type: cron
    job_type: deps.audit
    schedule: "0 2 * * *"
    cooldown: 1h
  - id: on-push
    tenant_id: acme
    type: webhook
    job_type: code.analyze
    allowed_event_types: [push]
`

func writeConfig(t *testing.T) string {
	t.Helper()
	directory := t.TempDir()
	if err := os.WriteFile(filepath.Join(directory, "signing.key"), []byte("cli-test-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(directory, "jobgate.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := Root(&out)
	root.HelpOutput = &out
	err := root.Execute(context.Background(), args, nil)
	return out.String(), err
}

func issueToken(t *testing.T, configPath string, extra ...string) string {
	t.Helper()
	args := append([]string{"token", "issue", "--config", configPath,
		"--actor", "alice", "--tenant", "acme", "--scope", "action:execute", "--json"}, extra...)
	output, err := execute(t, args...)
	if err != nil {
		t.Fatalf("token issue: %v", err)
	}
	var result issueResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("token issue output %q: %v", output, err)
	}
	if !strings.HasPrefix(result.Token, "pt_") || result.Claims.TenantID != "acme" {
		t.Fatalf("issued %+v", result)
	}
	return result.Token
}

func TestTokenIssueAndVerify(t *testing.T) {
	configPath := writeConfig(t)
	token := issueToken(t, configPath, "--single-use", "--tool", "pr.create")

	output, err := execute(t, "token", "verify", "--config", configPath, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, want := range []string{"valid", "alice", "pr.create", "true"} {
		if !strings.Contains(output, want) {
			t.Errorf("verify output missing %q:\n%s", want, output)
		}
	}

	// Verification never consumes, so a second check still passes.
	if _, err := execute(t, "token", "verify", "--config", configPath, token); err != nil {
		t.Errorf("second verify: %v", err)
	}

	output, err = execute(t, "token", "verify", "--config", configPath, "--tenant", "globex", token)
	if cli.ExitCodeOf(err) != cli.ExitDeny || !strings.Contains(output, "TENANT_MISMATCH") {
		t.Errorf("tenant mismatch: err = %v, output = %q", err, output)
	}

	output, err = execute(t, "token", "verify", "--config", configPath, "--tool", "deploy.rollback", token)
	if cli.ExitCodeOf(err) != cli.ExitDeny || !strings.Contains(output, "ACTION_NOT_ALLOWED") {
		t.Errorf("tool restriction: err = %v, output = %q", err, output)
	}

	tampered := token[:len(token)-2] + "AA"
	if tampered == token {
		tampered = token[:len(token)-2] + "BB"
	}
	output, err = execute(t, "token", "verify", "--config", configPath, "--json", tampered)
	if cli.ExitCodeOf(err) != cli.ExitDeny || !strings.Contains(output, `"valid": false`) {
		t.Errorf("tampered: err = %v, output = %q", err, output)
	}
}

func TestTokenIssueRequiresFlags(t *testing.T) {
	_, err := execute(t, "token", "issue", "--config", writeConfig(t), "--actor", "alice")
	var usage *cli.UsageError
	if !errors.As(err, &usage) || !strings.Contains(err.Error(), "--tenant") {
		t.Errorf("err = %v", err)
	}
}

func TestSecretFileFlagSatisfiesRequiredTokens(t *testing.T) {
	directory := t.TempDir()
	secretPath := filepath.Join(directory, "signing.key")
	if err := os.WriteFile(secretPath, []byte("cli-test-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(directory, "jobgate.yaml")
	withoutSecret := strings.Replace(testConfig, "secret_file: signing.key\n", "", 1)
	if err := os.WriteFile(configPath, []byte(withoutSecret), 0o600); err != nil {
		t.Fatal(err)
	}

	args := []string{"token", "issue", "--config", configPath,
		"--actor", "alice", "--tenant", "acme", "--scope", "action:execute"}
	if _, err := execute(t, args...); fault.KindOf(err) != fault.Configuration {
		t.Fatalf("without --secret-file: err = %v, want configuration fault", err)
	}
	output, err := execute(t, append(args, "--secret-file", secretPath)...)
	if err != nil {
		t.Fatalf("with --secret-file: %v", err)
	}
	if !strings.Contains(output, "pt_") {
		t.Errorf("output = %q", output)
	}
}

func TestEvaluate(t *testing.T) {
	configPath := writeConfig(t)

	output, err := execute(t, "evaluate", "--config", configPath, "--tenant", "acme", "--job", "repo.read")
	if err != nil || !strings.HasPrefix(output, "ALLOW ALLOWED") {
		t.Errorf("repo.read: err = %v, output = %q", err, output)
	}

	output, err = execute(t, "evaluate", "--config", configPath, "--tenant", "acme", "--job", "pr.create")
	if cli.ExitCodeOf(err) != cli.ExitDeny || !strings.Contains(output, policy.CodePolicyTokenRequired) {
		t.Errorf("pr.create without token: err = %v, output = %q", err, output)
	}

	token := issueToken(t, configPath)
	output, err = execute(t, "evaluate", "--config", configPath, "--tenant", "acme", "--job", "pr.create",
		"--token", token, "--json")
	if err != nil {
		t.Fatalf("pr.create with token: %v\n%s", err, output)
	}
	var decision policy.Decision
	if err := json.Unmarshal([]byte(output), &decision); err != nil {
		t.Fatalf("decision JSON %q: %v", output, err)
	}
	if !decision.Allowed || decision.Category != policy.Action || decision.PolicyTokenValid == nil || !*decision.PolicyTokenValid {
		t.Errorf("decision = %+v", decision)
	}

	output, err = execute(t, "evaluate", "--config", configPath, "--tenant", "acme", "--job", "mystery.job")
	if cli.ExitCodeOf(err) != cli.ExitDeny || !strings.Contains(output, policy.CodeUncategorizedJobType) {
		t.Errorf("uncategorized: err = %v, output = %q", err, output)
	}
}

func TestReport(t *testing.T) {
	configPath := writeConfig(t)

	output, err := execute(t, "report", "--config", configPath, "--tenant", "acme")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"Tenant acme", "EXECUTE_ACTION", "Allowed", "Blocked", "repo.read", "pr.create"} {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q:\n%s", want, output)
		}
	}

	output, err = execute(t, "report", "--config", configPath, "--tenant", "observer", "--json")
	if err != nil {
		t.Fatalf("report --json: %v", err)
	}
	var report policy.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("report JSON: %v", err)
	}
	if report.Level != policy.ObserveOnly || len(report.Allowed) != 6 || len(report.Blocked) != 8 {
		t.Errorf("observer report: level %s, %d allowed, %d blocked", report.Level, len(report.Allowed), len(report.Blocked))
	}
}

func TestTriggerSimulate(t *testing.T) {
	configPath := writeConfig(t)

	output, err := execute(t, "trigger", "simulate", "--config", configPath, "--tenant", "acme", "--trigger", "nightly", "--count", "2")
	if cli.ExitCodeOf(err) != cli.ExitDeny {
		t.Errorf("err = %v, want deny exit", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 3 || !strings.Contains(lines[0], trigger.CodeFire) || !strings.Contains(lines[1], trigger.CodeCooldown) {
		t.Errorf("output:\n%s", output)
	}
	if !strings.Contains(output, "next scheduled") {
		t.Errorf("schedule not reported:\n%s", output)
	}

	output, err = execute(t, "trigger", "simulate", "--config", configPath, "--tenant", "acme", "--trigger", "on-push",
		"--event", "push", "--trace", "abc", "--count", "2", "--json")
	if cli.ExitCodeOf(err) != cli.ExitDeny {
		t.Errorf("duplicate delivery err = %v", err)
	}
	var decisions []trigger.Decision
	if err := json.Unmarshal([]byte(output), &decisions); err != nil {
		t.Fatalf("decisions JSON: %v", err)
	}
	if len(decisions) != 2 || !decisions[0].Fired() || decisions[1].Code != trigger.CodeDuplicateEvent {
		t.Errorf("decisions = %+v", decisions)
	}

	if _, err := execute(t, "trigger", "simulate", "--config", configPath, "--tenant", "acme", "--trigger", "absent"); err == nil || cli.ExitCodeOf(err) != cli.ExitUsage {
		t.Errorf("unknown trigger err = %v", err)
	}
}

func TestAuditExportAndShow(t *testing.T) {
	configPath := writeConfig(t)
	directory := t.TempDir()

	plain := filepath.Join(directory, "plain.audit")
	output, err := execute(t, "audit", "export", "--config", configPath, "--tenant", "acme", "--out", plain)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(output, "wrote 14 entries") {
		t.Errorf("export output = %q", output)
	}

	output, err = execute(t, "audit", "show", "--decision", "deny", plain)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(output, "policy.evaluate") || !strings.Contains(output, "pr.create") || strings.Contains(output, "repo.read") {
		t.Errorf("show --decision deny:\n%s", output)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	identityPath := filepath.Join(directory, "identity.txt")
	if err := os.WriteFile(identityPath, []byte(identity.String()+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	sealed := filepath.Join(directory, "sealed.audit")
	if _, err := execute(t, "audit", "export", "--config", configPath, "--tenant", "acme", "--out", sealed,
		"--recipient", identity.Recipient().String()); err != nil {
		t.Fatalf("encrypted export: %v", err)
	}
	if _, err := execute(t, "audit", "show", sealed); err == nil {
		t.Error("encrypted archive read without identity")
	}
	output, err = execute(t, "audit", "show", "-i", identityPath, "--json", sealed)
	if err != nil {
		t.Fatalf("show encrypted: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(output), &entries); err != nil || len(entries) != 14 {
		t.Errorf("entries = %d, err = %v", len(entries), err)
	}

	if _, err := execute(t, "audit", "export", "--config", configPath, "--tenant", "acme", "--out", sealed,
		"--recipient", "age1bogus"); cli.ExitCodeOf(err) != cli.ExitUsage {
		t.Errorf("bad recipient err = %v", err)
	}
}

func TestRoot(t *testing.T) {
	output, err := execute(t, "--version")
	if err != nil || !strings.HasPrefix(output, "jobgate ") {
		t.Errorf("--version: err = %v, output = %q", err, output)
	}

	output, err = execute(t)
	if cli.ExitCodeOf(err) != cli.ExitUsage || !strings.Contains(output, "Commands:") {
		t.Errorf("no args: err = %v, output = %q", err, output)
	}

	if _, err := execute(t, "evaluat"); err == nil || !strings.Contains(err.Error(), `"evaluate"`) {
		t.Errorf("typo suggestion: %v", err)
	}

	t.Setenv("JOBGATE_CONFIG", "")
	if _, err := execute(t, "report", "--tenant", "acme"); err == nil || !strings.Contains(err.Error(), "JOBGATE_CONFIG") {
		t.Errorf("missing config err = %v", err)
	}
}
