// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type configFlag struct {
	path string
}

func (c *configFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.path, "config", "", "config file")
}

func TestBindFlags(t *testing.T) {
	var params struct {
		JSONOutput
		Config  configFlag
		Tenant  string        `flag:"tenant,t" desc:"tenant"`
		DryRun  bool          `flag:"dry-run" desc:"dry run"`
		Count   int           `flag:"count" desc:"repeat" default:"1"`
		TTL     time.Duration `flag:"ttl" desc:"lifetime" default:"24h"`
		Scopes  []string      `flag:"scope" desc:"scopes"`
		Ignored string
	}
	flagSet := FlagsFromParams("test", &params)

	if params.Count != 1 || params.TTL != 24*time.Hour {
		t.Errorf("defaults = %d, %s", params.Count, params.TTL)
	}

	err := flagSet.Parse([]string{
		"--config", "/etc/jobgate.yaml",
		"-t", "acme",
		"--dry-run",
		"--count", "3",
		"--scope", "action:execute",
		"--scope", "repo:read",
		"--json",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Config.path != "/etc/jobgate.yaml" || params.Tenant != "acme" || !params.DryRun || params.Count != 3 {
		t.Errorf("params = %+v", params)
	}
	if len(params.Scopes) != 2 || params.Scopes[1] != "repo:read" {
		t.Errorf("Scopes = %v", params.Scopes)
	}
	if !params.OutputJSON {
		t.Error("--json not bound through embedded JSONOutput")
	}
}

func TestBindFlagsErrors(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(struct{}{}, flagSet); err == nil {
		t.Error("non-pointer accepted")
	}
	var unsupported struct {
		Rate float32 `flag:"rate"`
	}
	if err := BindFlags(&unsupported, flagSet); err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("err = %v", err)
	}
	var badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("bad default accepted")
	}
}

func TestRequireFlags(t *testing.T) {
	if err := RequireFlags(map[string]string{"tenant": "acme"}); err != nil {
		t.Errorf("err = %v", err)
	}
	err := RequireFlags(map[string]string{"tenant": "", "job": "", "config": "x"})
	if err == nil || err.Error() != "missing required flag(s): --job, --tenant" {
		t.Errorf("err = %v", err)
	}
}

func TestEmitJSON(t *testing.T) {
	var buffer bytes.Buffer
	output := JSONOutput{}
	if done, _ := output.EmitJSON(&buffer, []string(nil)); done || buffer.Len() != 0 {
		t.Error("emitted without --json")
	}

	output.OutputJSON = true
	if done, err := output.EmitJSON(&buffer, []string(nil)); !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice encoded as %q", buffer.String())
	}
}

func TestNewLoggerHandlerSelection(t *testing.T) {
	var text, structured bytes.Buffer
	newLogger(&text, true, slog.LevelInfo).Info("hello", "tenant_id", "acme")
	newLogger(&structured, false, slog.LevelInfo).Info("hello", "tenant_id", "acme")

	if !strings.Contains(text.String(), "tenant_id=acme") {
		t.Errorf("text output = %q", text.String())
	}
	var record map[string]any
	if err := json.Unmarshal(structured.Bytes(), &record); err != nil {
		t.Fatalf("JSON output = %q: %v", structured.String(), err)
	}
	if record["tenant_id"] != "acme" {
		t.Errorf("record = %v", record)
	}

	var quiet bytes.Buffer
	newLogger(&quiet, false, slog.LevelWarn).Info("dropped")
	if quiet.Len() != 0 {
		t.Error("info logged at warn level")
	}
}
