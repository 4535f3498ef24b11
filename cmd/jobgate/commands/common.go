// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jobgate/lib/config"
	"github.com/bureau-foundation/jobgate/lib/gate"
)

// configFlags selects the configuration file and optionally overrides
// its signing secret.
type configFlags struct {
	Path       string
	SecretFile string
}

// AddFlags implements cli.FlagBinder.
func (c *configFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&c.Path, "config", "c", "", "config file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&c.SecretFile, "secret-file", "", "signing secret file, overriding secret_file (\"-\" for stdin)")
}

// load reads the configuration, applies --secret-file, and only then
// validates, so the flag can satisfy require_policy_tokens.
func (c *configFlags) load() (*config.Config, error) {
	path := c.Path
	if path == "" {
		var err error
		if path, err = config.EnvironmentPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if c.SecretFile != "" {
		cfg.SecretFile = c.SecretFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads the configuration and builds a gate from it. The caller
// closes the gate.
func (c *configFlags) open(logger *slog.Logger) (*gate.Gate, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	return gate.New(cfg, gate.Options{Logger: logger})
}

func closeGate(g *gate.Gate, logger *slog.Logger) {
	if err := g.Close(); err != nil {
		logger.Warn("closing gate", "error", err)
	}
}

func printField(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "%-22s %v\n", name+":", value)
}
