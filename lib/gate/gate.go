// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/jobgate/lib/audit"
	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/config"
	"github.com/bureau-foundation/jobgate/lib/dedupe"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/policy"
	"github.com/bureau-foundation/jobgate/lib/policytoken"
	"github.com/bureau-foundation/jobgate/lib/ratelimit"
	"github.com/bureau-foundation/jobgate/lib/secret"
	"github.com/bureau-foundation/jobgate/lib/trigger"
)

// CodeUnknownTrigger is returned by EvaluateTrigger for a trigger id
// that is not configured.
const CodeUnknownTrigger = "UNKNOWN_TRIGGER"

// Options are the runtime dependencies that do not come from the
// configuration file.
type Options struct {
	// Secret overrides the configured secret_file. The gate takes
	// ownership and closes it on Close.
	Secret *secret.Key

	Clock  clock.Clock
	Logger *slog.Logger

	// Sinks receive every audit entry in addition to the structured
	// log sink.
	Sinks []audit.Sink
}

// Gate owns the wired components.
type Gate struct {
	config *config.Config
	clock  clock.Clock
	logger *slog.Logger

	key      *secret.Key
	codec    *policytoken.Codec
	limiter  *ratelimit.Limiter
	dedupe   *dedupe.Store
	audit    *audit.Log
	guard    *policy.Guard
	triggers *trigger.Gate

	closeOnce sync.Once
}

// New builds a Gate. It fails when the configuration cannot produce a
// working guard, most commonly a configuration fault for required
// policy tokens without a signing secret.
func New(cfg *config.Config, options Options) (*Gate, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	gateClock := options.Clock
	if gateClock == nil {
		gateClock = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	key := options.Secret
	if key == nil {
		loaded, err := cfg.LoadSecret()
		if err != nil {
			return nil, err
		}
		key = loaded
	}

	gate := &Gate{
		config:  cfg,
		clock:   gateClock,
		logger:  logger,
		key:     key,
		limiter: ratelimit.New(gateClock),
		dedupe:  dedupe.New(gateClock),
	}

	if key != nil {
		codec, err := policytoken.NewCodec(key.Bytes(), gateClock)
		if err != nil {
			key.Close()
			return nil, err
		}
		gate.codec = codec
		if !key.Locked() {
			logger.Warn("signing secret could not be locked into memory")
		}
	}

	sinks := append([]audit.Sink{audit.SlogSink{Logger: logger.With("component", "audit")}}, options.Sinks...)
	gate.audit = audit.New(audit.Options{
		Enabled:  cfg.AuditEnabled,
		Capacity: cfg.AuditCapacity,
		Clock:    gateClock,
		Sinks:    sinks,
	})

	guard, err := policy.New(policy.Options{
		Enabled:             cfg.GuardEnabled,
		ActionJobsEnabled:   cfg.ActionJobsEnabled,
		RequirePolicyTokens: cfg.RequirePolicyTokens,
		Codec:               gate.codec,
		Registry:            policy.NewRegistry(cfg.Catalog()),
		Limiter:             gate.limiter,
		RateLimits:          cfg.RateLimits,
		Policies:            cfg.Tenants,
		Audit:               gate.audit,
		Clock:               gateClock,
		Logger:              logger.With("component", "policy"),
	})
	if err != nil {
		gate.Close()
		return nil, err
	}
	gate.guard = guard

	gate.triggers = trigger.New(trigger.Options{
		Enabled: cfg.TriggersEnabled,
		Limiter: gate.limiter,
		Dedupe:  gate.dedupe,
		Audit:   gate.audit,
		Clock:   gateClock,
		Logger:  logger.With("component", "trigger"),
	})

	return gate, nil
}

// Config returns the configuration the gate was built from.
func (g *Gate) Config() *config.Config { return g.config }

// Codec returns the token codec, or nil when no secret is configured.
func (g *Gate) Codec() *policytoken.Codec { return g.codec }

// Guard returns the policy guard.
func (g *Gate) Guard() *policy.Guard { return g.guard }

// Triggers returns the trigger safety gate.
func (g *Gate) Triggers() *trigger.Gate { return g.triggers }

// Audit returns the audit log.
func (g *Gate) Audit() *audit.Log { return g.audit }

// EvaluateJob runs the policy guard for one job request.
func (g *Gate) EvaluateJob(tenantID, jobType string, options policy.EvaluateOptions) policy.Decision {
	return g.guard.Evaluate(tenantID, jobType, options)
}

// EvaluateTrigger evaluates one activation of the configured trigger
// rule. The only error is an unknown trigger; every other outcome is a
// Decision.
func (g *Gate) EvaluateTrigger(tenantID, triggerID, eventType, traceID, actorID string) (trigger.Decision, error) {
	rule, ok := g.config.Trigger(tenantID, triggerID)
	if !ok {
		return trigger.Decision{}, fault.New(fault.Validation, CodeUnknownTrigger,
			"no trigger %q configured for tenant %q", triggerID, tenantID)
	}
	return g.triggers.Evaluate(rule.Request(eventType, traceID, actorID), rule.Config), nil
}

// SweepResult counts the entries one sweep evicted.
type SweepResult struct {
	RateWindows    int
	DedupeEntries  int
	ConsumedTokens int
}

// Total is the number of entries evicted.
func (r SweepResult) Total() int {
	return r.RateWindows + r.DedupeEntries + r.ConsumedTokens
}

// Sweep evicts expired state from every store.
func (g *Gate) Sweep() SweepResult {
	result := SweepResult{
		RateWindows:   g.limiter.Sweep(),
		DedupeEntries: g.dedupe.Sweep(),
	}
	if g.codec != nil {
		result.ConsumedTokens = g.codec.Replay().Cleanup(g.clock.Now())
	}
	return result
}

// Run sweeps every SweepInterval until ctx is done. It returns
// immediately when the interval is zero.
func (g *Gate) Run(ctx context.Context) {
	interval := g.config.SweepInterval
	if interval <= 0 {
		return
	}

	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if result := g.Sweep(); result.Total() > 0 {
				g.logger.Debug("swept expired state",
					"rate_windows", result.RateWindows,
					"dedupe_entries", result.DedupeEntries,
					"consumed_tokens", result.ConsumedTokens,
				)
			}
		}
	}
}

// Reset returns every component to its constructed state, for test
// isolation between scenarios.
func (g *Gate) Reset() {
	g.guard.Reset()
	g.triggers.Reset()
	g.limiter.Reset()
	g.dedupe.Reset()
	g.audit.Reset()
	if g.codec != nil {
		g.codec.Replay().Reset()
	}
}

// Close releases the signing secret. The codec must not be used
// afterwards.
func (g *Gate) Close() error {
	var err error
	g.closeOnce.Do(func() {
		if g.key != nil {
			err = g.key.Close()
		}
	})
	return err
}
