// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/jobgate/lib/audit"
	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/dedupe"
	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/ratelimit"
	"github.com/bureau-foundation/jobgate/lib/ringlog"
)

// DryRunCapacity is the number of evaluations retained per tenant.
const DryRunCapacity = 1000

// AuditAction is the audit action written for every evaluation.
const AuditAction = "trigger.evaluate"

// Options configures a Gate.
type Options struct {
	// Enabled is the global kill switch. A disabled gate blocks
	// everything.
	Enabled bool

	// Limiter and Dedupe may be shared with other components; nil
	// creates private ones.
	Limiter *ratelimit.Limiter
	Dedupe  *dedupe.Store

	Audit  *audit.Log
	Clock  clock.Clock
	Logger *slog.Logger
}

// Gate evaluates trigger activations.
type Gate struct {
	enabled bool
	limiter *ratelimit.Limiter
	dedupe  *dedupe.Store
	audit   *audit.Log
	clock   clock.Clock
	logger  *slog.Logger

	// mutex serializes evaluations so each check-then-commit on
	// trigger state, rate budget, and dedupe is atomic.
	mutex  sync.Mutex
	states map[stateKey]State

	dryRuns *ringlog.Keyed[DryRunRecord]
}

type stateKey struct {
	tenantID  string
	triggerID string
}

// New constructs a Gate.
func New(options Options) *Gate {
	gateClock := options.Clock
	if gateClock == nil {
		gateClock = clock.Real()
	}
	limiter := options.Limiter
	if limiter == nil {
		limiter = ratelimit.New(gateClock)
	}
	store := options.Dedupe
	if store == nil {
		store = dedupe.New(gateClock)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		enabled: options.Enabled,
		limiter: limiter,
		dedupe:  store,
		audit:   options.Audit,
		clock:   gateClock,
		logger:  logger,
		states:  make(map[stateKey]State),
		dryRuns: ringlog.NewKeyed[DryRunRecord](DryRunCapacity),
	}
}

// Evaluate decides what the scheduler should do with request under
// config. It never fails; invalid configuration blocks.
func (g *Gate) Evaluate(request Request, config Config) Decision {
	g.mutex.Lock()
	decision := g.evaluateLocked(request, config)
	g.mutex.Unlock()

	g.record(request, decision)
	return decision
}

func (g *Gate) evaluateLocked(request Request, config Config) Decision {
	now := g.clock.Now()
	decision := Decision{
		TriggerID:   request.TriggerID,
		TriggerType: request.TriggerType,
		TenantID:    request.TenantID,
		JobType:     request.JobType,
		EventType:   request.EventType,
		TraceID:     request.TraceID,
		EvaluatedAt: now,
	}
	if !config.Schedule.IsZero() {
		if next, err := config.Schedule.Next(now); err == nil {
			decision.NextScheduledAt = next
		}
	}

	if !g.enabled {
		return block(decision, fault.Authorization, CodeTriggersDisabled, "triggers are disabled")
	}
	if err := ValidateConfig(config); err != nil {
		return block(decision, fault.Validation, CodeInvalidConfig, "trigger %q has invalid configuration: %v", request.TriggerID, err)
	}

	// Throttled outcomes become dry runs when the rule is in dry run
	// mode; allowlist violations never do.
	throttle := func(kind fault.Kind, code, format string, args ...any) Decision {
		if config.DryRun {
			decision.Action = DryRun
			decision.Kind = kind
			decision.Code = code
			decision.Reason = "dry run: " + fmt.Sprintf(format, args...)
			return decision
		}
		return block(decision, kind, code, format, args...)
	}

	key := stateKey{tenantID: request.TenantID, triggerID: request.TriggerID}
	state := g.states[key]
	if !state.HourStart.IsZero() && now.Sub(state.HourStart) >= time.Hour {
		state.FireCountThisHour = 0
		state.HourStart = time.Time{}
	}
	decision.RunsThisHour = state.FireCountThisHour

	if config.Cooldown > 0 && !state.LastFiredAt.IsZero() {
		if elapsed := now.Sub(state.LastFiredAt); elapsed < config.Cooldown {
			decision.CooldownRemaining = config.Cooldown - elapsed
			return throttle(fault.RateLimit, CodeCooldown, "trigger %q is cooling down for another %s",
				request.TriggerID, decision.CooldownRemaining)
		}
	}

	if config.MaxRunsPerHour > 0 && state.FireCountThisHour >= config.MaxRunsPerHour {
		return throttle(fault.RateLimit, CodeHourlyCap, "trigger %q already fired %d of %d times this hour",
			request.TriggerID, state.FireCountThisHour, config.MaxRunsPerHour)
	}

	rateKey := "trigger:" + request.TenantID
	if config.RateLimitMax > 0 {
		peek := g.limiter.Peek(rateKey, config.RateLimitMax, config.RateLimitWindow)
		decision.RateLimitRemaining = peek.Remaining
		if !peek.Allowed {
			return throttle(fault.RateLimit, CodeRateLimited, "tenant %q exceeded %d trigger activations per %s, resets at %s",
				request.TenantID, config.RateLimitMax, config.RateLimitWindow, peek.ResetAt.UTC().Format(time.RFC3339))
		}
	}

	if len(config.AllowedEventTypes) > 0 && !slices.Contains(config.AllowedEventTypes, request.EventType) {
		return block(decision, fault.Authorization, CodeEventTypeNotAllowed,
			"event type %q is not allowed for trigger %q", request.EventType, request.TriggerID)
	}
	if len(config.AllowedJobTypes) > 0 && !slices.Contains(config.AllowedJobTypes, request.JobType) {
		return block(decision, fault.Authorization, CodeJobTypeNotAllowed,
			"job type %q is not allowed for trigger %q", request.JobType, request.TriggerID)
	}

	dedupeKey := ""
	dedupeTTL := config.DedupeTTL
	if dedupeTTL == 0 {
		dedupeTTL = dedupe.DefaultTTL
	}
	if request.TriggerType.eventDriven() && request.TraceID != "" {
		dedupeKey = dedupe.StableKey(request.TenantID, request.TriggerID, request.EventType, request.TraceID)
		if g.dedupe.Has(dedupeKey, dedupeTTL) {
			decision.Duplicate = true
			return throttle(fault.Replay, CodeDuplicateEvent, "event %q (trace %q) was already processed by trigger %q",
				request.EventType, request.TraceID, request.TriggerID)
		}
	}

	if config.DryRun {
		decision.Action = DryRun
		decision.Code = CodeDryRun
		decision.Reason = fmt.Sprintf("dry run: trigger %q would fire job %q", request.TriggerID, request.JobType)
		return decision
	}

	// Commit. Every check above ran under g.mutex, so the limiter and
	// dedupe calls here cannot fail for budget this gate granted.
	if config.RateLimitMax > 0 {
		result := g.limiter.Check(rateKey, config.RateLimitMax, config.RateLimitWindow)
		decision.RateLimitRemaining = result.Remaining
		if !result.Allowed {
			return block(decision, fault.RateLimit, CodeRateLimited, "tenant %q exceeded %d trigger activations per %s",
				request.TenantID, config.RateLimitMax, config.RateLimitWindow)
		}
	}
	if dedupeKey != "" && g.dedupe.CheckAndSet(dedupeKey, dedupeTTL) {
		decision.Duplicate = true
		return block(decision, fault.Replay, CodeDuplicateEvent, "event %q (trace %q) was already processed by trigger %q",
			request.EventType, request.TraceID, request.TriggerID)
	}

	if state.HourStart.IsZero() {
		state.HourStart = now
	}
	state.LastFiredAt = now
	state.FireCountThisHour++
	g.states[key] = state

	decision.RunsThisHour = state.FireCountThisHour
	decision.Action = Fire
	decision.Code = CodeFire
	decision.Reason = fmt.Sprintf("trigger %q fired job %q", request.TriggerID, request.JobType)
	return decision
}

func block(decision Decision, kind fault.Kind, code, format string, args ...any) Decision {
	decision.Action = Block
	decision.Kind = kind
	decision.Code = code
	decision.Reason = fmt.Sprintf(format, args...)
	return decision
}

func (g *Gate) record(request Request, decision Decision) {
	g.dryRuns.Append(request.TenantID, DryRunRecord{
		Timestamp:          decision.EvaluatedAt,
		TriggerID:          decision.TriggerID,
		TriggerType:        decision.TriggerType,
		JobType:            decision.JobType,
		EventType:          decision.EventType,
		Action:             decision.Action,
		Code:               decision.Code,
		Reason:             decision.Reason,
		CooldownRemaining:  decision.CooldownRemaining,
		RunsThisHour:       decision.RunsThisHour,
		RateLimitRemaining: decision.RateLimitRemaining,
		Duplicate:          decision.Duplicate,
	})

	if decision.Action == Block {
		g.logger.Info("trigger blocked",
			"tenant_id", decision.TenantID,
			"trigger_id", decision.TriggerID,
			"code", decision.Code,
			"reason", decision.Reason,
		)
	} else {
		g.logger.Debug("trigger evaluated",
			"tenant_id", decision.TenantID,
			"trigger_id", decision.TriggerID,
			"action", string(decision.Action),
		)
	}

	if !g.audit.Enabled() {
		return
	}
	auditDecision := audit.Allow
	switch {
	case decision.Code == CodeInvalidConfig:
		auditDecision = audit.Error
	case decision.Action == Block:
		auditDecision = audit.Deny
	}
	metadata := map[string]any{
		"action":                string(decision.Action),
		"code":                  decision.Code,
		"trigger_type":          string(decision.TriggerType),
		"job_type":              decision.JobType,
		"cooldown_remaining_ms": clock.Millis(decision.CooldownRemaining),
		"runs_this_hour":        decision.RunsThisHour,
		"rate_limit_remaining":  decision.RateLimitRemaining,
		"duplicate":             decision.Duplicate,
	}
	if decision.EventType != "" {
		metadata["event_type"] = decision.EventType
	}
	if decision.TraceID != "" {
		metadata["trace_id"] = decision.TraceID
	}
	if !decision.NextScheduledAt.IsZero() {
		metadata["next_scheduled_at"] = decision.NextScheduledAt.Format(time.RFC3339)
	}
	g.audit.Write(audit.Entry{
		TenantID: decision.TenantID,
		ActorID:  request.ActorID,
		Action:   AuditAction,
		Resource: decision.TriggerID,
		Decision: auditDecision,
		Reason:   decision.Reason,
		Metadata: metadata,
	})
}

// State returns the fire history of a trigger. ok is false if it has
// never fired.
func (g *Gate) State(tenantID, triggerID string) (state State, ok bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	state, ok = g.states[stateKey{tenantID: tenantID, triggerID: triggerID}]
	return state, ok
}

// DryRuns returns tenantID's retained evaluations, oldest first.
func (g *Gate) DryRuns(tenantID string) []DryRunRecord {
	return g.dryRuns.List(tenantID)
}

// Reset forgets every trigger's state and evaluation history. The
// shared limiter and dedupe store are left to their owner.
func (g *Gate) Reset() {
	g.mutex.Lock()
	g.states = make(map[stateKey]State)
	g.mutex.Unlock()
	g.dryRuns.Reset()
}
