// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/jobgate/lib/cron"
	"github.com/bureau-foundation/jobgate/lib/fault"
)

// Type is how a trigger is activated.
type Type string

const (
	Cron    Type = "cron"
	Event   Type = "event"
	Manual  Type = "manual"
	Webhook Type = "webhook"
)

// Valid reports whether t is a known trigger type.
func (t Type) Valid() bool {
	switch t {
	case Cron, Event, Manual, Webhook:
		return true
	}
	return false
}

// eventDriven reports whether activations carry an event identity
// that must not be processed twice.
func (t Type) eventDriven() bool {
	return t == Event || t == Webhook
}

// Action is what the scheduler must do with a Decision.
type Action string

const (
	Fire   Action = "fire"
	DryRun Action = "dry_run"
	Block  Action = "block"
)

// Decision codes.
const (
	CodeFire                = "FIRE"
	CodeDryRun              = "DRY_RUN"
	CodeTriggersDisabled    = "TRIGGERS_DISABLED"
	CodeInvalidConfig       = "INVALID_CONFIG"
	CodeCooldown            = "COOLDOWN"
	CodeHourlyCap           = "HOURLY_CAP"
	CodeRateLimited         = "RATE_LIMITED"
	CodeEventTypeNotAllowed = "EVENT_TYPE_NOT_ALLOWED"
	CodeJobTypeNotAllowed   = "JOB_TYPE_NOT_ALLOWED"
	CodeDuplicateEvent      = "DUPLICATE_EVENT"
)

// Request identifies one trigger activation.
type Request struct {
	TriggerID   string
	TriggerType Type
	TenantID    string
	JobType     string

	// EventType and TraceID identify the source event for event and
	// webhook triggers. Activations without a TraceID are not
	// deduplicated.
	EventType string
	TraceID   string

	ActorID string
}

// Config is a trigger rule's safety configuration. Zero values
// disable the corresponding limit.
type Config struct {
	Cooldown          time.Duration `yaml:"cooldown" json:"cooldown"`
	MaxRunsPerHour    int           `yaml:"max_runs_per_hour" json:"max_runs_per_hour"`
	AllowedEventTypes []string      `yaml:"allowed_event_types,omitempty" json:"allowed_event_types,omitempty"`
	AllowedJobTypes   []string      `yaml:"allowed_job_types,omitempty" json:"allowed_job_types,omitempty"`
	DryRun            bool          `yaml:"dry_run" json:"dry_run"`

	// RateLimitMax activations per RateLimitWindow, shared by every
	// trigger of the tenant.
	RateLimitMax    int           `yaml:"rate_limit_max" json:"rate_limit_max"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" json:"rate_limit_window"`

	// DedupeTTL is how long an event stays a duplicate. Zero uses
	// dedupe.DefaultTTL.
	DedupeTTL time.Duration `yaml:"dedupe_ttl,omitempty" json:"dedupe_ttl,omitempty"`

	// Schedule, when set, is reported as NextScheduledAt.
	Schedule cron.Schedule `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// ValidateConfig reports every problem with config.
func ValidateConfig(config Config) error {
	var errs []error
	if config.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must not be negative"))
	}
	if config.MaxRunsPerHour < 0 {
		errs = append(errs, fmt.Errorf("max_runs_per_hour must not be negative"))
	}
	if config.RateLimitMax < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_max must not be negative"))
	}
	if config.RateLimitMax > 0 && config.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit_window must be positive when rate_limit_max is set"))
	}
	if config.DedupeTTL < 0 {
		errs = append(errs, fmt.Errorf("dedupe_ttl must not be negative"))
	}
	if len(errs) > 0 {
		return fault.Wrap(fault.Validation, CodeInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Decision is the outcome of Gate.Evaluate.
type Decision struct {
	Action Action     `json:"action"`
	Code   string     `json:"code"`
	Reason string     `json:"reason"`
	Kind   fault.Kind `json:"-"`

	TriggerID   string `json:"trigger_id"`
	TriggerType Type   `json:"trigger_type"`
	TenantID    string `json:"tenant_id"`
	JobType     string `json:"job_type"`
	EventType   string `json:"event_type,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`

	CooldownRemaining  time.Duration `json:"cooldown_remaining"`
	RunsThisHour       int           `json:"runs_this_hour"`
	RateLimitRemaining int           `json:"rate_limit_remaining"`
	Duplicate          bool          `json:"duplicate"`

	// NextScheduledAt is zero unless the config carries a schedule.
	NextScheduledAt time.Time `json:"next_scheduled_at,omitzero"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// Fired reports whether the scheduler should enqueue the job.
func (d Decision) Fired() bool { return d.Action == Fire }

// State is a trigger's fire history.
type State struct {
	LastFiredAt       time.Time `json:"last_fired_at"`
	FireCountThisHour int       `json:"fire_count_this_hour"`
	HourStart         time.Time `json:"hour_start"`
}

// DryRunRecord is one evaluation retained for operators.
type DryRunRecord struct {
	Timestamp          time.Time     `json:"timestamp"`
	TriggerID          string        `json:"trigger_id"`
	TriggerType        Type          `json:"trigger_type"`
	JobType            string        `json:"job_type"`
	EventType          string        `json:"event_type,omitempty"`
	Action             Action        `json:"action"`
	Code               string        `json:"code"`
	Reason             string        `json:"reason"`
	CooldownRemaining  time.Duration `json:"cooldown_remaining"`
	RunsThisHour       int           `json:"runs_this_hour"`
	RateLimitRemaining int           `json:"rate_limit_remaining"`
	Duplicate          bool          `json:"duplicate"`
}
