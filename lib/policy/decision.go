// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"
	"time"

	"github.com/bureau-foundation/jobgate/lib/fault"
)

// Decision codes. Token verification failures carry the policytoken
// code (INVALID_SIGNATURE, EXPIRED, ...) unchanged.
const (
	CodeAllowed                     = "ALLOWED"
	CodeDryRun                      = "DRY_RUN"
	CodeGuardDisabled               = "GUARD_DISABLED"
	CodeJobTypeBlocked              = "JOB_TYPE_BLOCKED"
	CodeJobTypeNotAllowed           = "JOB_TYPE_NOT_ALLOWED"
	CodeUncategorizedJobType        = "UNCATEGORIZED_JOB_TYPE"
	CodeInsufficientAutomationLevel = "INSUFFICIENT_AUTOMATION_LEVEL"
	CodeActionJobsDisabled          = "ACTION_JOBS_DISABLED"
	CodePolicyTokenRequired         = "POLICY_TOKEN_REQUIRED"
	CodeRateLimited                 = "RATE_LIMITED"
	CodeConcurrencyLimit            = "CONCURRENCY_LIMIT"
)

// Decision is the outcome of Guard.Evaluate. It is never persisted.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`

	// Kind classifies a denial; fault.None when allowed.
	Kind fault.Kind `json:"-"`

	// Permissive marks an allow produced because the guard is
	// disabled rather than because the policy approved it.
	Permissive bool `json:"permissive,omitempty"`

	TenantID  string `json:"tenant_id"`
	ProjectID string `json:"project_id,omitempty"`
	JobType   string `json:"job_type"`
	DryRun    bool   `json:"dry_run,omitempty"`

	// Categorized is false when the job type is missing from the
	// registry, in which case Category and RequiredLevel are zero and
	// omitted from JSON.
	Categorized   bool     `json:"categorized"`
	Category      Category `json:"category"`
	RequiredLevel Level    `json:"required_level"`
	CurrentLevel  Level    `json:"current_level"`

	RequiresPolicyToken bool `json:"requires_policy_token"`
	// PolicyTokenValid is nil when no token was examined.
	PolicyTokenValid *bool    `json:"policy_token_valid,omitempty"`
	Scopes           []string `json:"scopes,omitempty"`
}

// MarshalJSON omits category and required_level for an uncategorized
// job type, where their zero values would read as READ and
// OBSERVE_ONLY.
func (d Decision) MarshalJSON() ([]byte, error) {
	type plain Decision
	out := struct {
		plain
		Category      *Category `json:"category,omitempty"`
		RequiredLevel *Level    `json:"required_level,omitempty"`
	}{plain: plain(d)}
	if d.Categorized {
		out.Category = &d.Category
		out.RequiredLevel = &d.RequiredLevel
	}
	return json.Marshal(out)
}

// Err returns the denial as a classified error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fault.New(d.Kind, d.Code, "%s", d.Reason)
}

// Severity grades drift alerts.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// DriftAlert records a job type that reached the guard without a
// registered category.
type DriftAlert struct {
	TenantID  string    `json:"tenant_id"`
	JobType   string    `json:"job_type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Denial records one denied evaluation.
type Denial struct {
	TenantID  string    `json:"tenant_id"`
	ProjectID string    `json:"project_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	JobType   string    `json:"job_type"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
