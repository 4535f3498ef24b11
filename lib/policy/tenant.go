// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "slices"

// DefaultLevel is the automation level of a tenant with no explicit
// policy.
const DefaultLevel = RecommendOnly

// TenantPolicy is the automation policy for one tenant, or for one
// project within a tenant when ProjectID is set.
type TenantPolicy struct {
	TenantID  string `yaml:"tenant_id" json:"tenant_id"`
	ProjectID string `yaml:"project_id,omitempty" json:"project_id,omitempty"`

	AutomationLevel Level `yaml:"automation_level" json:"automation_level"`

	// AllowedJobTypes, when non-empty, is the only set of job types
	// the tenant may run. Empty means unrestricted.
	AllowedJobTypes []string `yaml:"allowed_job_types,omitempty" json:"allowed_job_types,omitempty"`
	BlockedJobTypes []string `yaml:"blocked_job_types,omitempty" json:"blocked_job_types,omitempty"`

	RequirePolicyTokenForActions bool `yaml:"require_policy_token_for_actions" json:"require_policy_token_for_actions"`

	// MaxConcurrentActions bounds in-flight ACTION jobs. Zero is
	// unlimited.
	MaxConcurrentActions int `yaml:"max_concurrent_actions,omitempty" json:"max_concurrent_actions,omitempty"`

	// ActionRateLimitPerHour bounds ACTION job starts per hour. Zero
	// is unlimited.
	ActionRateLimitPerHour int `yaml:"action_rate_limit_per_hour,omitempty" json:"action_rate_limit_per_hour,omitempty"`
}

// DefaultPolicy is the policy a tenant receives on first use.
func DefaultPolicy(tenantID string) TenantPolicy {
	return TenantPolicy{
		TenantID:                     tenantID,
		AutomationLevel:              DefaultLevel,
		RequirePolicyTokenForActions: true,
	}
}

// Blocks reports whether jobType is on the block list.
func (p TenantPolicy) Blocks(jobType string) bool {
	return slices.Contains(p.BlockedJobTypes, jobType)
}

// Permits reports whether jobType passes the allow list.
func (p TenantPolicy) Permits(jobType string) bool {
	return len(p.AllowedJobTypes) == 0 || slices.Contains(p.AllowedJobTypes, jobType)
}

func (p TenantPolicy) clone() TenantPolicy {
	p.AllowedJobTypes = slices.Clone(p.AllowedJobTypes)
	p.BlockedJobTypes = slices.Clone(p.BlockedJobTypes)
	return p
}

func policyKey(tenantID, projectID string) string {
	if projectID == "" {
		return tenantID
	}
	return tenantID + "/" + projectID
}
