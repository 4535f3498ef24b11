// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy decides whether a job type may run for a tenant.
//
// Each tenant has a [TenantPolicy] whose [Level] is a ceiling on how
// autonomously jobs may run:
//
//	OBSERVE_ONLY < RECOMMEND_ONLY < EXECUTE_NON_ACTION < EXECUTE_ACTION
//
// Every job type is assigned a [Category] in a [Registry], and each
// category requires a minimum level. A job type missing from the
// registry is never allowed: [Guard.Evaluate] denies it and records a
// critical [DriftAlert] so the catalog gap is visible to operators.
//
// ACTION jobs (those that change external state) pass three further
// gates: the global action-jobs switch, the policy token requirement,
// and the token's own tenant, scope, and tool restrictions checked
// through [policytoken.Codec.Authorize]. Real runs consume single-use
// tokens; dry runs validate them without consuming.
//
// Denials are kept per tenant in a bounded ring (see [Guard.Denials])
// and written to the audit log. When the guard is disabled outright,
// every evaluation is allowed with Permissive set and code
// GUARD_DISABLED, and a warning is logged each time, so a permissive
// allow can never be mistaken for an approved one.
package policy
