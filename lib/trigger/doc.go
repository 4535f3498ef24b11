// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger bounds how often cron, event, manual, and webhook
// triggers may enqueue jobs.
//
// The scheduler calls [Gate.Evaluate] before enqueuing a job from a
// trigger rule and acts on the returned [Action]:
//
//   - fire: enqueue the job.
//   - dry_run: record the outcome but enqueue nothing.
//   - block: enqueue nothing.
//
// Throttles (cooldown, hourly cap, tenant rate limit, duplicate event)
// yield dry_run instead of block when the trigger's [Config] is in dry
// run mode, so operators can watch what a rule would do. Allowlist
// violations and the global kill switch always block.
//
// Only a real fire changes state: it stamps the trigger's last fire
// time, increments its hourly count, spends tenant rate budget, and
// records the event for duplicate detection. Evaluations are
// serialized per gate so concurrent callers cannot both pass a
// cooldown or cap that only one of them fits in.
//
// Every evaluation is kept in a per-tenant ring (see [Gate.DryRuns])
// and written to the audit log.
package trigger
