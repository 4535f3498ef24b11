// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gate assembles the automation safety core from a
// [config.Config]: the policy token codec, the policy guard, the
// trigger safety gate, and the audit log, sharing one clock, one rate
// limiter, and one dedupe store.
//
// The job dispatcher calls [Gate.EvaluateJob] before running a
// handler. The trigger scheduler calls [Gate.EvaluateTrigger] before
// enqueuing a job from a configured rule. [Gate.Run] evicts expired
// rate windows, dedupe entries, and consumed tokens in the background.
package gate
