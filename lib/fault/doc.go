// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault classifies gate failures so that callers can react to
// the kind of failure (fix input, re-authenticate, back off, escalate)
// without parsing message text.
//
// Every failure carries a [Kind] and a stable machine-readable Code
// such as "INVALID_SIGNATURE" or "POLICY_TOKEN_REQUIRED". Decision
// functions in the gate never return errors across their evaluation
// boundary; they embed the Kind and Code in the decision they return.
// Errors proper are reserved for construction-time failures, which are
// always [Configuration] faults raised eagerly at startup.
package fault
