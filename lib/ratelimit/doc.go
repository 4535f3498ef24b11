// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit implements a fixed-window request counter keyed
// by a caller-chosen scope string ("tenant", "tenant:actor",
// "job:tenant:type").
//
// A window opens on the first call for a key and lasts for the
// caller's window duration. Calls inside the window are counted until
// the maximum is reached; after that the key is blocked until the
// window ends, at which point the next call opens a fresh window.
// Windows are anchored to the first call, not to wall-clock
// boundaries.
//
// The check-then-increment sequence runs under a single mutex, so
// concurrent callers can never push a key past its maximum. Stale
// keys are evicted by an amortized sweep every [SweepInterval] calls
// rather than by a background goroutine, keeping [Limiter.Check] O(1)
// on the hot path.
//
// [Table] maps job types and tool names to their limits for callers
// that enforce per-type budgets.
package ratelimit
