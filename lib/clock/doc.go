// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time for the gate's stores.
//
// Every window, cooldown, TTL, and token expiry in jobgate is computed
// from a [Clock] injected at construction. Production wiring passes
// [Real]; tests pass [Fake] and move time explicitly with
// [FakeClock.Advance], which makes fixed-window and cooldown behavior
// reproducible without sleeping.
//
// Only the two operations the gate needs are abstracted: reading the
// current time and ticking for the optional background sweeper.
package clock
