// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for jobgate packages.
//
// Everything under test runs on a [clock.FakeClock]; these helpers
// are the only place tests wait on wall-clock time, and only as a
// hang guard around goroutines driven by the fake clock. All helpers
// call t.Fatalf on failure.
package testutil
