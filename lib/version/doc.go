// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the jobgate binary.
//
// [Commit], [Dirty], and [BuildTime] are injected with -ldflags -X.
// When they are not injected, which is the case for `go install` and
// test runs, [Read] falls back to the VCS stamps the Go toolchain
// embeds in the binary.
package version
