// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the jobgate CLI command tree.
//
// Every command loads one configuration file (--config or
// JOBGATE_CONFIG), assembles a [gate.Gate] in process, runs, and
// exits. Nothing persists between invocations except files written by
// "audit export", so commands that depend on history, such as
// "trigger simulate --count", evaluate repeatedly within one process.
package commands
