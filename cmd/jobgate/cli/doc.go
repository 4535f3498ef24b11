// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the jobgate CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in
// cmd/jobgate/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and help output with
// examples. Flags are usually declared as tagged struct fields and
// bound with [FlagsFromParams].
//
// Unknown subcommands and flags get a "did you mean" suggestion based
// on Levenshtein distance (at most 3).
//
// Exit status follows three codes: [ExitOK] for success and allow
// decisions, [ExitDeny] when a command reports a denial through
// [ExitError], and [ExitUsage] for usage errors and failures.
package cli
