// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit records every policy and trigger decision in a
// bounded, redacted, in-memory ledger.
//
// A [Log] is constructed once and shared by the policy guard and the
// trigger gate. When auditing is disabled, [Log.Write] returns
// immediately; callers that build metadata maps should check
// [Log.Enabled] first so the disabled path allocates nothing. When
// enabled, each entry receives a random UUID and a clock timestamp,
// its metadata is passed through [redact.Map], and it is appended to a
// ring that drops the oldest entry once full (10,000 by default).
//
// The ledger is not durable. Durable storage and transport belong to
// whatever [Sink] the embedding service registers: every written entry
// is handed to the configured sinks after it is recorded. [SlogSink]
// writes one structured log line per entry; [MultiSink] fans out.
//
// [EncodeSnapshot] and [DecodeSnapshot] move a copy of the ledger in
// and out of a CBOR sequence for offline inspection.
package audit
