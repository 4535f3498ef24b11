// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package redact scrubs credentials out of structured metadata before
// it is written to decision records.
//
// Two rules apply. Values stored under a sensitive key (anything
// containing "secret", "token", "password", "authorization",
// "api_key", "apikey", "cookie", "credential", or "private_key",
// case-insensitively) are replaced with [Placeholder]. String values
// that look like credentials regardless of their key (policy tokens
// with the "pt_" prefix, "Bearer ..." headers) are masked in place.
// Nested maps and slices are walked up to [MaxDepth]; anything deeper
// is replaced wholesale.
//
// Redaction always copies: the caller's map is never modified.
package redact
