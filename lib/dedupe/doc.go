// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dedupe is a TTL-bounded "seen before" set used for replay
// protection and event idempotency.
//
// The store is deliberately two-step: [Store.Has] answers whether a
// key was recorded within its TTL, and [Store.Set] records it. Callers
// record an event only after their own business logic decides to
// proceed, so a rejected event does not poison later retries.
// [Store.CheckAndSet] performs both steps under one lock for callers
// that have already decided.
//
// A repeat Has never refreshes an entry: the TTL runs from the Set.
// Expired entries are evicted lazily on access and by an amortized
// sweep, never by a background goroutine.
//
// Keys are usually built with [StableKey], which hashes the
// identifying parts with BLAKE3 so that the store holds fixed-size
// keys regardless of how long tenant or trace identifiers are.
package dedupe
