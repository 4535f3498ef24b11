// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policytoken

import (
	"sync"
	"time"
)

// ReplaySweepInterval is the number of Consume calls between cleanup
// passes.
const ReplaySweepInterval = 64

// ReplaySet is a thread-safe set of redeemed single-use tokens. Each
// entry is kept until the token's own expiry: after that, Verify
// rejects the token as EXPIRED regardless, so remembering it is
// unnecessary.
type ReplaySet struct {
	mu           sync.Mutex
	consumed     map[string]time.Time
	sinceCleanup int
}

// NewReplaySet creates an empty set.
func NewReplaySet() *ReplaySet {
	return &ReplaySet{consumed: make(map[string]time.Time)}
}

// Consume records token as used. Returns false if it was already
// recorded. The check and the record happen under one lock, so two
// concurrent redemptions of the same token cannot both succeed.
func (r *ReplaySet) Consume(token string, tokenExpiresAt, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.consumed[token]; exists {
		return false
	}
	r.consumed[token] = tokenExpiresAt

	r.sinceCleanup++
	if r.sinceCleanup >= ReplaySweepInterval {
		r.cleanupLocked(now)
	}
	return true
}

// IsConsumed reports whether token was recorded.
func (r *ReplaySet) IsConsumed(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.consumed[token]
	return exists
}

// Cleanup removes entries whose token expired before now. Expiry is
// checked at second granularity with the same "exp < now" rule as
// verification, so an entry is never dropped while its token could
// still verify.
func (r *ReplaySet) Cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleanupLocked(now)
}

func (r *ReplaySet) cleanupLocked(now time.Time) int {
	r.sinceCleanup = 0
	removed := 0
	for token, expiresAt := range r.consumed {
		if expiresAt.Unix() < now.Unix() {
			delete(r.consumed, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of recorded tokens.
func (r *ReplaySet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consumed)
}

// Reset forgets every redemption.
func (r *ReplaySet) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed = make(map[string]time.Time)
	r.sinceCleanup = 0
}
