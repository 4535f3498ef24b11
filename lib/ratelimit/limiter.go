// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"sync"
	"time"

	"github.com/bureau-foundation/jobgate/lib/clock"
)

// SweepInterval is the number of Check calls between stale-key
// sweeps.
const SweepInterval = 256

// Result is the outcome of a rate-limit check.
type Result struct {
	// Allowed is true when the call fit in the current window.
	Allowed bool

	// Count is the number of calls counted in the current window,
	// including this one when allowed.
	Count int

	// Remaining is how many more calls the window admits.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time
}

type window struct {
	count    int
	start    time.Time
	duration time.Duration
}

func (w *window) expired(now time.Time) bool {
	return now.Sub(w.start) >= w.duration
}

// Limiter is a concurrency-safe fixed-window counter store.
type Limiter struct {
	clock clock.Clock

	mu         sync.Mutex
	windows    map[string]*window
	sinceSweep int
}

// New creates an empty Limiter reading time from clock.
func New(clock clock.Clock) *Limiter {
	return &Limiter{
		clock:   clock,
		windows: make(map[string]*window),
	}
}

// Check counts one call against key. A max <= 0 blocks every call.
func (l *Limiter) Check(key string, max int, duration time.Duration) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sinceSweep++
	if l.sinceSweep >= SweepInterval {
		l.sweepLocked(now)
	}

	entry, exists := l.windows[key]
	if !exists || entry.expired(now) {
		if max <= 0 {
			return Result{ResetAt: now.Add(duration)}
		}
		entry = &window{count: 1, start: now, duration: duration}
		l.windows[key] = entry
		return Result{
			Allowed:   true,
			Count:     1,
			Remaining: max - 1,
			ResetAt:   now.Add(duration),
		}
	}

	resetAt := entry.start.Add(entry.duration)
	if entry.count < max {
		entry.count++
		return Result{
			Allowed:   true,
			Count:     entry.count,
			Remaining: max - entry.count,
			ResetAt:   resetAt,
		}
	}
	return Result{Count: entry.count, ResetAt: resetAt}
}

// Peek reports what Check would return without counting the call.
// Dry-run evaluations use it so that simulation never spends budget.
func (l *Limiter) Peek(key string, max int, duration time.Duration) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.windows[key]
	if !exists || entry.expired(now) {
		if max <= 0 {
			return Result{ResetAt: now.Add(duration)}
		}
		return Result{Allowed: true, Count: 1, Remaining: max - 1, ResetAt: now.Add(duration)}
	}
	resetAt := entry.start.Add(entry.duration)
	if entry.count < max {
		return Result{Allowed: true, Count: entry.count + 1, Remaining: max - entry.count - 1, ResetAt: resetAt}
	}
	return Result{Count: entry.count, ResetAt: resetAt}
}

// Sweep removes every expired window and returns how many were
// removed. Check calls it automatically; the gate's optional janitor
// calls it on a ticker.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(now)
}

func (l *Limiter) sweepLocked(now time.Time) int {
	l.sinceSweep = 0
	removed := 0
	for key, entry := range l.windows {
		if entry.expired(now) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Reset drops every window.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*window)
	l.sinceSweep = 0
}
