// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dedupe

import (
	"sync"
	"time"

	"github.com/bureau-foundation/jobgate/lib/clock"
)

// SweepInterval is the number of Set calls between expiry sweeps.
const SweepInterval = 128

// DefaultTTL is the replay window used when callers pass ttl <= 0.
const DefaultTTL = 24 * time.Hour

// entry records when a key was set and when it stops counting.
type entry struct {
	setAt     time.Time
	expiresAt time.Time
}

// Store is a concurrency-safe TTL set.
type Store struct {
	clock clock.Clock

	mu         sync.Mutex
	entries    map[string]entry
	sinceSweep int
}

// New creates an empty Store reading time from clock.
func New(clock clock.Clock) *Store {
	return &Store{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Has reports whether key was set within ttl of now and is still
// inside the ttl it was Set with. The stored expiry also drives
// eviction, so Has never counts an entry a sweep may remove. Entries
// past their stored expiry are removed.
func (s *Store) Has(key string, ttl time.Duration) bool {
	ttl = normalize(ttl)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasLocked(key, ttl, now)
}

func (s *Store) hasLocked(key string, ttl time.Duration, now time.Time) bool {
	existing, exists := s.entries[key]
	if !exists {
		return false
	}
	if !now.Before(existing.expiresAt) {
		delete(s.entries, key)
		return false
	}
	return now.Sub(existing.setAt) < ttl
}

// Set records key as seen now for ttl.
func (s *Store) Set(key string, ttl time.Duration) {
	ttl = normalize(ttl)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, ttl, now)
}

func (s *Store) setLocked(key string, ttl time.Duration, now time.Time) {
	s.entries[key] = entry{setAt: now, expiresAt: now.Add(ttl)}
	s.sinceSweep++
	if s.sinceSweep >= SweepInterval {
		s.sweepLocked(now)
	}
}

// CheckAndSet reports whether key was already seen within ttl and, if
// it was not, records it. The check and the record happen under one
// lock so two concurrent callers cannot both observe "unseen".
func (s *Store) CheckAndSet(key string, ttl time.Duration) (duplicate bool) {
	ttl = normalize(ttl)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasLocked(key, ttl, now) {
		return true
	}
	s.setLocked(key, ttl, now)
	return false
}

// Sweep removes every expired entry and returns how many were
// removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	s.sinceSweep = 0
	removed := 0
	for key, existing := range s.entries {
		if !now.Before(existing.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored keys, including any expired ones
// not yet evicted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	s.sinceSweep = 0
}

func normalize(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
