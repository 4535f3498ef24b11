// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ringlog

import (
	"sort"
	"sync"
)

// Keyed holds an independent Ring per key.
type Keyed[T any] struct {
	capacity int

	mutex sync.RWMutex
	rings map[string]*Ring[T]
}

// NewKeyed creates a Keyed log whose rings each hold capacity
// records (<= 0 for unbounded).
func NewKeyed[T any](capacity int) *Keyed[T] {
	return &Keyed[T]{
		capacity: capacity,
		rings:    make(map[string]*Ring[T]),
	}
}

func (k *Keyed[T]) ring(key string) *Ring[T] {
	k.mutex.RLock()
	ring, exists := k.rings[key]
	k.mutex.RUnlock()
	if exists {
		return ring
	}

	k.mutex.Lock()
	defer k.mutex.Unlock()
	if ring, exists = k.rings[key]; !exists {
		ring = NewRing[T](k.capacity)
		k.rings[key] = ring
	}
	return ring
}

// Append adds record to key's ring.
func (k *Keyed[T]) Append(key string, record T) {
	k.ring(key).Append(record)
}

// List returns key's records oldest first. An unknown key returns
// nil without creating a ring.
func (k *Keyed[T]) List(key string) []T {
	k.mutex.RLock()
	ring, exists := k.rings[key]
	k.mutex.RUnlock()
	if !exists {
		return nil
	}
	return ring.Snapshot()
}

// Count returns the number of records retained for key.
func (k *Keyed[T]) Count(key string) int {
	k.mutex.RLock()
	ring, exists := k.rings[key]
	k.mutex.RUnlock()
	if !exists {
		return 0
	}
	return ring.Len()
}

// Keys returns every key with a ring, sorted.
func (k *Keyed[T]) Keys() []string {
	k.mutex.RLock()
	defer k.mutex.RUnlock()
	keys := make([]string, 0, len(k.rings))
	for key := range k.rings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResetKey discards key's records.
func (k *Keyed[T]) ResetKey(key string) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	delete(k.rings, key)
}

// Reset discards every ring.
func (k *Keyed[T]) Reset() {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.rings = make(map[string]*Ring[T])
}
