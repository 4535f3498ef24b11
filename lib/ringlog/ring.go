// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ringlog

import "sync"

// Ring is a circular buffer of records. New writes overwrite the
// oldest record once capacity is reached.
type Ring[T any] struct {
	mutex    sync.Mutex
	records  []T
	capacity int
	// writePosition is the next slot to write once the buffer has
	// wrapped. Unused while len(records) < capacity.
	writePosition int
	// totalWritten counts every record ever appended, so callers can
	// tell how many were dropped.
	totalWritten uint64
}

// NewRing creates a ring holding at most capacity records. A capacity
// <= 0 makes the ring unbounded.
func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{capacity: capacity}
}

// Append adds a record, evicting the oldest when full.
func (ring *Ring[T]) Append(record T) {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	ring.appendLocked(record)
}

func (ring *Ring[T]) appendLocked(record T) {
	ring.totalWritten++
	if ring.capacity <= 0 || len(ring.records) < ring.capacity {
		ring.records = append(ring.records, record)
		return
	}
	ring.records[ring.writePosition] = record
	ring.writePosition = (ring.writePosition + 1) % ring.capacity
}

// Snapshot returns the retained records oldest first.
func (ring *Ring[T]) Snapshot() []T {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.snapshotLocked()
}

func (ring *Ring[T]) snapshotLocked() []T {
	result := make([]T, 0, len(ring.records))
	if ring.capacity > 0 && len(ring.records) == ring.capacity {
		result = append(result, ring.records[ring.writePosition:]...)
		result = append(result, ring.records[:ring.writePosition]...)
		return result
	}
	return append(result, ring.records...)
}

// Newest returns up to limit of the most recent records matching keep,
// oldest first. A limit <= 0 returns every match. keep may be nil.
func (ring *Ring[T]) Newest(limit int, keep func(T) bool) []T {
	ring.mutex.Lock()
	ordered := ring.snapshotLocked()
	ring.mutex.Unlock()

	var matched []T
	for index := len(ordered) - 1; index >= 0; index-- {
		if keep != nil && !keep(ordered[index]) {
			continue
		}
		matched = append(matched, ordered[index])
		if limit > 0 && len(matched) == limit {
			break
		}
	}
	// Collected newest first; restore insertion order.
	for left, right := 0, len(matched)-1; left < right; left, right = left+1, right-1 {
		matched[left], matched[right] = matched[right], matched[left]
	}
	return matched
}

// Len returns the number of retained records.
func (ring *Ring[T]) Len() int {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return len(ring.records)
}

// Dropped returns how many records were overwritten.
func (ring *Ring[T]) Dropped() uint64 {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.totalWritten - uint64(len(ring.records))
}

// Reset discards every record.
func (ring *Ring[T]) Reset() {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	ring.records = nil
	ring.writePosition = 0
	ring.totalWritten = 0
}
