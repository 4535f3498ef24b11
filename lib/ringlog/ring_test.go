// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ringlog

import (
	"slices"
	"sync"
	"testing"
)

func TestRing_DropsOldest(t *testing.T) {
	ring := NewRing[int](3)
	for value := 1; value <= 5; value++ {
		ring.Append(value)
	}
	if got := ring.Snapshot(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("Snapshot = %v, want [3 4 5]", got)
	}
	if ring.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", ring.Dropped())
	}
}

func TestRing_Unbounded(t *testing.T) {
	ring := NewRing[int](0)
	for value := range 1000 {
		ring.Append(value)
	}
	if ring.Len() != 1000 || ring.Dropped() != 0 {
		t.Errorf("Len=%d Dropped=%d", ring.Len(), ring.Dropped())
	}
}

func TestRing_Newest(t *testing.T) {
	ring := NewRing[int](5)
	for value := 1; value <= 8; value++ {
		ring.Append(value)
	}
	// Retained: 4..8.
	if got := ring.Newest(2, nil); !slices.Equal(got, []int{7, 8}) {
		t.Errorf("Newest(2) = %v, want [7 8]", got)
	}
	even := func(value int) bool { return value%2 == 0 }
	if got := ring.Newest(0, even); !slices.Equal(got, []int{4, 6, 8}) {
		t.Errorf("Newest(0, even) = %v, want [4 6 8]", got)
	}
	if got := ring.Newest(2, even); !slices.Equal(got, []int{6, 8}) {
		t.Errorf("Newest(2, even) = %v, want [6 8]", got)
	}
}

func TestRing_Reset(t *testing.T) {
	ring := NewRing[string](2)
	ring.Append("a")
	ring.Append("b")
	ring.Append("c")
	ring.Reset()
	if ring.Len() != 0 || ring.Dropped() != 0 {
		t.Error("Reset should clear records and counters")
	}
	ring.Append("d")
	if got := ring.Snapshot(); !slices.Equal(got, []string{"d"}) {
		t.Errorf("Snapshot after Reset = %v", got)
	}
}

func TestRing_ConcurrentAppend(t *testing.T) {
	ring := NewRing[int](100)
	var wg sync.WaitGroup
	for worker := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for value := range 50 {
				ring.Append(worker*100 + value)
			}
		}()
	}
	wg.Wait()
	if ring.Len() != 100 || ring.Dropped() != 400 {
		t.Errorf("Len=%d Dropped=%d, want 100/400", ring.Len(), ring.Dropped())
	}
}

func TestKeyed_IsolatesKeys(t *testing.T) {
	log := NewKeyed[string](2)
	log.Append("tenant-a", "a1")
	log.Append("tenant-a", "a2")
	log.Append("tenant-a", "a3")
	log.Append("tenant-b", "b1")

	if got := log.List("tenant-a"); !slices.Equal(got, []string{"a2", "a3"}) {
		t.Errorf("tenant-a = %v", got)
	}
	if got := log.List("tenant-b"); !slices.Equal(got, []string{"b1"}) {
		t.Errorf("tenant-b = %v", got)
	}
	if log.List("tenant-c") != nil || log.Count("tenant-c") != 0 {
		t.Error("unknown key should be empty")
	}
	if got := log.Keys(); !slices.Equal(got, []string{"tenant-a", "tenant-b"}) {
		t.Errorf("Keys = %v", got)
	}

	log.ResetKey("tenant-a")
	if log.Count("tenant-a") != 0 || log.Count("tenant-b") != 1 {
		t.Error("ResetKey should only clear one key")
	}
	log.Reset()
	if len(log.Keys()) != 0 {
		t.Error("Reset should clear every key")
	}
}
