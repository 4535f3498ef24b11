// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/jobgate/lib/clock"
)

var epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestStore_HasSetLifecycle(t *testing.T) {
	fake := clock.Fake(epoch)
	store := New(fake)
	key := StableKey("tenant-a", "evt-1", "type")

	if store.Has(key, time.Hour) {
		t.Fatal("first Has should report unseen")
	}
	store.Set(key, time.Hour)

	if !store.Has(key, time.Hour) {
		t.Fatal("immediate repeat should report duplicate")
	}

	fake.Advance(time.Hour)
	if store.Has(key, time.Hour) {
		t.Fatal("after TTL elapses the key should be unseen again")
	}
}

func TestStore_HasDoesNotRefresh(t *testing.T) {
	fake := clock.Fake(epoch)
	store := New(fake)
	store.Set("k", time.Minute)

	fake.Advance(50 * time.Second)
	if !store.Has("k", time.Minute) {
		t.Fatal("key should still be present at 50s")
	}
	fake.Advance(10 * time.Second)
	if store.Has("k", time.Minute) {
		t.Fatal("repeat Has must not extend the TTL")
	}
}

func TestStore_MismatchedTTLs(t *testing.T) {
	t.Run("longer check ttl stops at the set ttl", func(t *testing.T) {
		fake := clock.Fake(epoch)
		store := New(fake)
		store.Set("k", time.Minute)

		fake.Advance(30 * time.Second)
		if !store.Has("k", time.Hour) {
			t.Fatal("key should be present inside its set ttl")
		}
		fake.Advance(time.Minute)
		if store.Has("k", time.Hour) {
			t.Fatal("Has counted an entry past the ttl it was set with")
		}
		store.Set("other", time.Minute)
		fake.Advance(2 * time.Minute)
		if store.Sweep() != 1 || store.Has("other", time.Hour) {
			t.Error("sweep and Has disagree about an expired entry")
		}
	})

	t.Run("shorter check ttl keeps the entry", func(t *testing.T) {
		fake := clock.Fake(epoch)
		store := New(fake)
		store.Set("k", time.Hour)

		fake.Advance(2 * time.Minute)
		if store.Has("k", time.Minute) {
			t.Fatal("key older than the check ttl reported as seen")
		}
		if store.Len() != 1 || !store.Has("k", time.Hour) {
			t.Error("a short check ttl evicted an unexpired entry")
		}
	})
}

func TestStore_HasWithoutSetRecordsNothing(t *testing.T) {
	store := New(clock.Fake(epoch))
	store.Has("k", time.Minute)
	store.Has("k", time.Minute)
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestStore_CheckAndSetConcurrent(t *testing.T) {
	store := New(clock.Fake(epoch))
	var firsts atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !store.CheckAndSet("evt", time.Hour) {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()
	if firsts.Load() != 1 {
		t.Errorf("CheckAndSet reported unseen %d times, want 1", firsts.Load())
	}
}

func TestStore_SweepKeepsUnexpired(t *testing.T) {
	fake := clock.Fake(epoch)
	store := New(fake)
	store.Set("short", time.Second)
	store.Set("long", time.Hour)

	fake.Advance(time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if !store.Has("long", time.Hour) {
		t.Error("unexpired entry was evicted")
	}
}

func TestStore_DefaultTTL(t *testing.T) {
	fake := clock.Fake(epoch)
	store := New(fake)
	store.Set("k", 0)
	fake.Advance(DefaultTTL - time.Second)
	if !store.Has("k", 0) {
		t.Error("entry should live for DefaultTTL")
	}
}

func TestStore_Reset(t *testing.T) {
	store := New(clock.Fake(epoch))
	store.Set("k", time.Hour)
	store.Reset()
	if store.Has("k", time.Hour) {
		t.Error("Reset should drop entries")
	}
}

func TestStableKey(t *testing.T) {
	a := StableKey("ab", "c")
	b := StableKey("a", "bc")
	if a == b {
		t.Error("length prefixing should separate part boundaries")
	}
	if StableKey("x", "y") != StableKey("x", "y") {
		t.Error("StableKey must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}
