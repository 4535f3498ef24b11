// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/jobgate/lib/clock"
	"github.com/bureau-foundation/jobgate/lib/redact"
	"github.com/bureau-foundation/jobgate/lib/ringlog"
)

// DefaultCapacity is the number of entries retained when Options
// leaves Capacity unset.
const DefaultCapacity = 10000

// Options configures a Log.
type Options struct {
	Enabled  bool
	Capacity int
	Clock    clock.Clock
	Sinks    []Sink
}

// Log is the bounded decision ledger. A nil *Log behaves like a
// disabled one.
type Log struct {
	enabled bool
	clock   clock.Clock
	ring    *ringlog.Ring[Entry]

	sinkMutex sync.RWMutex
	sinks     []Sink
}

// New constructs a Log.
func New(options Options) *Log {
	capacity := options.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logClock := options.Clock
	if logClock == nil {
		logClock = clock.Real()
	}
	return &Log{
		enabled: options.Enabled,
		clock:   logClock,
		ring:    ringlog.NewRing[Entry](capacity),
		sinks:   append([]Sink(nil), options.Sinks...),
	}
}

// Enabled reports whether Write records anything.
func (l *Log) Enabled() bool {
	return l != nil && l.enabled
}

// AddSink registers a sink for subsequent writes.
func (l *Log) AddSink(sink Sink) {
	l.sinkMutex.Lock()
	defer l.sinkMutex.Unlock()
	l.sinks = append(l.sinks, sink)
}

// Write records entry and returns the stored copy. When the log is
// disabled it returns the zero Entry and does nothing else.
func (l *Log) Write(entry Entry) Entry {
	if !l.Enabled() {
		return Entry{}
	}

	entry.ID = uuid.NewString()
	entry.Timestamp = l.clock.Now()
	entry.Metadata = redact.Map(entry.Metadata)
	l.ring.Append(entry)

	l.sinkMutex.RLock()
	sinks := l.sinks
	l.sinkMutex.RUnlock()
	for _, sink := range sinks {
		sink.Record(entry)
	}
	return entry
}

// Query returns the newest filter.Limit entries for tenantID that
// match filter, in insertion order. An empty tenantID matches every
// tenant.
func (l *Log) Query(tenantID string, filter Filter) []Entry {
	if l == nil {
		return nil
	}
	return l.ring.Newest(filter.Limit, func(entry Entry) bool {
		if tenantID != "" && entry.TenantID != tenantID {
			return false
		}
		return filter.matches(entry)
	})
}

// Snapshot returns every retained entry oldest first.
func (l *Log) Snapshot() []Entry {
	if l == nil {
		return nil
	}
	return l.ring.Snapshot()
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return l.ring.Len()
}

// Dropped returns how many entries were evicted to stay in capacity.
func (l *Log) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.ring.Dropped()
}

// Reset discards every entry. Sinks are kept.
func (l *Log) Reset() {
	if l == nil {
		return
	}
	l.ring.Reset()
}
