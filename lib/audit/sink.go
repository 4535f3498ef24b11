// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"log/slog"
	"sort"
)

// Sink receives each entry after it is recorded. Record is called
// synchronously on the evaluating goroutine and must not block;
// sinks that ship entries elsewhere should queue internally.
type Sink interface {
	Record(entry Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(entry Entry)

// Record calls f(entry).
func (f SinkFunc) Record(entry Entry) { f(entry) }

// MultiSink forwards each entry to every sink in order.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(entry Entry) {
	for _, sink := range m {
		sink.Record(entry)
	}
}

// SlogSink writes each entry as one structured log line. Denials and
// errors log at Warn, allows at Info.
type SlogSink struct {
	Logger *slog.Logger
}

// Record implements Sink.
func (s SlogSink) Record(entry Entry) {
	if s.Logger == nil {
		return
	}
	level := slog.LevelInfo
	if entry.Decision != Allow {
		level = slog.LevelWarn
	}

	attributes := []slog.Attr{
		slog.String("id", entry.ID),
		slog.String("tenant_id", entry.TenantID),
		slog.String("action", entry.Action),
		slog.String("decision", string(entry.Decision)),
	}
	if entry.ActorID != "" {
		attributes = append(attributes, slog.String("actor_id", entry.ActorID))
	}
	if entry.Resource != "" {
		attributes = append(attributes, slog.String("resource", entry.Resource))
	}
	if entry.Reason != "" {
		attributes = append(attributes, slog.String("reason", entry.Reason))
	}
	if len(entry.Metadata) > 0 {
		keys := make([]string, 0, len(entry.Metadata))
		for key := range entry.Metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		metadata := make([]any, 0, len(keys))
		for _, key := range keys {
			metadata = append(metadata, slog.Any(key, entry.Metadata[key]))
		}
		attributes = append(attributes, slog.Group("metadata", metadata...))
	}
	s.Logger.LogAttrs(context.Background(), level, "audit", attributes...)
}
