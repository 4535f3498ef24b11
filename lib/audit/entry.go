// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import "time"

// Decision is the outcome recorded in an Entry.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
	// Error records an evaluation that could not complete, such as a
	// misconfigured trigger.
	Error Decision = "error"
)

// Entry is one audit record. ID and Timestamp are assigned by
// [Log.Write]; anything the caller puts there is overwritten.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id"`
	ActorID   string         `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource,omitempty"`
	Decision  Decision       `json:"decision"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Filter selects entries in [Log.Query]. Zero fields match anything.
type Filter struct {
	// From and To bound Timestamp inclusively.
	From time.Time
	To   time.Time

	Action   string
	Decision Decision

	// Limit caps the result to the newest Limit matches. Zero or
	// negative returns every match.
	Limit int
}

func (f Filter) matches(entry Entry) bool {
	if !f.From.IsZero() && entry.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && entry.Timestamp.After(f.To) {
		return false
	}
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	if f.Decision != "" && entry.Decision != f.Decision {
		return false
	}
	return true
}
