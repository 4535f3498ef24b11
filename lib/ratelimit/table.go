// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import "time"

// Rule is a maximum number of calls per window.
type Rule struct {
	Max    int           `yaml:"max" json:"max"`
	Window time.Duration `yaml:"window" json:"window"`
}

// IsZero reports whether the rule is unset. An unset rule means "no
// limit", not "block everything".
func (r Rule) IsZero() bool {
	return r.Max == 0 && r.Window == 0
}

// Table maps job types and tool names to rules, with an optional
// default for names not listed. A Table is read-only after
// construction.
type Table struct {
	Default Rule            `yaml:"default" json:"default"`
	Rules   map[string]Rule `yaml:"rules" json:"rules"`
}

// Lookup returns the rule for name, falling back to the default. ok
// is false when neither is set.
func (t Table) Lookup(name string) (rule Rule, ok bool) {
	if rule, exists := t.Rules[name]; exists && !rule.IsZero() {
		return rule, true
	}
	if !t.Default.IsZero() {
		return t.Default, true
	}
	return Rule{}, false
}
