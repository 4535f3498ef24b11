// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"strings"
)

// Level is a tenant's automation ceiling. Levels are ordered: a
// higher Level permits everything a lower one does.
type Level int

const (
	ObserveOnly Level = iota
	RecommendOnly
	ExecuteNonAction
	ExecuteAction
)

var levelNames = [...]string{
	ObserveOnly:      "OBSERVE_ONLY",
	RecommendOnly:    "RECOMMEND_ONLY",
	ExecuteNonAction: "EXECUTE_NON_ACTION",
	ExecuteAction:    "EXECUTE_ACTION",
}

// String returns the canonical upper-snake-case name.
func (l Level) String() string {
	if l < ObserveOnly || l > ExecuteAction {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= ObserveOnly && l <= ExecuteAction
}

// AtLeast reports whether l permits everything required does.
func (l Level) AtLeast(required Level) bool {
	return l >= required
}

// ParseLevel accepts the canonical name in any case, with hyphens or
// underscores.
func ParseLevel(text string) (Level, error) {
	normalized := normalizeName(text)
	for level, name := range levelNames {
		if name == normalized {
			return Level(level), nil
		}
	}
	return 0, fmt.Errorf("unknown automation level %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid automation level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Category classifies a job type by its blast radius.
type Category int

const (
	Read Category = iota
	Analyze
	Recommend
	Notify
	Action
)

var categoryNames = [...]string{
	Read:      "READ",
	Analyze:   "ANALYZE",
	Recommend: "RECOMMEND",
	Notify:    "NOTIFY",
	Action:    "ACTION",
}

func (c Category) String() string {
	if c < Read || c > Action {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// RequiredLevel is the minimum automation level for jobs in c.
func (c Category) RequiredLevel() Level {
	switch c {
	case Read, Analyze:
		return ObserveOnly
	case Recommend, Notify:
		return RecommendOnly
	case Action:
		return ExecuteAction
	default:
		// Unknown categories demand the highest level.
		return ExecuteAction
	}
}

// ParseCategory accepts the canonical name in any case.
func ParseCategory(text string) (Category, error) {
	normalized := normalizeName(text)
	for category, name := range categoryNames {
		if name == normalized {
			return Category(category), nil
		}
	}
	return 0, fmt.Errorf("unknown job category %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < Read || c > Action {
		return nil, fmt.Errorf("invalid job category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func normalizeName(text string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(text)), "-", "_")
}
