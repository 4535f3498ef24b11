// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression. The zero Schedule is empty:
// IsZero reports true and Next always fails.
type Schedule struct {
	expression string

	minutes     bits
	hours       bits
	daysOfMonth bits
	months      bits
	daysOfWeek  bits

	// Whether the day fields were written as "*". Governs the
	// day-of-month/day-of-week OR rule.
	anyDayOfMonth bool
	anyDayOfWeek  bool
}

type bits uint64

func (b bits) has(value int) bool { return b&(1<<uint(value)) != 0 }

type field struct {
	name     string
	minimum  int
	maximum  int
	aliases  map[string]int
	wildcard *bool
}

var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var dayNames = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
}

var descriptors = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// searchHorizon bounds Next so impossible dates (Feb 30) terminate.
const searchHorizon = 5 * 366 * 24 * time.Hour

// Parse parses expression.
func Parse(expression string) (Schedule, error) {
	trimmed := strings.TrimSpace(expression)
	expanded := trimmed
	if strings.HasPrefix(trimmed, "@") {
		replacement, known := descriptors[strings.ToLower(trimmed)]
		if !known {
			return Schedule{}, fmt.Errorf("cron: unknown descriptor %q", trimmed)
		}
		expanded = replacement
	}

	parts := strings.Fields(expanded)
	if len(parts) != 5 {
		return Schedule{}, fmt.Errorf("cron: expected 5 fields, got %d", len(parts))
	}

	schedule := Schedule{expression: trimmed}
	fields := []struct {
		spec   field
		target *bits
	}{
		{field{name: "minute", minimum: 0, maximum: 59}, &schedule.minutes},
		{field{name: "hour", minimum: 0, maximum: 23}, &schedule.hours},
		{field{name: "day-of-month", minimum: 1, maximum: 31, wildcard: &schedule.anyDayOfMonth}, &schedule.daysOfMonth},
		{field{name: "month", minimum: 1, maximum: 12, aliases: monthNames}, &schedule.months},
		{field{name: "day-of-week", minimum: 0, maximum: 6, aliases: dayNames, wildcard: &schedule.anyDayOfWeek}, &schedule.daysOfWeek},
	}
	for index, entry := range fields {
		set, err := entry.spec.parse(parts[index])
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", entry.spec.name, err)
		}
		*entry.target = set
	}
	return schedule, nil
}

// MustParse is Parse for expressions known at compile time.
func MustParse(expression string) Schedule {
	schedule, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return schedule
}

// String returns the expression as written.
func (s Schedule) String() string { return s.expression }

// IsZero reports whether s was never parsed.
func (s Schedule) IsZero() bool { return s.minutes == 0 }

// MarshalText returns the expression.
func (s Schedule) MarshalText() ([]byte, error) {
	return []byte(s.expression), nil
}

// UnmarshalText parses text into s. Empty text yields the zero
// Schedule.
func (s *Schedule) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*s = Schedule{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Next returns the first matching minute strictly after t, in UTC.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	if s.IsZero() {
		return time.Time{}, fmt.Errorf("cron: empty schedule")
	}

	candidate := t.UTC().Truncate(time.Minute).Add(time.Minute)
	limit := candidate.Add(searchHorizon)

	for candidate.Before(limit) {
		year, month, day := candidate.Date()
		switch {
		case !s.months.has(int(month)):
			candidate = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
		case !s.dayMatches(candidate):
			candidate = time.Date(year, month, day+1, 0, 0, 0, 0, time.UTC)
		case !s.hours.has(candidate.Hour()):
			candidate = time.Date(year, month, day, candidate.Hour()+1, 0, 0, 0, time.UTC)
		case !s.minutes.has(candidate.Minute()):
			candidate = candidate.Add(time.Minute)
		default:
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("cron: %q never matches after %s", s.expression, t.UTC().Format(time.RFC3339))
}

// Upcoming returns up to count successive fire times after t.
func (s Schedule) Upcoming(t time.Time, count int) []time.Time {
	var times []time.Time
	for range count {
		next, err := s.Next(t)
		if err != nil {
			break
		}
		times = append(times, next)
		t = next
	}
	return times
}

func (s Schedule) dayMatches(t time.Time) bool {
	dayOfMonth := s.daysOfMonth.has(t.Day())
	dayOfWeek := s.daysOfWeek.has(int(t.Weekday()))
	if !s.anyDayOfMonth && !s.anyDayOfWeek {
		return dayOfMonth || dayOfWeek
	}
	return dayOfMonth && dayOfWeek
}

func (f field) parse(text string) (bits, error) {
	if f.wildcard != nil {
		*f.wildcard = strings.HasPrefix(text, "*")
	}
	var set bits
	for _, term := range strings.Split(text, ",") {
		termBits, err := f.parseTerm(term)
		if err != nil {
			return 0, err
		}
		set |= termBits
	}
	return set, nil
}

func (f field) parseTerm(term string) (bits, error) {
	rangeText, stepText, stepped := strings.Cut(term, "/")
	step := 1
	if stepped {
		parsed, err := strconv.Atoi(stepText)
		if err != nil || parsed <= 0 {
			return 0, fmt.Errorf("step %q must be a positive integer", stepText)
		}
		step = parsed
	}

	var low, high int
	switch {
	case rangeText == "*":
		low, high = f.minimum, f.maximum
	case strings.Contains(rangeText, "-"):
		lowText, highText, _ := strings.Cut(rangeText, "-")
		var err error
		if low, err = f.value(lowText); err != nil {
			return 0, err
		}
		if high, err = f.value(highText); err != nil {
			return 0, err
		}
		if low > high {
			return 0, fmt.Errorf("range %d-%d is inverted", low, high)
		}
	default:
		value, err := f.value(rangeText)
		if err != nil {
			return 0, err
		}
		low, high = value, value
		// "5/15" means starting at 5 through the maximum.
		if stepped {
			high = f.maximum
		}
	}

	var set bits
	for value := low; value <= high; value += step {
		set |= 1 << uint(value)
	}
	return set, nil
}

func (f field) value(text string) (int, error) {
	if alias, ok := f.aliases[strings.ToUpper(text)]; ok {
		return alias, nil
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", text)
	}
	if value < f.minimum || value > f.maximum {
		return 0, fmt.Errorf("value %d out of range [%d-%d]", value, f.minimum, f.maximum)
	}
	return value, nil
}
