// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses 5-field cron expressions for trigger schedules
// and computes upcoming fire times.
//
//	minute (0-59)  hour (0-23)  day-of-month (1-31)  month (1-12 or JAN-DEC)  day-of-week (0-6 or SUN-SAT)
//
// Each field accepts values, ranges (1-5), lists (1,3,5), steps
// (*/15, 1-30/5), and the wildcard. The descriptors @yearly,
// @annually, @monthly, @weekly, @daily, @midnight, and @hourly are
// accepted as shorthand. When both day fields are restricted, a day
// matches if either field does (Vixie cron semantics).
//
// Schedules are evaluated in UTC. A [Schedule] implements
// encoding.TextUnmarshaler so configuration files can carry the
// expression as a plain string.
package cron
