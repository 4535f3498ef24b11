// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestBuildString(t *testing.T) {
	build := Build{Version: "1.2.3", Commit: "abc1234", BuildTime: "2026-01-02T03:04:05Z"}
	if got, want := build.String(), "1.2.3 (abc1234, 2026-01-02T03:04:05Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	build.Dirty = true
	if got := build.String(); !strings.Contains(got, "abc1234-dirty") {
		t.Errorf("String() = %q, want dirty marker", got)
	}
}

func TestFillFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	build := fillFromSettings(Build{Commit: "unknown", BuildTime: "unknown"}, settings)
	if build.Commit != "0123456789ab" || build.BuildTime != "2026-03-04T05:06:07Z" || !build.Dirty {
		t.Errorf("build = %+v", build)
	}

	injected := fillFromSettings(Build{Commit: "feedbee", BuildTime: "then"}, settings)
	if injected.Commit != "feedbee" || injected.BuildTime != "then" {
		t.Errorf("injected values overwritten: %+v", injected)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Version) || !strings.Contains(full, "Go: go") {
		t.Errorf("Full() = %q", full)
	}
}
