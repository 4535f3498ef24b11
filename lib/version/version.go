// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/bureau-foundation/jobgate/lib/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	Dirty     = "false"
	BuildTime = "unknown"
)

// Build is resolved build information.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Read resolves build information, preferring injected values over
// the toolchain's embedded VCS settings.
func Read() Build {
	build := Build{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}
	return fillFromSettings(build, info.Settings)
}

func fillFromSettings(build Build, settings []debug.BuildSetting) Build {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if build.Commit == "unknown" && setting.Value != "" {
				build.Commit = setting.Value
				if len(build.Commit) > 12 {
					build.Commit = build.Commit[:12]
				}
			}
		case "vcs.time":
			if build.BuildTime == "unknown" && setting.Value != "" {
				build.BuildTime = setting.Value
			}
		case "vcs.modified":
			if Dirty != "true" && setting.Value == "true" {
				build.Dirty = true
			}
		}
	}
	return build
}

// String formats b for --version output.
func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.BuildTime)
}

// Info returns the one-line version string.
func Info() string {
	return Read().String()
}

// Full returns Info plus the Go version and platform.
func Full() string {
	build := Read()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", build, build.GoVersion, build.Platform)
}
