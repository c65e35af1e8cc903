// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time. When left at their defaults, the VCS
// stamp the Go toolchain embeds is used instead.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"

	// Version is set by hand for releases.
	Version = "0.1.0-dev"
)

// build is the version information of the running binary.
type build struct {
	commit string
	dirty  bool
	time   string
}

// current resolves the ldflags variables, falling back to settings
// from the embedded build info.
func current() build {
	return resolve(GitCommit, GitDirty, BuildTime, readSettings())
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	return settings
}

func resolve(commit, dirty, buildTime string, settings map[string]string) build {
	result := build{commit: commit, dirty: dirty == "true", time: buildTime}
	if commit != "unknown" {
		return result
	}
	if revision := settings["vcs.revision"]; revision != "" {
		result.commit = revision[:min(len(revision), 12)]
		result.dirty = settings["vcs.modified"] == "true"
	}
	if result.time == "unknown" && settings["vcs.time"] != "" {
		result.time = settings["vcs.time"]
	}
	return result
}

// Info returns "<version> (<commit>[-dirty], <build time>)" for
// --version output.
func Info() string {
	return current().format()
}

func (b build) format() string {
	dirty := ""
	if b.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, b.commit, dirty, b.time)
}

// Print writes the full --version output for the binary called name.
func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		name, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
