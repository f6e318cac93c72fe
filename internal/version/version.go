// Package version reports the build version of the DiscoJar tools.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/discojar/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/discojar/internal/version.Commit=abc1234"
//
// Unset values come from the VCS stamp in the build info, then fall back to
// "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	// If not set via ldflags, try the build info
	if Version == "" || Commit == "" {
		info, ok := debug.ReadBuildInfo()
		if ok {
			fromSettings(info.Settings)
		}
	}

	// Final fallback if we still don't have values
	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromSettings fills Version and Commit from the vcs.* build settings.
func fromSettings(settings []debug.BuildSetting) {
	// Look for VCS settings
	var revision, modified, stamp string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			stamp = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision
		// Use short hash (first 7 characters)
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		// Mark as dirty if modified
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	// Build info carries no tags, so released builds rely on ldflags.
	if Version == "" && stamp != "" {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Short returns the version without a leading "v", as advertised in mDNS
// TXT records.
func Short() string {
	return strings.TrimPrefix(Version, "v")
}
