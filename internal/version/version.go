// Package version reports the triage release embedded at build time.
package version

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the release from the VERSION file, or "dev" if it is empty.
func Get() string {
	if v := strings.TrimSpace(versionContent); v != "" {
		return v
	}
	return "dev"
}

// Full returns the release followed by the VCS revision when the binary
// was built from a checkout, e.g. "0.1.0 (3f2a9c1, modified)".
func Full() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Get()
	}
	return Get() + revisionSuffix(info.Settings)
}

func revisionSuffix(settings []debug.BuildSetting) string {
	var rev string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		return " (" + rev + ", modified)"
	}
	return " (" + rev + ")"
}
