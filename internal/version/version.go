// Package version holds the build version of echosrv.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/0xa1bed0/echosrv/internal/version.Version=1.2.3"
var Version = "0.1.0-dev"

// Get returns the normalized build version.
func Get() string {
	return Normalize(Version)
}

// Normalize turns any semver-looking string into its canonical "vX.Y.Z"
// form. Strings that do not parse are returned trimmed but unchanged.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	v, err := semver.NewVersion(raw)
	if err != nil {
		return raw
	}
	return "v" + v.String()
}

// IsPrerelease reports whether raw is a valid semver with a prerelease
// suffix such as "-dev" or "-rc.1".
func IsPrerelease(raw string) bool {
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return v.Prerelease() != ""
}
