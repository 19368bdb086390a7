// Package update decides whether a newer release of the tool has been
// published on the current major line.
package update

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/go-ports/stencil/internal/logging"
)

// Registry lists the versions a package has been published under.
type Registry interface {
	Versions(ctx context.Context, pkg string) ([]string, error)
}

// Info is the outcome of one update check.
type Info struct {
	Package   string
	Current   string
	Latest    string
	HasLatest bool
}

// canonical turns "1.2.3" or "v1.2.3" into the "v"-prefixed form semver
// expects. ok is false for anything that is not a full semantic version;
// the shorthands "v1" and "v1.2" that semver.IsValid accepts are rejected.
func canonical(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	base, _, _ := strings.Cut(v, "+")
	return v, semver.Canonical(v) == base
}

// Newest returns the greatest version in versions that is valid, has the
// same major version as current, is not a prerelease, and is strictly
// greater than current. ok is false when none qualifies or current is not
// a valid version.
func Newest(current string, versions []string) (latest string, ok bool) {
	cur, valid := canonical(current)
	if !valid {
		return "", false
	}
	best := cur
	for _, raw := range versions {
		v, valid := canonical(raw)
		if !valid || semver.Prerelease(v) != "" || semver.Major(v) != semver.Major(cur) {
			continue
		}
		if semver.Compare(v, best) > 0 {
			best, latest = v, raw
		}
	}
	return latest, latest != ""
}

// Checker runs the update check against a registry.
type Checker struct {
	Registry Registry
	Log      *logging.Logger
}

// Check fetches the published versions of pkg and reports the newest
// compatible one. A current version that is not valid semver (development
// builds) is reported as up to date without contacting the registry.
// Registry errors are returned to the caller.
func (c *Checker) Check(ctx context.Context, current, pkg string) (Info, error) {
	info := Info{Package: pkg, Current: current}
	if _, ok := canonical(current); !ok {
		c.Log.Verbose("update check skipped", "version", current)
		return info, nil
	}
	versions, err := c.Registry.Versions(ctx, pkg)
	if err != nil {
		return info, err
	}
	info.Latest, info.HasLatest = Newest(current, versions)
	return info, nil
}

// Warn logs a single warning when info names a newer version.
func (c *Checker) Warn(info Info) {
	if !info.HasLatest {
		return
	}
	c.Log.Warn("a newer version of "+info.Package+" is available",
		"current", info.Current,
		"latest", info.Latest,
	)
}

// Checkable reports whether version is a release the registry can be
// compared against.
func Checkable(version string) bool {
	_, ok := canonical(version)
	return ok
}
