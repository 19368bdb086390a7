// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

// Name is the binary name; Package is the name the tool is published under.
const (
	Name    = "stencil"
	Package = "stencil"
)

// Populated by -ldflags at build time; defaults used for local dev.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)
