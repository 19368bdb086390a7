// Package shared holds the context passed to all CLI commands.
package shared

import (
	"github.com/go-ports/stencil/internal/config"
	"github.com/go-ports/stencil/internal/executor"
	"github.com/go-ports/stencil/internal/logging"
)

// GlobalOptions are the flags declared on the root command.
type GlobalOptions struct {
	Debug      bool
	TargetPath string

	// DebugSet and TargetPathSet record whether the flag appeared on the
	// command line at all.
	DebugSet      bool
	TargetPathSet bool
}

// Context carries global CLI state from the preparation pipeline into every
// command.
type Context struct {
	Options  GlobalOptions
	Runtime  *config.Runtime
	Log      *logging.Logger
	Executor executor.Executor
}
