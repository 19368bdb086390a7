// Package executor hands a routed command to the component that performs it.
package executor

import (
	"context"
	"sort"

	"github.com/go-ports/stencil/internal/config"
)

// Request describes one routed invocation.
type Request struct {
	Command string          `json:"command"`
	Args    []string        `json:"args"`
	Options map[string]bool `json:"options"`
	Runtime *config.Runtime `json:"runtime"`
}

// Executor performs a routed command.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

// Func adapts an ordinary function to Executor.
type Func func(ctx context.Context, req Request) error

// Execute implements Executor.
func (f Func) Execute(ctx context.Context, req Request) error { return f(ctx, req) }

// Flags renders the options that are set as --name arguments, sorted by name.
func (r Request) Flags() []string {
	names := make([]string, 0, len(r.Options))
	for name, on := range r.Options {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	flags := make([]string, len(names))
	for i, name := range names {
		flags[i] = "--" + name
	}
	return flags
}
