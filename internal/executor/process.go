package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-ports/stencil/internal/buildinfo"
	"github.com/go-ports/stencil/internal/logging"
)

// EnvRequest carries the JSON-encoded Request to the plugin.
const EnvRequest = "STENCIL_REQUEST"

// Process runs each command as a plugin executable named
// "<binary>-<command>", waiting for it to finish.
type Process struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *logging.Logger

	// LookPath resolves a plugin name on $PATH; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// NewProcess returns a Process attached to the current terminal.
func NewProcess(log *logging.Logger) *Process {
	return &Process{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Log:      log,
		LookPath: exec.LookPath,
	}
}

// PluginName returns the executable name serving command.
func PluginName(command string) string {
	return buildinfo.Name + "-" + command
}

// Resolve finds the plugin for req. A target path wins over the working
// directory's plugins folder, which wins over $PATH.
func (p *Process) Resolve(req Request) (string, error) {
	name := PluginName(req.Command)
	if rt := req.Runtime; rt != nil {
		if rt.TargetPath != "" {
			path := filepath.Join(rt.TargetPath, name)
			if !isFile(path) {
				return "", fmt.Errorf("executor: %s not found in target path %s", name, rt.TargetPath)
			}
			return path, nil
		}
		if rt.WorkingDir != "" {
			path := filepath.Join(rt.WorkingDir, "plugins", name)
			if isFile(path) {
				return path, nil
			}
		}
	}
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("executor: no plugin for command %q: %w", req.Command, err)
	}
	return path, nil
}

// Execute implements Executor.
func (p *Process) Execute(ctx context.Context, req Request) error {
	path, err := p.Resolve(req)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("executor: encode request: %w", err)
	}

	args := append(append([]string{}, req.Args...), req.Flags()...)
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204 -- plugin path is resolved from trusted locations
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	cmd.Env = append(os.Environ(), EnvRequest+"="+string(payload))
	if req.Runtime != nil {
		cmd.Env = append(cmd.Env, req.Runtime.Environ()...)
	}

	if p.Log != nil {
		p.Log.Verbose("executing plugin", "command", req.Command, "path", path)
	}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s %s: exited with status %d", buildinfo.Name, req.Command, exitErr.ExitCode())
		}
		return fmt.Errorf("%s %s: %w", buildinfo.Name, req.Command, err)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
