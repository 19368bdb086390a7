package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/subosito/gotenv"
)

// Environment variables read or exported by the bootstrap layer.
const (
	EnvHome       = "STENCIL_HOME"        // working directory name, relative to the home directory
	EnvHomePath   = "STENCIL_HOME_PATH"   // derived working directory, exported to plugins
	EnvLogLevel   = "STENCIL_LOG_LEVEL"   // verbose | info | warn | error
	EnvTargetPath = "STENCIL_TARGET_PATH" // local plugin directory, exported to plugins
	EnvRegistry   = "STENCIL_REGISTRY"    // registry base URL
)

const (
	// DefaultDirName is the working directory name used when STENCIL_HOME is unset.
	DefaultDirName = ".stencil"
	// OverridesFile is the dotenv file in the home directory loaded at startup.
	OverridesFile = ".stencil.env"
)

// Lookup reports the value of a setting and whether it is present.
type Lookup func(key string) (string, bool)

// Runtime is the environment every command runs in. It is built once by the
// preparation pipeline and handed to the router and the executor.
type Runtime struct {
	HomeDir          string      `json:"homeDir"`
	WorkingDir       string      `json:"workingDir"`
	WorkingDirSource string      `json:"workingDirSource"` // "env" or "default"
	LogLevel         string      `json:"logLevel"`
	TargetPath       string      `json:"targetPath,omitempty"`
	Config           *ToolConfig `json:"-"`
}

// HomeDir returns the caller's home directory.
func HomeDir() (string, error) {
	return homedir.Dir()
}

// BuildRuntime derives the working directory from home and the STENCIL_HOME
// override. An override that is empty, absolute, or escapes home falls back
// to DefaultDirName, so WorkingDir is always inside HomeDir.
func BuildRuntime(home string, lookup Lookup) *Runtime {
	rt := &Runtime{
		HomeDir:          home,
		WorkingDir:       filepath.Join(home, DefaultDirName),
		WorkingDirSource: "default",
		LogLevel:         "info",
		Config:           Default(),
	}
	if name, ok := lookup(EnvHome); ok && validDirName(name) {
		rt.WorkingDir = filepath.Join(home, strings.TrimSpace(name))
		rt.WorkingDirSource = "env"
	}
	if lvl, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(lvl) != "" {
		rt.LogLevel = strings.ToLower(strings.TrimSpace(lvl))
	}
	if tp, ok := lookup(EnvTargetPath); ok {
		rt.TargetPath = tp
	}
	return rt
}

func validDirName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) {
		return false
	}
	clean := filepath.Clean(name)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// Environ returns the runtime as KEY=VALUE pairs for child processes.
func (r *Runtime) Environ() []string {
	env := []string{
		EnvHomePath + "=" + r.WorkingDir,
		EnvLogLevel + "=" + r.LogLevel,
	}
	if r.TargetPath != "" {
		env = append(env, EnvTargetPath+"="+r.TargetPath)
	}
	return env
}

// ---------------------------------------------------------------------------
// Overrides file
// ---------------------------------------------------------------------------

// Overrides holds the key/value pairs read from the overrides file.
type Overrides map[string]string

// LoadOverrides reads home/.stencil.env. A missing file yields empty
// overrides and no error.
func LoadOverrides(home string) (Overrides, error) {
	path := filepath.Join(home, OverridesFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config.LoadOverrides: %w", err)
	}
	env, err := gotenv.StrictParse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config.LoadOverrides %s: %w", path, err)
	}
	return Overrides(env), nil
}

// Keys returns the override names in sorted order.
func (o Overrides) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Over layers the overrides beneath base: a key set in base wins, the
// overrides file only fills gaps.
func (o Overrides) Over(base Lookup) Lookup {
	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := o[key]
		return v, ok
	}
}
