// Package bootstrap runs the preparation pipeline: the fixed sequence of
// checks that must pass before any command is routed.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ports/stencil/internal/buildinfo"
	"github.com/go-ports/stencil/internal/cache"
	"github.com/go-ports/stencil/internal/config"
	"github.com/go-ports/stencil/internal/logging"
	"github.com/go-ports/stencil/internal/privilege"
	"github.com/go-ports/stencil/internal/registry"
	"github.com/go-ports/stencil/internal/update"
)

// Step names, in execution order.
const (
	StepPrintBanner      = "print-banner"
	StepReportVersion    = "report-version"
	StepEnforcePrivilege = "enforce-privilege"
	StepVerifyHome       = "verify-home"
	StepBuildConfig      = "load-overrides-and-build-config"
	StepCheckForUpdate   = "check-for-update"
)

// Pipeline holds the collaborators of the preparation steps. The zero value
// is not usable; start from New and replace fields as needed.
type Pipeline struct {
	Out      io.Writer
	Log      *logging.Logger
	Name     string
	Version  string
	Package  string
	HomeDir  func() (string, error)
	Identity privilege.Identity
	Getenv   config.Lookup
	Registry func(rt *config.Runtime) update.Registry

	home string
	rt   *config.Runtime
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// New returns a Pipeline wired to the real process: its home directory,
// identity, environment, and the configured package registry.
func New(out io.Writer, log *logging.Logger) *Pipeline {
	return &Pipeline{
		Out:      out,
		Log:      log,
		Name:     buildinfo.Name,
		Version:  buildinfo.Version,
		Package:  buildinfo.Package,
		HomeDir:  config.HomeDir,
		Identity: privilege.System(),
		Getenv:   os.LookupEnv,
		Registry: DefaultRegistry(log),
	}
}

func (p *Pipeline) steps() []step {
	return []step{
		{StepPrintBanner, p.printBanner},
		{StepReportVersion, p.reportVersion},
		{StepEnforcePrivilege, p.enforcePrivilege},
		{StepVerifyHome, p.verifyHome},
		{StepBuildConfig, p.buildConfig},
		{StepCheckForUpdate, p.checkForUpdate},
	}
}

// Run executes every step in order and returns the runtime environment.
// The first failing step ends the run; its error is returned as is.
func (p *Pipeline) Run(ctx context.Context) (*config.Runtime, error) {
	p.home, p.rt = "", nil
	for _, s := range p.steps() {
		p.Log.Verbose("bootstrap", "step", s.name)
		if err := s.run(ctx); err != nil {
			p.Log.Verbose("bootstrap aborted", "step", s.name)
			return nil, err
		}
	}
	return p.rt, nil
}

// ---------------------------------------------------------------------------
// Steps
// ---------------------------------------------------------------------------

// printBanner never stops startup; a stdout that cannot be written to is
// only worth a verbose line.
func (p *Pipeline) printBanner(_ context.Context) error {
	if err := PrintBanner(p.Out); err != nil {
		p.Log.Verbose("banner not printed", "err", err)
	}
	return nil
}

func (p *Pipeline) reportVersion(_ context.Context) error {
	ReportVersion(p.Log, p.Name, p.Version)
	return nil
}

func (p *Pipeline) enforcePrivilege(_ context.Context) error {
	getenv := func(key string) string {
		v, _ := p.Getenv(key)
		return v
	}
	dropped, err := privilege.Drop(p.Identity, getenv)
	if err != nil {
		return ErrorPrivilegeDrop(err)
	}
	if dropped {
		p.Log.Verbose("dropped root privileges")
	}
	return nil
}

func (p *Pipeline) verifyHome(_ context.Context) error {
	home, lookupErr := p.HomeDir()
	if err := VerifyHome(home, lookupErr); err != nil {
		return err
	}
	p.home = home
	return nil
}

func (p *Pipeline) buildConfig(_ context.Context) error {
	lookup := p.Getenv
	overrides, err := config.LoadOverrides(p.home)
	if err != nil {
		p.Log.Warn("ignoring overrides file", "err", err)
	} else {
		if len(overrides) > 0 {
			p.Log.Verbose("loaded overrides", "keys", strings.Join(overrides.Keys(), ","))
		}
		lookup = overrides.Over(p.Getenv)
	}

	rt := config.BuildRuntime(p.home, lookup)
	if level, ok := logging.ParseLevel(rt.LogLevel); ok {
		p.Log.SetLevel(level)
	} else {
		p.Log.Warn("unknown log level", "level", rt.LogLevel)
	}
	rt.LogLevel = logging.LevelName(p.Log.Level())

	cfgPath := filepath.Join(rt.WorkingDir, "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		p.Log.Warn("ignoring config file", "path", cfgPath, "err", err)
		cfg = config.Default()
	}
	if u, ok := lookup(config.EnvRegistry); ok && strings.TrimSpace(u) != "" {
		cfg.Registry.URL = strings.TrimSpace(u)
	}
	rt.Config = cfg

	p.Log.Verbose("runtime", "home", rt.HomeDir, "workingDir", rt.WorkingDir, "source", rt.WorkingDirSource, "registry", cfg.Registry.URL)
	p.rt = rt
	return nil
}

func (p *Pipeline) checkForUpdate(ctx context.Context) error {
	if !p.rt.Config.Update.Check {
		p.Log.Verbose("update check disabled")
		return nil
	}
	if !update.Checkable(p.Version) {
		p.Log.Verbose("update check skipped", "version", p.Version)
		return nil
	}

	reg := p.Registry(p.rt)
	if c, ok := reg.(io.Closer); ok {
		defer c.Close()
	}
	chk := &update.Checker{Registry: reg, Log: p.Log}
	info, err := chk.Check(ctx, p.Version, p.Package)
	if err != nil {
		return err
	}
	chk.Warn(info)
	return nil
}

// ---------------------------------------------------------------------------
// Guards
// ---------------------------------------------------------------------------

// ReportVersion logs the tool name and version.
func ReportVersion(log *logging.Logger, name, version string) {
	log.Info(fmt.Sprintf("%s %s", name, version))
}

// VerifyHome checks that home is known and is an existing directory.
// lookupErr is the error, if any, from resolving home in the first place.
func VerifyHome(home string, lookupErr error) error {
	if lookupErr != nil || home == "" {
		return ErrorUserHomeNotExists("", lookupErr)
	}
	info, err := os.Stat(home)
	if err != nil {
		return ErrorUserHomeNotExists(home, err)
	}
	if !info.IsDir() {
		return ErrorUserHomeNotExists(home, errors.New("not a directory"))
	}
	return nil
}

// DefaultRegistry returns a factory for the registry named by a runtime's
// config: an HTTP client, fronted by the on-disk cache when a cache TTL is
// set and the cache can be opened.
func DefaultRegistry(log *logging.Logger) func(rt *config.Runtime) update.Registry {
	return func(rt *config.Runtime) update.Registry {
		client := registry.New(rt.Config.Registry.URL, rt.Config.Registry.Timeout)
		if rt.Config.Update.CacheTTL <= 0 {
			return client
		}
		db, err := cache.Open(filepath.Join(rt.WorkingDir, cache.FileName))
		if err != nil {
			log.Verbose("update cache unavailable", "err", err)
			return client
		}
		return cache.NewRegistry(client, db, rt.Config.Update.CacheTTL, log)
	}
}
