package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/go-ports/stencil/internal/bootstrap"
	"github.com/go-ports/stencil/internal/config"
	"github.com/go-ports/stencil/internal/logging"
	"github.com/go-ports/stencil/internal/registry"
	"github.com/go-ports/stencil/internal/update"
)

// fakeRegistry returns a fixed version list or error.
type fakeRegistry struct {
	versions []string
	err      error
	calls    int
}

func (f *fakeRegistry) Versions(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.versions, f.err
}

// rootIdentity pretends to be root and records the uid it was dropped to.
type rootIdentity struct {
	euid   int
	failed bool
}

func (r *rootIdentity) Geteuid() int            { return r.euid }
func (r *rootIdentity) Setgroups(_ []int) error { return nil }
func (r *rootIdentity) Setgid(_ int) error      { return nil }
func (r *rootIdentity) Setuid(uid int) error {
	if r.failed {
		return errors.New("operation not permitted")
	}
	r.euid = uid
	return nil
}

// brokenWriter fails every write, like a closed stdout.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("write /dev/stdout: broken pipe")
}

// lookupOf returns a config.Lookup backed by m.
func lookupOf(m map[string]string) config.Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// harness bundles a pipeline with its captured output.
type harness struct {
	p   *bootstrap.Pipeline
	out *bytes.Buffer
	log *bytes.Buffer
	reg *fakeRegistry
}

// newHarness returns a pipeline rooted at home with a fake registry and a
// verbose logger so the executed steps are visible.
func newHarness(t *testing.T, home string, env map[string]string) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}, log: &bytes.Buffer{}, reg: &fakeRegistry{}}
	log := logging.New(h.log, logging.LevelVerbose)
	if env == nil {
		env = map[string]string{config.EnvLogLevel: "verbose"}
	}
	h.p = bootstrap.New(h.out, log)
	h.p.Version = "1.2.0"
	h.p.HomeDir = func() (string, error) { return home, nil }
	h.p.Identity = nil
	h.p.Getenv = lookupOf(env)
	h.p.Registry = func(*config.Runtime) update.Registry { return h.reg }
	return h
}

// stepsRun returns the step names logged by the pipeline, in order.
func stepsRun(log string) []string {
	var steps []string
	for _, line := range strings.Split(log, "\n") {
		if i := strings.Index(line, "bootstrap step="); i >= 0 {
			steps = append(steps, strings.TrimSpace(line[i+len("bootstrap step="):]))
		}
	}
	return steps
}

// ---------------------------------------------------------------------------
// Pipeline.Run
// ---------------------------------------------------------------------------

func TestRun_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("all steps run in order and build the runtime", func(c *qt.C) {
		home := c.TempDir()
		h := newHarness(t, home, nil)

		rt, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(rt, qt.IsNotNil)
		c.Assert(rt.HomeDir, qt.Equals, home)
		c.Assert(rt.WorkingDir, qt.Equals, filepath.Join(home, ".stencil"))
		c.Assert(stepsRun(h.log.String()), qt.DeepEquals, []string{
			bootstrap.StepPrintBanner,
			bootstrap.StepReportVersion,
			bootstrap.StepEnforcePrivilege,
			bootstrap.StepVerifyHome,
			bootstrap.StepBuildConfig,
			bootstrap.StepCheckForUpdate,
		})
		c.Assert(h.out.String(), qt.Contains, "|___/")
		c.Assert(h.log.String(), qt.Contains, "stencil 1.2.0")
		c.Assert(h.reg.calls, qt.Equals, 1)
	})

	c.Run("unwritable stdout does not stop startup", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		h.p.Out = brokenWriter{}

		rt, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(rt, qt.IsNotNil)
		c.Assert(stepsRun(h.log.String()), qt.HasLen, 6)
		c.Assert(h.log.String(), qt.Contains, "banner not printed")
		c.Assert(h.log.String(), qt.Contains, "broken pipe")
	})

	c.Run("newer version produces one warning", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		h.reg.versions = []string{"1.2.0", "1.3.1", "2.0.0"}

		_, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(strings.Count(h.log.String(), "WARN"), qt.Equals, 1)
		c.Assert(h.log.String(), qt.Contains, "latest=1.3.1")
	})

	c.Run("current version produces no warning", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		h.reg.versions = []string{"1.0.0", "1.2.0"}

		_, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(h.log.String(), qt.Not(qt.Contains), "WARN")
	})

	c.Run("overrides file feeds the runtime and the log level", func(c *qt.C) {
		home := c.TempDir()
		content := "STENCIL_HOME=.stencil-beta\nSTENCIL_LOG_LEVEL=warn\n"
		c.Assert(os.WriteFile(filepath.Join(home, ".stencil.env"), []byte(content), 0o600), qt.IsNil)
		h := newHarness(t, home, map[string]string{})

		rt, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(rt.WorkingDir, qt.Equals, filepath.Join(home, ".stencil-beta"))
		c.Assert(rt.WorkingDirSource, qt.Equals, "env")
		c.Assert(rt.LogLevel, qt.Equals, "warn")
	})

	c.Run("config file and registry variable are applied", func(c *qt.C) {
		home := c.TempDir()
		wd := filepath.Join(home, ".stencil")
		c.Assert(os.MkdirAll(wd, 0o755), qt.IsNil)
		c.Assert(os.WriteFile(filepath.Join(wd, "config.yaml"), []byte("update:\n  cache_ttl: 0\n"), 0o600), qt.IsNil)
		h := newHarness(t, home, map[string]string{config.EnvRegistry: "https://npm.example.com"})

		rt, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(rt.Config.Registry.URL, qt.Equals, "https://npm.example.com")
		c.Assert(rt.Config.Update.CacheTTL, qt.Equals, time.Duration(0))
	})

	c.Run("disabled update check never asks the registry", func(c *qt.C) {
		home := c.TempDir()
		wd := filepath.Join(home, ".stencil")
		c.Assert(os.MkdirAll(wd, 0o755), qt.IsNil)
		c.Assert(os.WriteFile(filepath.Join(wd, "config.yaml"), []byte("update:\n  check: false\n"), 0o600), qt.IsNil)
		h := newHarness(t, home, nil)

		_, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(h.reg.calls, qt.Equals, 0)
	})

	c.Run("development build skips the registry", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		h.p.Version = "dev"

		_, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(h.reg.calls, qt.Equals, 0)
	})

	c.Run("root identity is dropped before the home check", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), map[string]string{"SUDO_UID": "1000"})
		id := &rootIdentity{euid: 0}
		h.p.Identity = id

		_, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(id.euid, qt.Equals, 1000)
		c.Assert(h.log.String(), qt.Contains, "dropped root privileges")
	})
}

func TestRun_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("missing home stops before the config step", func(c *qt.C) {
		h := newHarness(t, filepath.Join(c.TempDir(), "gone"), nil)

		rt, err := h.p.Run(context.Background())
		c.Assert(rt, qt.IsNil)
		c.Assert(serum.Code(err), qt.Equals, bootstrap.CodeUserHomeNotExists)
		c.Assert(stepsRun(h.log.String()), qt.DeepEquals, []string{
			bootstrap.StepPrintBanner,
			bootstrap.StepReportVersion,
			bootstrap.StepEnforcePrivilege,
			bootstrap.StepVerifyHome,
		})
		c.Assert(h.reg.calls, qt.Equals, 0)
	})

	c.Run("unresolvable home stops the pipeline", func(c *qt.C) {
		h := newHarness(t, "", nil)
		h.p.HomeDir = func() (string, error) { return "", errors.New("$HOME is not defined") }

		rt, err := h.p.Run(context.Background())
		c.Assert(rt, qt.IsNil)
		c.Assert(serum.Code(err), qt.Equals, bootstrap.CodeUserHomeNotExists)
		c.Assert(h.reg.calls, qt.Equals, 0)
	})

	c.Run("failed privilege drop is fatal", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		h.p.Identity = &rootIdentity{euid: 0, failed: true}

		rt, err := h.p.Run(context.Background())
		c.Assert(rt, qt.IsNil)
		c.Assert(serum.Code(err), qt.Equals, bootstrap.CodePrivilegeDrop)
	})

	c.Run("registry failure propagates", func(c *qt.C) {
		h := newHarness(t, c.TempDir(), nil)
		boom := errors.New("registry unreachable")
		h.reg.err = boom

		rt, err := h.p.Run(context.Background())
		c.Assert(rt, qt.IsNil)
		c.Assert(err, qt.Equals, boom)
	})

	c.Run("malformed overrides file only warns", func(c *qt.C) {
		home := c.TempDir()
		c.Assert(os.WriteFile(filepath.Join(home, ".stencil.env"), []byte("not an assignment\n"), 0o600), qt.IsNil)
		h := newHarness(t, home, nil)

		rt, err := h.p.Run(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(rt, qt.IsNotNil)
		c.Assert(h.log.String(), qt.Contains, "ignoring overrides file")
	})
}

// ---------------------------------------------------------------------------
// VerifyHome
// ---------------------------------------------------------------------------

func TestVerifyHome_HappyPath(t *testing.T) {
	c := qt.New(t)
	c.Assert(bootstrap.VerifyHome(c.TempDir(), nil), qt.IsNil)
}

func TestVerifyHome_FailurePath(t *testing.T) {
	c := qt.New(t)

	file := filepath.Join(c.TempDir(), "file")
	c.Assert(os.WriteFile(file, []byte("x"), 0o600), qt.IsNil)

	tests := []struct {
		name      string
		home      string
		lookupErr error
	}{
		{"unknown home", "", nil},
		{"lookup error", "/home/ada", errors.New("no passwd entry")},
		{"missing directory", filepath.Join(c.TempDir(), "missing"), nil},
		{"regular file", file, nil},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			err := bootstrap.VerifyHome(tt.home, tt.lookupErr)
			c.Assert(serum.Code(err), qt.Equals, bootstrap.CodeUserHomeNotExists)
		})
	}
}

// ---------------------------------------------------------------------------
// DefaultRegistry
// ---------------------------------------------------------------------------

func TestDefaultRegistry_HappyPath(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"versions":{"1.0.0":{}}}`))
	}))
	defer srv.Close()

	c.Run("zero cache TTL returns the plain client", func(c *qt.C) {
		rt := config.BuildRuntime(c.TempDir(), lookupOf(nil))
		rt.Config.Registry.URL = srv.URL
		rt.Config.Update.CacheTTL = 0

		reg := bootstrap.DefaultRegistry(logging.New(&bytes.Buffer{}, logging.LevelInfo))(rt)
		_, ok := reg.(*registry.Client)
		c.Assert(ok, qt.IsTrue)
	})

	c.Run("cached registry stores its database in the working directory", func(c *qt.C) {
		rt := config.BuildRuntime(c.TempDir(), lookupOf(nil))
		rt.Config.Registry.URL = srv.URL

		reg := bootstrap.DefaultRegistry(logging.New(&bytes.Buffer{}, logging.LevelInfo))(rt)
		got, err := reg.Versions(context.Background(), "stencil")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, []string{"1.0.0"})
		if closer, ok := reg.(interface{ Close() error }); ok {
			c.Assert(closer.Close(), qt.IsNil)
		}

		_, err = os.Stat(filepath.Join(rt.WorkingDir, "state.db"))
		c.Assert(err, qt.IsNil)
	})
}
