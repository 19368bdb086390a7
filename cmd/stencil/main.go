package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"

	rootcmd "github.com/go-ports/stencil/cmd/stencil/root"
	"github.com/go-ports/stencil/cmd/stencil/shared"
	"github.com/go-ports/stencil/internal/bootstrap"
	"github.com/go-ports/stencil/internal/config"
	"github.com/go-ports/stencil/internal/executor"
	"github.com/go-ports/stencil/internal/logging"
)

func main() {
	os.Exit(runMain(newApp(), os.Args[1:]))
}

// app is one invocation of the CLI: the preparation pipeline followed by the
// command router.
type app struct {
	stdout   io.Writer
	log      *logging.Logger
	pipeline *bootstrap.Pipeline
	executor executor.Executor
}

func newApp() *app {
	level, _ := logging.ParseLevel(os.Getenv(config.EnvLogLevel))
	log := logging.New(os.Stderr, level)
	slog.SetDefault(log.Logger)
	return &app{
		stdout:   os.Stdout,
		log:      log,
		pipeline: bootstrap.New(os.Stdout, log),
		executor: executor.NewProcess(log),
	}
}

// runMain is the only place that decides the exit code. Errors and panics
// from anything below it are logged and turn into status 1.
func runMain(a *app, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error(fmt.Sprintf("panic: %v", r), "stack", string(debug.Stack()))
			code = 1
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := a.run(ctx, args); err != nil {
		a.log.Error(err.Error())
		return 1
	}
	return 0
}

func (a *app) run(ctx context.Context, args []string) error {
	rt, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	sc := &shared.Context{Runtime: rt, Log: a.log, Executor: a.executor}
	root := rootcmd.New(sc)
	root.SetOut(a.stdout)
	return rootcmd.Execute(ctx, root, args)
}
