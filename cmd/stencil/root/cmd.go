// Package rootcmd wires the root cobra.Command for the stencil CLI binary.
package rootcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/stencil/cmd/stencil/shared"
	"github.com/go-ports/stencil/internal/buildinfo"
	"github.com/go-ports/stencil/internal/executor"
	"github.com/go-ports/stencil/internal/logging"
)

// New creates and returns the root cobra.Command for the stencil CLI.
// sc must carry a Runtime, a Log, and an Executor.
func New(sc *shared.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           buildinfo.Name + " <command> [options]",
		Short:         "stencil: scaffold, publish and clean template projects",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		// Flags meant for an unknown command must not hide its warnings.
		// Subcommands keep strict parsing.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyGlobalOptions(cmd, sc)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			warnUnknown(sc.Log, args[0])
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Name + " version {{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.BoolVarP(&sc.Options.Debug, flagDebug, "d", false, "Show verbose output")
	pf.StringVar(&sc.Options.TargetPath, flagTargetPath, "", "Run commands from a local plugin directory (-tp)")

	for _, entry := range Commands {
		root.AddCommand(newCommand(sc, entry))
	}
	return root
}

// Execute runs root with args, after expanding multi-letter aliases.
func Execute(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(ExpandAliases(args))
	return root.ExecuteContext(ctx)
}

// newCommand registers one table entry. Its action hands the parsed
// invocation to the executor unchanged.
func newCommand(sc *shared.Context, entry CommandSpec) *cobra.Command {
	values := make(map[string]*bool, len(entry.Options))
	cmd := &cobra.Command{
		Use:   entry.Use,
		Short: entry.Short,
		Args:  cobra.MaximumNArgs(entry.MaxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := executor.Request{
				Command: entry.Name,
				Args:    append([]string{}, args...),
				Options: make(map[string]bool, len(values)),
				Runtime: sc.Runtime,
			}
			for name, v := range values {
				req.Options[name] = *v
			}
			sc.Log.Verbose("dispatch", "command", entry.Name, "args", strings.Join(req.Args, " "))
			return sc.Executor.Execute(cmd.Context(), req)
		},
	}

	f := cmd.Flags()
	for _, o := range entry.Options {
		values[o.Name] = new(bool)
		short, usage := o.Alias, o.Usage
		if len(o.Alias) > 1 {
			short, usage = "", fmt.Sprintf("%s (-%s)", o.Usage, o.Alias)
		}
		f.BoolVarP(values[o.Name], o.Name, short, false, usage)
	}
	return cmd
}

// applyGlobalOptions inspects the parsed root flags once and applies them to
// the logger and the runtime. Flags that were not supplied change nothing.
func applyGlobalOptions(cmd *cobra.Command, sc *shared.Context) {
	flags := cmd.Flags()
	sc.Options.DebugSet = flags.Changed(flagDebug)
	sc.Options.TargetPathSet = flags.Changed(flagTargetPath)

	if sc.Options.DebugSet {
		level := logging.LevelInfo
		if sc.Options.Debug {
			level = logging.LevelVerbose
		}
		sc.Log.SetLevel(level)
		sc.Runtime.LogLevel = logging.LevelName(level)
	}
	if sc.Options.TargetPathSet {
		sc.Runtime.TargetPath = sc.Options.TargetPath
		sc.Log.Verbose("using local plugins", "path", sc.Options.TargetPath)
	}
}

func warnUnknown(log *logging.Logger, token string) {
	log.Warn(fmt.Sprintf("unknown command %q", token))
	if names := commandNames(); len(names) > 0 {
		log.Warn("available commands: " + strings.Join(names, ", "))
	}
}
