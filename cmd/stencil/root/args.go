package rootcmd

import "strings"

// ExpandAliases rewrites multi-letter short options such as -tp or -rs into
// their long forms. pflag only accepts single-letter shorthands, so these
// have to be rewritten before cobra sees them. Everything after a bare "--"
// is left alone, as are the options of other subcommands.
func ExpandAliases(args []string) []string {
	out := make([]string, 0, len(args))
	aliases := globalAliases
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if entry, ok := lookupCommand(arg); ok && len(out) == countFlags(out) {
			aliases = mergeAliases(entry)
		}
		out = append(out, expand(arg, aliases))
	}
	return out
}

func expand(arg string, aliases map[string]string) string {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return arg
	}
	name, value, hasValue := strings.Cut(arg[1:], "=")
	if len(name) < 2 {
		return arg
	}
	long, ok := aliases[name]
	if !ok {
		return arg
	}
	if hasValue {
		return "--" + long + "=" + value
	}
	return "--" + long
}

// mergeAliases returns the global aliases plus those of entry.
func mergeAliases(entry CommandSpec) map[string]string {
	m := make(map[string]string, len(globalAliases)+len(entry.Options))
	for k, v := range globalAliases {
		m[k] = v
	}
	for _, o := range entry.Options {
		if len(o.Alias) > 1 {
			m[o.Alias] = o.Name
		}
	}
	return m
}

// countFlags reports how many leading entries of args are flags, counting a
// flag's separate value as part of it.
func countFlags(args []string) int {
	n := 0
	for n < len(args) {
		arg := args[n]
		if !strings.HasPrefix(arg, "-") {
			return n
		}
		n++
		if arg == "--"+flagTargetPath && n < len(args) {
			n++
		}
	}
	return n
}
