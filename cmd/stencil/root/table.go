package rootcmd

// OptionSpec declares one boolean option of a subcommand. Alias is the short
// form without its leading dash; aliases longer than one letter are expanded
// by ExpandAliases before parsing.
type OptionSpec struct {
	Name  string
	Alias string
	Usage string
}

// CommandSpec declares one subcommand routed to the executor.
type CommandSpec struct {
	Name    string
	Use     string
	Short   string
	MaxArgs int
	Options []OptionSpec
}

// Commands is the fixed set of subcommands, in help order.
var Commands = []CommandSpec{
	{
		Name:    "init",
		Use:     "init [projectName]",
		Short:   "Create a new project from a template",
		MaxArgs: 1,
		Options: []OptionSpec{
			{Name: "force", Alias: "f", Usage: "Overwrite an existing project directory"},
		},
	},
	{
		Name:  "go",
		Use:   "go",
		Short: "Publish the current project",
		Options: []OptionSpec{
			{Name: "refreshServer", Alias: "rs", Usage: "Pick the publishing server again"},
			{Name: "refreshToken", Alias: "rt", Usage: "Ask for a new access token"},
			{Name: "refreshOwner", Alias: "ro", Usage: "Pick the owning account again"},
			{Name: "release", Alias: "re", Usage: "Publish a release instead of a preview"},
			{Name: "force", Alias: "f", Usage: "Publish even if the project has not changed"},
		},
	},
	{
		Name:  "clean",
		Use:   "clean",
		Short: "Remove cached templates and build output",
		Options: []OptionSpec{
			{Name: "all", Alias: "a", Usage: "Also remove the shared template cache"},
			{Name: "dep", Usage: "Also remove installed dependencies"},
		},
	},
}

// Global flag names.
const (
	flagDebug      = "debug"
	flagTargetPath = "targetPath"
)

// globalAliases are the multi-letter short forms of root flags.
var globalAliases = map[string]string{
	"tp": flagTargetPath,
}

// lookupCommand returns the table entry named name.
func lookupCommand(name string) (CommandSpec, bool) {
	for _, entry := range Commands {
		if entry.Name == name {
			return entry, true
		}
	}
	return CommandSpec{}, false
}

// commandNames lists the declared subcommand names in table order.
func commandNames() []string {
	names := make([]string, len(Commands))
	for i, entry := range Commands {
		names[i] = entry.Name
	}
	return names
}
