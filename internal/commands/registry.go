package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
	"github.com/spf13/pflag"
)

type ExecutionEnv struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type Command struct {
	Run         func(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error
	Name        string
	Group       string // section in the help listing
	Description string
	Usage       string // Detailed usage info shown by "help <command>"
}

// Help sections, listed in workflow order
const (
	GroupCategories = "Categories"
	GroupItem       = "Open item"
	GroupResults    = "Results"
	GroupShell      = "Shell"
)

var groupOrder = []string{GroupCategories, GroupItem, GroupResults, GroupShell}

var Registry = make(map[string]*Command)

// ReorderArgsForFlags moves flags (with their values) in front of the
// positional arguments, so "rmitem Notes -y" parses like "rmitem -y Notes".
// Everything after "--" stays positional and "-" is the stdin operand.
func ReorderArgsForFlags(fs *pflag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(append(flags, arg), append(positional, args[i+1:]...)...)
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)
		default:
			flags = append(flags, arg)
			if takesValue(fs, arg) && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				flags = append(flags, args[i])
			}
		}
	}
	return append(flags, positional...)
}

// takesValue reports whether flag arg expects its value in the next argument
func takesValue(fs *pflag.FlagSet, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return false
	}
	f := fs.Lookup(name)
	if f == nil && len(name) == 1 {
		f = fs.ShorthandLookup(name)
	}
	return f != nil && f.Value.Type() != "bool"
}

func init() {
	Register(&Command{
		Name:        "help",
		Group:       GroupShell,
		Description: "Show available commands or help for a specific command",
		Usage:       "help [command]\n\nExamples:\n  help          List all commands\n  help upload   Show detailed help for upload",
		Run:         help,
	})
	Register(&Command{
		Name:        "clear",
		Group:       GroupShell,
		Description: "Clear the screen",
		Usage:       "clear\n\nClears the terminal screen and scrollback buffer.",
		Run:         clear,
	})
	Register(&Command{
		Name:        "history",
		Group:       GroupShell,
		Description: "Show command history",
		Usage:       "history [-n N]\n\nLists previous commands, numbered for !n.\n\nOptions:\n  -n, --lines N   Show only the last N entries",
		Run:         history,
	})
}

func Register(cmd *Command) {
	Registry[cmd.Name] = cmd
}

func Get(name string) (*Command, bool) {
	cmd, ok := Registry[name]
	return cmd, ok
}

// HasHelpFlag checks if args contain -h or --help
func HasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		// Stop checking after first non-flag argument
		if len(arg) > 0 && arg[0] != '-' {
			break
		}
	}
	return false
}

// PrintUsage prints usage information for a command to the given writer
func PrintUsage(cmd *Command, w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n", ui.CommandStyle.Render(cmd.Name), cmd.Description)
	if cmd.Usage != "" {
		fmt.Fprintf(w, "\nUsage: %s\n", cmd.Usage)
	}
}

// newFlagSet returns a flag set that reports parse errors on env.Stderr
func newFlagSet(name string, env *ExecutionEnv) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	return fs
}

// parseFlags parses args with interspersed flags allowed
func parseFlags(fs *pflag.FlagSet, args []string) error {
	return fs.Parse(ReorderArgsForFlags(fs, args))
}

func help(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) > 0 {
		cmdName := args[0]
		cmd, ok := Registry[cmdName]
		if !ok {
			return fmt.Errorf("help: unknown command '%s'", cmdName)
		}

		PrintUsage(cmd, env.Stdout)
		return nil
	}

	byGroup := make(map[string][]*Command)
	for name, cmd := range Registry {
		if cmd.Name == name {
			byGroup[cmd.Group] = append(byGroup[cmd.Group], cmd)
		}
	}

	for _, group := range groupOrder {
		cmds := byGroup[group]
		if len(cmds) == 0 {
			continue
		}
		sort.Slice(cmds, func(i, j int) bool {
			return cmds[i].Name < cmds[j].Name
		})
		fmt.Fprintln(env.Stdout, ui.HeaderStyle.Render(group+":"))
		for _, cmd := range cmds {
			name := ui.CommandStyle.Render(fmt.Sprintf("%-12s", cmd.Name))
			desc := ui.MutedStyle.Render(cmd.Description)
			fmt.Fprintf(env.Stdout, "  %s %s\n", name, desc)
		}
		fmt.Fprintln(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("Use 'help <command>' or '<command> -h' for details."))
	return nil
}

func clear(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	// ANSI escape sequence: move to top-left, clear entire screen, clear scrollback
	fmt.Fprint(env.Stdout, "\033[H\033[2J\033[3J")
	return nil
}

func history(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("history", env)
	last := fs.IntP("lines", "n", 0, "show only the last N entries")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if s.HistoryGetter == nil {
		return fmt.Errorf("history not available")
	}

	hist := s.HistoryGetter()
	if len(hist) == 0 {
		fmt.Fprintln(env.Stdout, "No history.")
		return nil
	}

	// numbering stays absolute so the numbers work with !n
	first := 0
	if *last > 0 && *last < len(hist) {
		first = len(hist) - *last
	}
	for i := first; i < len(hist); i++ {
		num := ui.MutedStyle.Render(fmt.Sprintf("%4d", i+1))
		fmt.Fprintf(env.Stdout, "  %s  %s\n", num, hist[i])
	}
	return nil
}
