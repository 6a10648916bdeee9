package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gYonder/genai-shell/internal/config"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "alias",
		Group:       GroupShell,
		Description: "Define, show or list command aliases",
		Usage: "alias [name[=value]]\n\n" +
			"With no argument every alias is listed. With a bare name that alias is shown.\n" +
			"name=value defines an alias and saves it to the config file. The value may\n" +
			"start with another alias and may contain &&, || and ;.\n\n" +
			"Examples:\n  alias\n  alias st='status --refresh'\n  alias fc=flashcards -n 10\n  alias st",
		Run: aliasCmd,
	})
	Register(&Command{
		Name:        "unalias",
		Group:       GroupShell,
		Description: "Remove command aliases",
		Usage:       "unalias [-a] <name>...\n\nOptions:\n  -a, --all   Remove every alias\n\nExamples:\n  unalias st fc\n  unalias -a",
		Run:         unaliasCmd,
	})
}

func aliasCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) == 0 {
		return listAliases(s, env)
	}

	// "alias fc=flashcards -n 10" arrives as three words
	def := strings.Join(args, " ")
	if !strings.Contains(def, "=") {
		value, ok := s.Aliases[def]
		if !ok {
			return fmt.Errorf("alias: %s: not found", def)
		}
		printAlias(env, def, value)
		return nil
	}

	name, value, err := parseAliasDefinition(def)
	if err != nil {
		return fmt.Errorf("alias: %w", err)
	}
	if _, builtin := Registry[name]; builtin {
		fmt.Fprintln(env.Stderr, ui.WarningStyle.Render(fmt.Sprintf("Warning: '%s' shadows a built-in command", name)))
	}

	if s.Aliases == nil {
		s.Aliases = make(map[string]string)
	}
	s.Aliases[name] = value
	persistAliases(s, env)

	printAlias(env, name, value)
	return nil
}

func unaliasCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("unalias", env)
	all := fs.BoolP("all", "a", false, "remove every alias")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *all {
		s.Aliases = make(map[string]string)
		persistAliases(s, env)
		return nil
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: unalias [-a] <name>...")
	}

	var missing []string
	removed := 0
	for _, name := range fs.Args() {
		if _, ok := s.Aliases[name]; !ok {
			missing = append(missing, name)
			continue
		}
		delete(s.Aliases, name)
		removed++
	}
	if removed > 0 {
		persistAliases(s, env)
	}
	if len(missing) > 0 {
		return fmt.Errorf("unalias: %s: not found", strings.Join(missing, ", "))
	}
	return nil
}

func listAliases(s *session.Session, env *ExecutionEnv) error {
	if len(s.Aliases) == 0 {
		fmt.Fprintln(env.Stdout, "No aliases defined.")
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("Use 'alias name=value' to create one."))
		return nil
	}

	names := make([]string, 0, len(s.Aliases))
	for name := range s.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		printAlias(env, name, s.Aliases[name])
	}
	return nil
}

func printAlias(env *ExecutionEnv, name, value string) {
	fmt.Fprintf(env.Stdout, "alias %s='%s'\n", ui.CommandStyle.Render(name), value)
}

// persistAliases writes the aliases to the session's config file. A failed
// write only warns; the alias still works for this session.
func persistAliases(s *session.Session, env *ExecutionEnv) {
	if s.ConfigPath == "" {
		return
	}
	if err := config.SaveAliases(s.ConfigPath, s.Aliases); err != nil {
		fmt.Fprintln(env.Stderr, ui.WarningStyle.Render(fmt.Sprintf("Warning: aliases not saved: %v", err)))
	}
}

// parseAliasDefinition splits "name=value", dropping one pair of quotes
// around value.
func parseAliasDefinition(def string) (name, value string, err error) {
	name, value, _ = strings.Cut(def, "=")
	if name == "" {
		return "", "", fmt.Errorf("missing name. Use: alias name=value")
	}
	if !validAliasName(name) {
		return "", "", fmt.Errorf("invalid name %q: use letters, digits, '_' or '-'", name)
	}

	value = strings.TrimSpace(value)
	if n := len(value); n >= 2 && (value[0] == '\'' || value[0] == '"') && value[n-1] == value[0] {
		value = value[1 : n-1]
	}
	if value == "" {
		return "", "", fmt.Errorf("%s: empty value", name)
	}
	return name, value, nil
}

func validAliasName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
