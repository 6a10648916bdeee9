package commands

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "ls",
		Group:       GroupCategories,
		Description: "List categories and items",
		Usage:       "ls [-l] [-r] [path|pattern]...\n\nOptions:\n  -l    Long listing format (created, items, description)\n  -r    Reload the category tree from the backend first\n\nExamples:\n  ls              List the current category\n  ls -l /         Long listing of all categories\n  ls 'Bio*'       Categories whose name starts with Bio",
		Run:         ls,
	})
	Register(&Command{
		Name:        "cd",
		Group:       GroupCategories,
		Description: "Change category",
		Usage:       "cd [path]\n\nSpecial paths:\n  /            All categories\n  -            Previous category\n  ..           Parent",
		Run:         cd,
	})
	Register(&Command{
		Name:        "pwd",
		Group:       GroupCategories,
		Description: "Print current category path",
		Usage:       "pwd",
		Run:         pwd,
	})
	Register(&Command{
		Name:        "exit",
		Group:       GroupShell,
		Description: "Exit the shell",
		Usage:       "exit",
		Run:         exitCmd,
	})
}

func ls(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("ls", env)
	longFormat := fs.BoolP("long", "l", false, "use long listing format")
	refresh := fs.BoolP("refresh", "r", false, "reload the category tree")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *refresh {
		err := ui.WithSpinnerErr(env.Stderr, "", false, func() error {
			return s.Cache.Load(ctx, s.Client)
		})
		if err != nil {
			return fmt.Errorf("ls: %w", err)
		}
	} else if err := ensureCache(ctx, s, env); err != nil {
		return fmt.Errorf("ls: %w", err)
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var failed bool
	for i, p := range paths {
		entries, header, err := collectListing(s, p)
		if err != nil {
			fmt.Fprintf(env.Stderr, "ls: %v\n", err)
			failed = true
			continue
		}
		if len(paths) > 1 && header != "" {
			fmt.Fprintf(env.Stdout, "%s:\n", header)
		}
		if *longFormat {
			printLong(s, entries, env.Stdout)
		} else {
			printColumns(styledNames(entries), env.Stdout)
		}
		if i < len(paths)-1 {
			fmt.Fprintln(env.Stdout)
		}
	}
	if failed {
		return fmt.Errorf("ls: some paths could not be listed")
	}
	return nil
}

// collectListing returns what ls shows for arg: the children of a category (or of
// the root), the entry itself for an item, or every match of a glob pattern.
func collectListing(s *session.Session, arg string) ([]api.Entry, string, error) {
	if hasGlobMeta(arg) {
		parent := s.ResolvePath(path.Dir(arg))
		matches := s.Cache.MatchGlob(parent, path.Base(arg))
		if len(matches) == 0 {
			return nil, "", fmt.Errorf("%s: no matches", arg)
		}
		entries := make([]api.Entry, 0, len(matches))
		for _, m := range matches {
			if e, ok := s.Cache.Get(m); ok {
				entries = append(entries, *e)
			}
		}
		return entries, "", nil
	}

	resolved := s.ResolvePath(arg)
	entry, ok := s.Cache.Get(resolved)
	if !ok {
		return nil, "", fmt.Errorf("cannot access '%s': No such category or item", arg)
	}
	if entry.Kind == api.KindItem {
		return []api.Entry{*entry}, "", nil
	}
	return s.Cache.Children(resolved), arg, nil
}

func styledNames(entries []api.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name
		if e.Kind == api.KindCategory {
			name += "/"
		}
		names = append(names, ui.StyleForKind(e.Kind).Render(name))
	}
	return names
}

// printColumns prints names in columns, similar to ls (column-major order)
func printColumns(names []string, w io.Writer) {
	if len(names) == 0 {
		return
	}

	termWidth := 80

	maxLen := 0
	for _, name := range names {
		if vLen := ui.VisibleLen(name); vLen > maxLen {
			maxLen = vLen
		}
	}

	colWidth := maxLen + 2
	numCols := termWidth / colWidth
	if numCols < 1 {
		numCols = 1
	}
	numRows := (len(names) + numCols - 1) / numCols

	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			idx := col*numRows + row
			if idx >= len(names) {
				continue
			}

			name := names[idx]
			isLastCol := col == numCols-1
			isLastInRow := (col+1)*numRows+row >= len(names)
			if isLastCol || isLastInRow {
				fmt.Fprint(w, name)
			} else {
				fmt.Fprint(w, padRightVisible(name, colWidth))
			}
		}
		fmt.Fprintln(w)
	}
}

func padRightVisible(s string, width int) string {
	pad := width - ui.VisibleLen(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

func printLong(s *session.Session, entries []api.Entry, w io.Writer) {
	if len(entries) == 0 {
		return
	}
	table := ui.NewTable(w)
	table.SetHeaders("KIND", "CREATED", "ITEMS", "NAME", "DESCRIPTION")
	table.SetMaxWidth(4, 48)
	for _, e := range entries {
		items := "-"
		name := e.Name
		if e.Kind == api.KindCategory {
			if p, ok := s.Cache.PathFor(api.KindCategory, e.ID); ok {
				items = strconv.Itoa(len(s.Cache.Children(p)))
			}
			name += "/"
		}
		table.AddRow(
			ui.MutedStyle.Render(e.Kind),
			ui.DateStyle.Render(ui.FormatDate(e.CreatedAt)),
			items,
			ui.StyleForKind(e.Kind).Render(name),
			e.Description,
		)
	}
	table.Render()
}

func cd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	target := "/"
	if len(args) > 0 {
		target = args[0]
	}

	resolved, entry, err := ResolveEntry(ctx, s, env, target)
	if err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	if entry.Kind == api.KindItem {
		return fmt.Errorf("cd: %s: Not a category (use 'open' for items)", target)
	}

	s.ChangeDir(resolved)
	return nil
}

func pwd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fmt.Fprintln(env.Stdout, s.CWD)
	return nil
}

func exitCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	return ErrExit
}
