package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

// ErrExit is returned by the exit command; the shell stops its loop on it.
var ErrExit = errors.New("exit")

// ErrNoItemOpen is returned by item commands when nothing is open
var ErrNoItemOpen = errors.New("no item is open (use 'open <item>')")

// ensureCache loads the category tree on first use
func ensureCache(ctx context.Context, s *session.Session, env *ExecutionEnv) error {
	if s.Cache.Loaded() {
		return nil
	}
	return ui.WithSpinnerErr(env.Stderr, "", false, func() error {
		return s.Cache.Load(ctx, s.Client)
	})
}

// ResolveEntry resolves a shell path argument to its cache entry
func ResolveEntry(ctx context.Context, s *session.Session, env *ExecutionEnv, arg string) (string, *api.Entry, error) {
	if err := ensureCache(ctx, s, env); err != nil {
		return "", nil, err
	}
	resolved := s.ResolvePath(arg)
	entry, ok := s.Cache.Get(resolved)
	if !ok {
		return "", nil, fmt.Errorf("%s: No such category or item", arg)
	}
	return resolved, entry, nil
}

// requireItem returns the open item or ErrNoItemOpen
func requireItem(s *session.Session) (*session.MountedItem, error) {
	if s.Item == nil {
		return nil, ErrNoItemOpen
	}
	return s.Item, nil
}

// confirm asks a yes/no question on env and reports whether the answer was yes
func confirm(env *ExecutionEnv, question string) (bool, error) {
	fmt.Fprintf(env.Stdout, "%s [y/N] ", question)

	reader := bufio.NewReader(env.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
