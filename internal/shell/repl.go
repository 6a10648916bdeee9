package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/commands"
	"github.com/gYonder/genai-shell/internal/config"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/state"
	"github.com/gYonder/genai-shell/internal/ui"
)

// Shell is the main REPL for the genai shell.
type Shell struct {
	Session        *session.Session
	RL             *readline.Instance
	sessionHistory []string // Commands from current session (for !!, !-n)

	// prompt parts, also read by the status listener of the open item
	promptMu   sync.Mutex
	promptPath string
	promptItem string

	watched     *state.ItemStore
	unsubscribe func()
}

// New creates a new Shell with the given session.
func New(s *session.Session, historyLimit int) (*Shell, error) {
	historyPath, _ := config.HistoryPath()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "genai> ",
		HistoryFile:       historyPath,
		HistoryLimit:      historyLimit,
		HistorySearchFold: true,
		AutoComplete:      NewCompleter(s),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}

	shell := &Shell{
		Session: s,
		RL:      rl,
	}

	// Set history getter on session so commands can access it
	s.HistoryGetter = shell.GetHistory

	return shell, nil
}

// buildPrompt creates the shell prompt string for the given item status
func (sh *Shell) buildPrompt(status api.ItemStatus) string {
	sh.promptMu.Lock()
	defer sh.promptMu.Unlock()
	return ui.RenderPrompt(sh.Session.Host, sh.promptPath, sh.promptItem, status)
}

// syncPrompt captures the session's location and follows the open item's status
// so the prompt can be redrawn while waiting for input.
func (sh *Shell) syncPrompt() {
	s := sh.Session
	status := api.ItemStatus("")
	var store *state.ItemStore
	if s.Item != nil {
		store = s.Item.Store
		status = store.Status()
	}

	sh.promptMu.Lock()
	sh.promptPath = s.CWD
	sh.promptItem = s.ContextName()
	sh.promptMu.Unlock()

	if store != sh.watched {
		if sh.unsubscribe != nil {
			sh.unsubscribe()
			sh.unsubscribe = nil
		}
		sh.watched = store
		if store != nil {
			sh.unsubscribe = store.Subscribe(sh.onItemChange)
		}
	}
	sh.RL.SetPrompt(sh.buildPrompt(status))
}

// onItemChange runs on the poller goroutine when the open item changes
func (sh *Shell) onItemChange(item api.CategoryItemDetails, field state.Field) {
	if field != state.FieldStatus {
		return
	}
	if item.Status == api.StatusCompleted || item.Status == api.StatusFailed {
		fmt.Fprintf(sh.RL.Stdout(), "%s: %s\n", item.Name, ui.RenderStatusTag(item.Status, item.FailedJobType))
	}
	sh.RL.SetPrompt(sh.buildPrompt(item.Status))
	sh.RL.Refresh()
}

// Run starts the REPL loop. It returns when input ends or a command asks to exit.
func (sh *Shell) Run() {
	defer sh.RL.Close()
	defer func() {
		if sh.unsubscribe != nil {
			sh.unsubscribe()
		}
	}()

	env := &commands.ExecutionEnv{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}

	for {
		sh.syncPrompt()

		line, err := sh.RL.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF or Ctrl+D
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle history expansion (!n)
		if strings.HasPrefix(line, "!") && len(line) > 1 {
			expanded, err := sh.expandHistory(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "genai: %v\n", err)
				continue
			}
			line = expanded
			fmt.Println(line) // Show the expanded command
		}

		sh.sessionHistory = append(sh.sessionHistory, line)

		// Ctrl+C cancels the running command, not the shell
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = RunLine(ctx, sh.Session, line, env)
		stop()

		if errors.Is(err, commands.ErrExit) {
			return
		}
		if err != nil {
			PrintError(os.Stderr, err)
		}
	}
}

// RunLine expands aliases in line, then parses and executes it.
func RunLine(ctx context.Context, s *session.Session, line string, env *commands.ExecutionEnv) error {
	if expanded, wasAlias := ExpandAlias(line, s.Aliases); wasAlias {
		line = expanded
	}
	chain, err := ParseCommandChain(line)
	if err != nil {
		return err
	}
	return chain.Execute(ctx, s, env)
}

// RunArgs runs one command given as already split arguments, as on the
// process command line. An alias in args[0] is expanded.
func RunArgs(ctx context.Context, s *session.Session, args []string, env *commands.ExecutionEnv) error {
	if len(args) == 0 {
		return nil
	}
	if expansion, ok := ExpandAlias(args[0], s.Aliases); ok {
		tokens, err := Tokenize(expansion)
		if err != nil {
			return fmt.Errorf("alias %s: %w", args[0], err)
		}
		var expanded []string
		for _, tok := range tokens {
			if tok.Type != TokenWord {
				return fmt.Errorf("alias %s: operators are not allowed here", args[0])
			}
			expanded = append(expanded, tok.Value)
		}
		args = append(expanded, args[1:]...)
	}
	if len(args) == 0 {
		return nil
	}
	seg := &Segment{CommandName: args[0], Args: args[1:]}
	return seg.Execute(ctx, s, env)
}

// PrintError reports a command error, with a hint when the token was rejected
func PrintError(w io.Writer, err error) {
	switch {
	case errors.Is(err, api.ErrTokenExpired):
		fmt.Fprintln(w, ui.ErrorStyle.Render("genai: the backend rejected the token. Set GENAI_TOKEN or 'token' in the config file."))
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, ui.WarningStyle.Render("genai: interrupted"))
	default:
		fmt.Fprintln(w, ui.ErrorStyle.Render("genai: "+err.Error()))
	}
}

// expandHistory handles !n and !! syntax for history expansion
func (sh *Shell) expandHistory(line string) (string, error) {
	// !! and !-n use the current session, !n and !prefix the full history

	if line == "!!" {
		if len(sh.sessionHistory) == 0 {
			return "", fmt.Errorf("!!: event not found")
		}
		return sh.sessionHistory[len(sh.sessionHistory)-1], nil
	}

	if strings.HasPrefix(line, "!-") {
		nStr := line[2:]
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 1 {
			return "", fmt.Errorf("!-%s: event not found", nStr)
		}
		idx := len(sh.sessionHistory) - n
		if idx < 0 {
			return "", fmt.Errorf("!-%s: event not found", nStr)
		}
		return sh.sessionHistory[idx], nil
	}

	history := sh.GetHistory()
	if len(history) == 0 {
		return "", fmt.Errorf("no history available")
	}

	nStr := line[1:]
	n, err := strconv.Atoi(nStr)
	if err != nil {
		// !string - search for command starting with string
		for i := len(history) - 1; i >= 0; i-- {
			if strings.HasPrefix(history[i], nStr) {
				return history[i], nil
			}
		}
		return "", fmt.Errorf("!%s: event not found", nStr)
	}
	if n < 1 || n > len(history) {
		return "", fmt.Errorf("!%d: event not found", n)
	}
	return history[n-1], nil
}

// GetHistory returns the full history from the file (readline keeps it up-to-date)
func (sh *Shell) GetHistory() []string {
	historyPath, err := config.HistoryPath()
	if err != nil {
		return sh.sessionHistory
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return sh.sessionHistory
	}

	var history []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			history = append(history, line)
		}
	}
	return history
}
