package shell

import (
	"path"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/commands"
	"github.com/gYonder/genai-shell/internal/session"
)

// Completer provides tab completion of command names and category/item paths
type Completer struct {
	Session *session.Session
}

// Do implements readline.AutoCompleter
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	words := strings.Fields(lineStr)

	// First word completes command names
	if len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(lineStr, " ")) {
		prefix := ""
		if len(words) == 1 {
			prefix = words[0]
		}
		return c.completeCommand(prefix)
	}

	partial := ""
	if lastSpace := strings.LastIndex(lineStr, " "); lastSpace < len(lineStr)-1 {
		partial = lineStr[lastSpace+1:]
	}
	return c.completePath(partial)
}

// completeCommand returns matching command and alias names
func (c *Completer) completeCommand(prefix string) ([][]rune, int) {
	var matches []string
	for name, cmd := range commands.Registry {
		if cmd.Name == name && strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	for name := range c.Session.Aliases {
		if _, isCmd := commands.Registry[name]; !isCmd && strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)

	result := make([][]rune, len(matches))
	for i, m := range matches {
		// readline wants only the suffix to insert
		result[i] = []rune(m[len(prefix):] + " ")
	}
	return result, len(prefix)
}

// completePath returns matching categories (with a trailing slash) and items
// from the cache. Nothing is fetched while completing.
func (c *Completer) completePath(partial string) ([][]rune, int) {
	var searchDir, searchPrefix string
	switch {
	case partial == "":
		searchDir = c.Session.CWD
	case strings.HasSuffix(partial, "/"):
		searchDir = c.Session.ResolvePath(partial)
	case strings.Contains(partial, "/"):
		searchDir = c.Session.ResolvePath(path.Dir(partial))
		searchPrefix = path.Base(partial)
	default:
		searchDir = c.Session.CWD
		searchPrefix = partial
	}

	var matches []string
	lower := strings.ToLower(searchPrefix)
	for _, e := range c.Session.Cache.Children(searchDir) {
		if !strings.HasPrefix(strings.ToLower(e.Name), lower) {
			continue
		}
		if e.Kind == api.KindCategory {
			matches = append(matches, e.Name+"/")
		} else {
			matches = append(matches, e.Name)
		}
	}

	result := make([][]rune, len(matches))
	for i, m := range matches {
		suffix := m[len(searchPrefix):]
		// Items end the word, categories may continue into their items
		if !strings.HasSuffix(suffix, "/") {
			suffix += " "
		}
		result[i] = []rune(suffix)
	}
	return result, len(searchPrefix)
}

// NewCompleter creates a Completer for the session
func NewCompleter(s *session.Session) readline.AutoCompleter {
	return &Completer{Session: s}
}
