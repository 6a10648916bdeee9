package shell

import (
	"strings"
)

// ExpandAlias replaces the first word of line with its alias. An alias may name
// another alias ("gen" -> "generate -y" via "g" -> "gen"); each name expands at
// most once, so self-references such as ls='ls -l' terminate.
func ExpandAlias(line string, aliases map[string]string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(aliases) == 0 || line == "" {
		return line, false
	}

	seen := make(map[string]bool)
	expanded := false
	for {
		name, rest, _ := strings.Cut(line, " ")
		value, ok := aliases[name]
		if !ok || seen[name] {
			return line, expanded
		}
		seen[name] = true
		expanded = true

		line = strings.TrimSpace(value)
		if rest != "" {
			line += " " + rest
		}
	}
}
