package ui

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// chroma styles matching the Catppuccin palettes
var syntaxStyles = map[Theme]string{
	ThemeDark:  "catppuccin-mocha",
	ThemeLight: "catppuccin-latte",
}

func syntaxStyle() *chroma.Style {
	if style := styles.Get(syntaxStyles[activeTheme]); style != nil {
		return style
	}
	return styles.Fallback
}

// HighlightMarkdown colors a generated summary for a 256 color terminal. On
// any lexer or formatter failure the summary is returned unchanged.
func HighlightMarkdown(summary string) string {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		return summary
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, summary)
	if err != nil {
		return summary
	}

	var sb strings.Builder
	if err := formatters.TTY256.Format(&sb, syntaxStyle(), iterator); err != nil {
		return summary
	}
	return sb.String()
}

// WriteSummary writes summary to w with a trailing newline, highlighted when
// color is set.
func WriteSummary(w io.Writer, summary string, color bool) error {
	if color {
		summary = HighlightMarkdown(summary)
	}
	if !strings.HasSuffix(summary, "\n") {
		summary += "\n"
	}
	_, err := io.WriteString(w, summary)
	return err
}
