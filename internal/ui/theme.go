package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents the user interface color theme
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Palette is the set of colors the styles are built from
type Palette struct {
	Red, Green, Yellow, Blue, Pink, Teal, Peach, Mauve lipgloss.Color
	Text, Subtext, Overlay, Surface, Base              lipgloss.Color
}

// Catppuccin Mocha and Latte, reduced to the colors the shell draws with
var palettes = map[Theme]Palette{
	ThemeDark: {
		Red: "#f38ba8", Green: "#a6e3a1", Yellow: "#f9e2af", Blue: "#89b4fa",
		Pink: "#f5c2e7", Teal: "#94e2d5", Peach: "#fab387", Mauve: "#cba6f7",
		Text: "#cdd6f4", Subtext: "#bac2de", Overlay: "#7f849c", Surface: "#45475a", Base: "#1e1e2e",
	},
	ThemeLight: {
		Red: "#d20f39", Green: "#40a02b", Yellow: "#df8e1d", Blue: "#1e66f5",
		Pink: "#ea76cb", Teal: "#179299", Peach: "#fe640b", Mauve: "#8839ef",
		Text: "#4c4f69", Subtext: "#5c5f77", Overlay: "#8c8fa1", Surface: "#bcc0cc", Base: "#eff1f5",
	},
}

var (
	activeTheme Theme
	colors      Palette
)

func init() {
	useTheme(DetectTheme())
}

// DetectTheme guesses the theme from the terminal background
func DetectTheme() Theme {
	if lipgloss.HasDarkBackground() {
		return ThemeDark
	}
	return ThemeLight
}

// ApplyTheme switches palettes according to the config value. Unknown values
// behave like "auto".
func ApplyTheme(name string) Theme {
	theme := Theme(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := palettes[theme]; !ok {
		theme = DetectTheme()
	}
	useTheme(theme)
	return theme
}

// ActiveTheme returns the theme the styles are currently built for
func ActiveTheme() Theme {
	return activeTheme
}

func useTheme(theme Theme) {
	activeTheme = theme
	colors = palettes[theme]
	refreshStyles()
}
