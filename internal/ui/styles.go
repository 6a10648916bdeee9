package ui

import "github.com/charmbracelet/lipgloss"

// Semantic styles, rebuilt whenever the theme changes
var (
	CategoryStyle lipgloss.Style
	ItemStyle     lipgloss.Style
	DocStyle      lipgloss.Style
	ImageStyle    lipgloss.Style
	FileStyle     lipgloss.Style
	DateStyle     lipgloss.Style
	MutedStyle    lipgloss.Style
	ErrorStyle    lipgloss.Style
	WarningStyle  lipgloss.Style
	SuccessStyle  lipgloss.Style
	InfoStyle     lipgloss.Style
	CommandStyle  lipgloss.Style
	HeaderStyle   lipgloss.Style
	QuestionStyle lipgloss.Style // flashcard question column
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func refreshStyles() {
	// categories read like directories
	CategoryStyle = fg(colors.Blue).Bold(true)
	ItemStyle = fg(colors.Mauve)

	DocStyle = fg(colors.Yellow)
	ImageStyle = fg(colors.Pink)
	FileStyle = fg(colors.Text)
	DateStyle = fg(colors.Subtext)
	MutedStyle = fg(colors.Overlay)

	ErrorStyle = fg(colors.Red).Bold(true)
	WarningStyle = fg(colors.Peach)
	SuccessStyle = fg(colors.Green)
	InfoStyle = fg(colors.Teal)

	CommandStyle = fg(colors.Green).Bold(true)
	HeaderStyle = fg(colors.Pink).Bold(true)
	QuestionStyle = fg(colors.Text).Bold(true)
}

// StyleForKind returns the listing style for a cache entry kind
func StyleForKind(kind string) lipgloss.Style {
	switch kind {
	case "root", "category":
		return CategoryStyle
	case "item":
		return ItemStyle
	default:
		return FileStyle
	}
}

// StyleForExtension returns the style for a material file extension (no dot)
func StyleForExtension(ext string) lipgloss.Style {
	switch ext {
	case "pdf":
		return DocStyle
	case "png", "jpg", "jpeg":
		return ImageStyle
	default:
		return FileStyle
	}
}
