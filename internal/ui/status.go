package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gYonder/genai-shell/internal/api"
)

// StatusLabel returns the display text of an item status
func StatusLabel(status api.ItemStatus) string {
	switch status {
	case api.StatusPending:
		return "Pending"
	case api.StatusProcessing:
		return "Processing..."
	case api.StatusCompleted:
		return "Generation Completed"
	case api.StatusFailed:
		return "Generation Failed"
	}
	return "Unknown"
}

func statusColor(status api.ItemStatus) lipgloss.Color {
	switch status {
	case api.StatusProcessing:
		return colors.Teal
	case api.StatusCompleted:
		return colors.Green
	case api.StatusFailed:
		return colors.Red
	}
	return colors.Overlay
}

// RenderStatusTag renders the status as a colored tag. A failed job type is
// appended for FAILED items.
func RenderStatusTag(status api.ItemStatus, failedJobType string) string {
	tag := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(statusColor(status)).
		Padding(0, 1).
		Render(StatusLabel(status))
	if status == api.StatusFailed && failedJobType != "" {
		tag += " " + ErrorStyle.Render("("+FormatFailedJobType(failedJobType)+")")
	}
	return tag
}

// FormatFailedJobType turns FLASHCARD_GENERATION into "Flashcard Generation".
func FormatFailedJobType(jobType string) string {
	words := strings.FieldsFunc(jobType, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
