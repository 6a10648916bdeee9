package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/gYonder/genai-shell/internal/api"
)

// RenderPrompt renders a Powerline-style prompt: host, current path and, when an
// item is open, its name colored by status.
func RenderPrompt(host, path, itemName string, status api.ItemStatus) string {
	hostBg := colors.Mauve
	hostFg := colors.Base
	pathBg := colors.Surface
	pathFg := colors.Text
	itemBg := statusColor(status)
	itemFg := colors.Base

	hostStyle := lipgloss.NewStyle().Background(hostBg).Foreground(hostFg).Padding(0, 1).Bold(true)
	pathStyle := lipgloss.NewStyle().Background(pathBg).Foreground(pathFg).Padding(0, 1)
	itemStyle := lipgloss.NewStyle().Background(itemBg).Foreground(itemFg).Padding(0, 1)

	seg1 := hostStyle.Render(host)
	sep1 := lipgloss.NewStyle().Foreground(hostBg).Background(pathBg).Render("")
	seg2 := pathStyle.Render(path)

	if itemName != "" {
		sep2 := lipgloss.NewStyle().Foreground(pathBg).Background(itemBg).Render("")
		seg3 := itemStyle.Render(itemName)
		sep3 := lipgloss.NewStyle().Foreground(itemBg).Render("")
		return fmt.Sprintf("%s%s%s%s%s%s ", seg1, sep1, seg2, sep2, seg3, sep3)
	}

	sep2 := lipgloss.NewStyle().Foreground(pathBg).Render("")
	return fmt.Sprintf("%s%s%s%s ", seg1, sep1, seg2, sep2)
}
