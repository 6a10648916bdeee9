package ui

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatSize returns a human-readable size string
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDate renders a backend timestamp as "2006-01-02 15:04". Unparseable
// values are returned unchanged.
func FormatDate(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return value
}

// Truncate shortens s to width display cells, ending with an ellipsis
func Truncate(s string, width int) string {
	return runewidth.Truncate(StripANSI(s), width, "…")
}
