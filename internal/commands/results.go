package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

// copyToClipboard is swapped in tests
var copyToClipboard = clipboard.WriteAll

func init() {
	Register(&Command{
		Name:        "summary",
		Group:       GroupResults,
		Description: "Show the generated summary of the open item",
		Usage:       "summary [--raw] [--copy]\n\nOptions:\n  --raw     Print without highlighting\n  --copy    Copy the summary to the clipboard\n\nExamples:\n  summary\n  summary --raw > notes.md",
		Run:         summary,
	})
	Register(&Command{
		Name:        "flashcards",
		Group:       GroupResults,
		Description: "Show the generated flashcards of the open item",
		Usage:       "flashcards [--copy] [-n count]\n\nOptions:\n  --copy    Copy the cards as Question/Answer text to the clipboard\n  -n        Show only the first n cards",
		Run:         flashcards,
	})
}

// completedItem returns the open item's snapshot once generation completed
func completedItem(s *session.Session) (api.CategoryItemDetails, error) {
	item, err := requireItem(s)
	if err != nil {
		return api.CategoryItemDetails{}, err
	}
	snap := item.Store.Snapshot()
	switch snap.Status {
	case api.StatusCompleted:
		return snap, nil
	case api.StatusFailed:
		msg := "generation failed"
		if snap.FailedJobType != "" {
			msg += " during " + ui.FormatFailedJobType(snap.FailedJobType)
		}
		return snap, fmt.Errorf("%s", msg)
	}
	return snap, fmt.Errorf("nothing generated yet (status: %s)", ui.StatusLabel(snap.Status))
}

func summary(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("summary", env)
	raw := fs.Bool("raw", false, "print without highlighting")
	copyOut := fs.BoolP("copy", "c", false, "copy to clipboard")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	snap, err := completedItem(s)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if strings.TrimSpace(snap.Summary) == "" {
		return fmt.Errorf("summary: the summary is empty")
	}

	if *copyOut {
		if err := copyToClipboard(snap.Summary); err != nil {
			return fmt.Errorf("summary: copy failed: %w", err)
		}
		fmt.Fprintln(env.Stdout, ui.SuccessStyle.Render("✓ Summary copied to clipboard"))
		return nil
	}

	color := !*raw && isTerminal(env.Stdout)
	return ui.WriteSummary(env.Stdout, snap.Summary, color)
}

func flashcards(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("flashcards", env)
	copyOut := fs.BoolP("copy", "c", false, "copy to clipboard")
	limit := fs.IntP("count", "n", 0, "show only the first n cards")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	snap, err := completedItem(s)
	if err != nil {
		return fmt.Errorf("flashcards: %w", err)
	}
	cards := snap.Flashcards
	if len(cards) == 0 {
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("No flashcards were generated."))
		return nil
	}
	if *limit > 0 && *limit < len(cards) {
		cards = cards[:*limit]
	}

	if *copyOut {
		if err := copyToClipboard(formatCards(cards)); err != nil {
			return fmt.Errorf("flashcards: copy failed: %w", err)
		}
		fmt.Fprintf(env.Stdout, "%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✓ %d flashcards copied to clipboard", len(cards))))
		return nil
	}

	table := ui.NewTable(env.Stdout)
	table.SetHeaders("#", "QUESTION", "ANSWER")
	table.SetMaxWidth(1, 40)
	table.SetMaxWidth(2, 50)
	for i, c := range cards {
		table.AddRow(
			ui.MutedStyle.Render(strconv.Itoa(i+1)),
			ui.QuestionStyle.Render(c.Question),
			c.Answer,
		)
	}
	table.Render()
	return nil
}

func formatCards(cards []api.Flashcard) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", c.Question, c.Answer)
	}
	return b.String()
}
