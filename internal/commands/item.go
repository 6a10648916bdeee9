package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/poller"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/state"
	"github.com/gYonder/genai-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "open",
		Group:       GroupItem,
		Description: "Open an item to upload material and follow its generation",
		Usage:       "open <item>\n\nLoads the item, restores its uploaded files and starts status polling\nwhen a generation is running. The previously open item is closed.",
		Run:         openCmd,
	})
	Register(&Command{
		Name:        "close",
		Group:       GroupItem,
		Description: "Close the open item",
		Usage:       "close\n\nStops status polling for the open item.",
		Run:         closeCmd,
	})
	Register(&Command{
		Name:        "info",
		Group:       GroupItem,
		Description: "Show details of the open item",
		Usage:       "info",
		Run:         info,
	})
	Register(&Command{
		Name:        "status",
		Group:       GroupItem,
		Description: "Show the generation status of the open item",
		Usage:       "status [--refresh]\n\nOptions:\n  --refresh    Ask the backend now instead of showing the last known status",
		Run:         status,
	})
	Register(&Command{
		Name:        "watch",
		Group:       GroupItem,
		Description: "Wait until the running generation finishes",
		Usage:       "watch [--timeout duration]\n\nExamples:\n  watch\n  watch --timeout 5m",
		Run:         watch,
	})
}

func openCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open <item>")
	}
	resolved, entry, err := ResolveEntry(ctx, s, env, args[0])
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if entry.Kind != api.KindItem {
		return fmt.Errorf("open: %s: Not an item (use 'cd' for categories)", args[0])
	}
	return openItem(ctx, s, env, resolved, entry.ID)
}

// openItem fetches the item detail and mounts it into the session
func openItem(ctx context.Context, s *session.Session, env *ExecutionEnv, itemPath string, itemID int64) error {
	item, err := ui.WithSpinner(env.Stderr, "", false, func() (*api.CategoryItemDetails, error) {
		return s.Client.GetCategoryItem(ctx, itemID)
	})
	if err != nil {
		if api.IsNotFound(err) {
			s.Cache.Remove(itemPath)
			return fmt.Errorf("open: %s no longer exists", itemPath)
		}
		return fmt.Errorf("open: %w", err)
	}

	s.Mount(ctx, itemPath, *item)
	s.ChangeDir(path.Dir(itemPath))
	printInfo(s.Item, env.Stdout)
	return nil
}

func closeCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	item, err := requireItem(s)
	if err != nil {
		return err
	}
	name := item.Store.Snapshot().Name
	s.Unmount()
	fmt.Fprintf(env.Stdout, "Closed %s\n", name)
	return nil
}

func info(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	item, err := requireItem(s)
	if err != nil {
		return err
	}
	printInfo(item, env.Stdout)
	return nil
}

func printInfo(item *session.MountedItem, w io.Writer) {
	snap := item.Store.Snapshot()
	label := func(s string) string { return ui.MutedStyle.Render(fmt.Sprintf("%-12s", s)) }

	fmt.Fprintf(w, "%s %s\n", label("Item:"), ui.ItemStyle.Render(snap.Name))
	if snap.Category.Name != "" {
		fmt.Fprintf(w, "%s %s\n", label("Category:"), ui.CategoryStyle.Render(snap.Category.Name))
	}
	if snap.Description != "" {
		fmt.Fprintf(w, "%s %s\n", label("Description:"), snap.Description)
	}
	if snap.CreatedAt != "" {
		fmt.Fprintf(w, "%s %s\n", label("Created:"), ui.DateStyle.Render(ui.FormatDate(snap.CreatedAt)))
	}
	fmt.Fprintf(w, "%s %s\n", label("Status:"), ui.RenderStatusTag(snap.Status, snap.FailedJobType))
	fmt.Fprintf(w, "%s %d\n", label("Files:"), len(item.Tracker.Files()))
	if snap.Status == api.StatusCompleted {
		fmt.Fprintf(w, "%s %d\n", label("Flashcards:"), len(snap.Flashcards))
	}
}

func status(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("status", env)
	refresh := fs.Bool("refresh", false, "query the backend now")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	item, err := requireItem(s)
	if err != nil {
		return err
	}

	if *refresh {
		if err := refreshStatus(ctx, s, env, item); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}

	snap := item.Store.Snapshot()
	fmt.Fprintln(env.Stdout, ui.RenderStatusTag(snap.Status, snap.FailedJobType))
	if item.Poller.State() == poller.Polling {
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render(fmt.Sprintf("polling every %s", s.PollInterval)))
	}
	return nil
}

// refreshStatus asks the backend for the status and writes any change into the
// store, fetching the generation when it completed.
func refreshStatus(ctx context.Context, s *session.Session, env *ExecutionEnv, item *session.MountedItem) error {
	id := item.ID()
	statusInfo, err := ui.WithSpinner(env.Stderr, "", false, func() (*api.StatusInfo, error) {
		return s.Client.GetItemStatus(ctx, id)
	})
	if err != nil {
		return err
	}

	// a running poller records the transition itself, generation included
	if item.Poller.Active() {
		if statusInfo.Status != item.Store.Status() {
			fmt.Fprintln(env.Stderr, ui.MutedStyle.Render("Backend reports "+ui.StatusLabel(statusInfo.Status)+"; the poller will record it."))
		}
		return nil
	}

	prev := item.Store.Snapshot()
	if statusInfo.Status == api.StatusFailed && statusInfo.FailedJobType != "" {
		if err := item.Store.Update(state.FieldFailedJobType, statusInfo.FailedJobType); err != nil {
			return err
		}
	}
	if statusInfo.Status == api.StatusCompleted && prev.Status != api.StatusCompleted {
		gen, err := s.Client.GetItemGeneration(ctx, id)
		if err != nil {
			return err
		}
		if err := item.Store.Update(state.FieldSummary, gen.Summary); err != nil {
			return err
		}
		if err := item.Store.Update(state.FieldFlashcards, gen.Flashcards); err != nil {
			return err
		}
	}
	if statusInfo.Status != prev.Status {
		return item.Store.Update(state.FieldStatus, statusInfo.Status)
	}
	return nil
}

func watch(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("watch", env)
	timeout := fs.Duration("timeout", 0, "give up after this long (0 waits forever)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	item, err := requireItem(s)
	if err != nil {
		return err
	}
	return watchItem(ctx, env, item, *timeout)
}

// watchItem blocks until the current polling cycle has ended and its results
// are in the store, then prints the outcome.
func watchItem(ctx context.Context, env *ExecutionEnv, item *session.MountedItem, timeout time.Duration) error {
	done := item.Poller.Done()
	if item.Store.Status() == api.StatusPending {
		fmt.Fprintln(env.Stdout, ui.RenderStatusTag(api.StatusPending, ""))
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("No generation running (use 'generate')."))
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	wait := func() error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var err error
	if isTerminal(env.Stderr) {
		err = ui.WithSpinnerErr(env.Stderr, ui.StatusLabel(api.StatusProcessing), true, wait)
	} else {
		err = wait()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("watch: still processing after %s", timeout)
	}
	if err != nil {
		return err
	}

	snap := item.Store.Snapshot()
	fmt.Fprintln(env.Stdout, ui.RenderStatusTag(snap.Status, snap.FailedJobType))
	switch snap.Status {
	case api.StatusCompleted:
		fmt.Fprintf(env.Stdout, "%d flashcards ready. Use 'summary' and 'flashcards' to read them.\n", len(snap.Flashcards))
	case api.StatusProcessing:
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("Polling stopped before the generation finished."))
	}
	return nil
}
