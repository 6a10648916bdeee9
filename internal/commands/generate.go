package commands

import (
	"context"
	"fmt"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/state"
	"github.com/gYonder/genai-shell/internal/ui"
	"github.com/gYonder/genai-shell/internal/upload"
)

func init() {
	Register(&Command{
		Name:        "generate",
		Group:       GroupItem,
		Description: "Start summary and flashcard generation for the open item",
		Usage:       "generate [-y] [-w] [--timeout duration]\n\nRequires a Pending item with at least one uploaded file and no upload\nin progress. Generation runs on the backend; the shell polls its status.\n\nOptions:\n  -y    Do not ask for confirmation\n  -w    Wait for the generation to finish",
		Run:         generate,
	})
}

// checkGenerationAllowed returns why generation cannot start, or nil.
func checkGenerationAllowed(item *session.MountedItem) error {
	if st := item.Store.Status(); st != api.StatusPending {
		return fmt.Errorf("generation already started (status: %s)", ui.StatusLabel(st))
	}
	if item.Tracker.Uploading() {
		return fmt.Errorf("wait for uploads to finish")
	}
	for _, f := range item.Tracker.Files() {
		if f.Status == upload.StatusCompleted {
			return nil
		}
	}
	return fmt.Errorf("upload at least one file first")
}

func generate(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("generate", env)
	yes := fs.BoolP("yes", "y", false, "skip confirmation")
	wait := fs.BoolP("wait", "w", false, "wait for the generation to finish")
	timeout := fs.Duration("timeout", 0, "with --wait, give up after this long")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	item, err := requireItem(s)
	if err != nil {
		return err
	}
	if err := checkGenerationAllowed(item); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	snap := item.Store.Snapshot()
	if !*yes {
		question := fmt.Sprintf("Start generation for '%s' from %d file(s)? Uploads are closed afterwards.", snap.Name, len(item.Tracker.Files()))
		ok, err := confirm(env, question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Stdout, "Cancelled")
			return nil
		}
	}

	err = ui.WithSpinnerErr(env.Stderr, "", false, func() error {
		return s.Client.StartGeneration(ctx, snap.ID)
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	s.Logger.Info("generation started", "item_id", snap.ID)

	// The poller picks the new status up from the store
	if err := item.Store.Update(state.FieldStatus, api.StatusProcessing); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	fmt.Fprintln(env.Stdout, ui.RenderStatusTag(api.StatusProcessing, ""))

	if *wait {
		return watchItem(ctx, env, item, *timeout)
	}
	fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("Use 'status' or 'watch' to follow progress."))
	return nil
}
