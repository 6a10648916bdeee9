package commands

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gYonder/genai-shell/internal/build"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

// releasesURL is swapped in tests
var releasesURL = build.ReleasesURL

func init() {
	Register(&Command{
		Name:        "version",
		Group:       GroupShell,
		Description: "Print version and backend information",
		Usage:       "version [--check]\n\nOptions:\n  -c, --check   Ask the release server whether a newer version exists",
		Run:         versionCmd,
	})
}

func versionCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("version", env)
	check := fs.BoolP("check", "c", false, "check for a newer release")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "genai-shell %s (%s, built %s)\n", build.Version, build.Commit, build.Date)
	fmt.Fprintf(env.Stdout, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if s.Host != "" {
		fmt.Fprintf(env.Stdout, "Backend: %s\n", s.Host)
	}

	if !*check {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	latest, err := build.LatestRelease(ctx, http.DefaultClient, releasesURL)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	if build.Newer(latest, build.Version) {
		fmt.Fprintln(env.Stdout, ui.WarningStyle.Render(fmt.Sprintf("A newer release is available: %s", latest)))
	} else {
		fmt.Fprintln(env.Stdout, ui.SuccessStyle.Render("You are on the latest release."))
	}
	return nil
}
