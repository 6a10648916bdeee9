package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
	"github.com/gYonder/genai-shell/internal/upload"
)

func init() {
	Register(&Command{
		Name:        "upload",
		Group:       GroupItem,
		Description: "Upload study material to the open item",
		Usage:       "upload [--name name] <file|pattern|->...\n\nUploads local PDF or image files to the open item. Only possible while the\nitem is Pending. Patterns are expanded locally (doublestar syntax).\nUse - to read from stdin (requires --name).\n\nExamples:\n  upload lecture1.pdf slides/*.png\n  upload 'notes/**/*.pdf'\n  cat scan.jpg | genai upload --name scan.jpg -",
		Run:         uploadCmd,
	})
	Register(&Command{
		Name:        "files",
		Group:       GroupItem,
		Description: "List the material files of the open item",
		Usage:       "files",
		Run:         files,
	})
}

func uploadCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("upload", env)
	name := fs.StringP("name", "n", "", "file name for data read from stdin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: upload [--name name] <file|pattern|->...")
	}

	item, err := requireItem(s)
	if err != nil {
		return err
	}
	if st := item.Store.Status(); st != api.StatusPending {
		return fmt.Errorf("upload: uploads are closed once generation has started (status: %s)", ui.StatusLabel(st))
	}

	sources, closers, err := collectSources(s, env, fs.Args(), *name)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if len(sources) > 1 {
		var total int64
		for _, src := range sources {
			total += src.Size
		}
		fmt.Fprintln(env.Stderr, ui.MutedStyle.Render(fmt.Sprintf("Uploading %d files (%s)", len(sources), ui.FormatSize(total))))
	}
	results := runUploads(ctx, env, item, sources)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("upload: %d of %d file(s) failed", failed, len(results))
	}
	return nil
}

// collectSources opens every argument as an upload source. Patterns are
// expanded against the local filesystem and "-" spools stdin.
func collectSources(s *session.Session, env *ExecutionEnv, args []string, stdinName string) ([]upload.Source, []io.Closer, error) {
	var sources []upload.Source
	var closers []io.Closer

	add := func(src upload.Source, c io.Closer) {
		sources = append(sources, src)
		closers = append(closers, c)
	}

	for _, arg := range args {
		if arg == "-" {
			if stdinName == "" {
				return sources, closers, fmt.Errorf("reading from stdin requires --name")
			}
			src, c, err := upload.SpoolReader(env.Stdin, stdinName, s.MaxMemoryBytes())
			if err != nil {
				return sources, closers, fmt.Errorf("stdin: %w", err)
			}
			add(src, c)
			continue
		}

		paths := []string{arg}
		if hasGlobMeta(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return sources, closers, fmt.Errorf("%s: %w", arg, err)
			}
			if len(matches) == 0 {
				return sources, closers, fmt.Errorf("%s: no matches", arg)
			}
			paths = matches
		}
		for _, p := range paths {
			src, c, err := upload.OpenFile(p)
			if err != nil {
				return sources, closers, err
			}
			add(src, c)
		}
	}
	return sources, closers, nil
}

// runUploads uploads sources with a progress bar per file on a terminal and one
// line per finished file otherwise.
func runUploads(ctx context.Context, env *ExecutionEnv, item *session.MountedItem, sources []upload.Source) []upload.Result {
	id := item.ID()

	if isTerminal(env.Stdout) {
		names := make([]string, len(sources))
		for i, src := range sources {
			names[i] = src.Name
		}
		resCh := make(chan []upload.Result, 1)
		err := ui.RunUploads(names, func(r ui.ProgressReporter) {
			results := item.Uploader.UploadAll(ctx, sources, id, r.Progress)
			for _, res := range results {
				r.Done(res.File.FileName, res.Err != nil, resultDetail(res))
			}
			resCh <- results
		})
		// Uploads keep running when the view exits early
		results := <-resCh
		if err != nil {
			item.Uploader.Logger.Warn("progress view failed", "item_id", id, "error", err)
			printResults(env, results)
		}
		return results
	}

	results := item.Uploader.UploadAll(ctx, sources, id, nil)
	printResults(env, results)
	return results
}

func resultDetail(r upload.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

func printResults(env *ExecutionEnv, results []upload.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "%s %s: %v\n", ui.ErrorStyle.Render("✗"), r.File.FileName, r.Err)
			continue
		}
		fmt.Fprintf(env.Stdout, "%s %s\n", ui.SuccessStyle.Render("✓"), r.File.FileName)
	}
}

func fileStatusStyle(st upload.FileStatus) lipgloss.Style {
	switch st {
	case upload.StatusCompleted:
		return ui.SuccessStyle
	case upload.StatusError:
		return ui.ErrorStyle
	}
	return ui.InfoStyle
}

func files(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	item, err := requireItem(s)
	if err != nil {
		return err
	}

	tracked := item.Tracker.Files()
	if len(tracked) == 0 {
		fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("No files yet (use 'upload <file>')."))
		return nil
	}

	table := ui.NewTable(env.Stdout)
	table.SetHeaders("TYPE", "STATUS", "PROGRESS", "NAME", "MESSAGE")
	table.SetMaxWidth(4, 40)
	for _, f := range tracked {
		table.AddRow(
			ui.StyleForExtension(f.Type).Render(f.Type),
			fileStatusStyle(f.Status).Render(string(f.Status)),
			strconv.Itoa(f.Progress)+"%",
			f.FileName,
			f.Message,
		)
	}
	table.Render()
	return nil
}
