package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/logger"
)

// DefaultAllowedExtensions lists the file types the backend can generate from
var DefaultAllowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}

// DefaultConcurrency is the number of files UploadAll transfers at once
const DefaultConcurrency = 3

// Source is a local file ready to be uploaded. Body is read twice (hash, then
// transfer) and rewound in between.
type Source struct {
	Body io.ReadSeeker
	Name string
	Size int64
}

// Result is the outcome of one file of UploadAll
type Result struct {
	Err  error
	File MaterialFile
}

// Orchestrator runs the hash, presign, transfer and notify steps for each file and
// records the outcome in Tracker.
type Orchestrator struct {
	Client  api.GenAIClient
	Tracker *Tracker
	Logger  *logger.Logger

	AllowedExtensions []string
	Concurrency       int

	// OnCompleted is called once for every file that finishes as completed
	OnCompleted func(MaterialFile)

	now func() time.Time
}

func NewOrchestrator(client api.GenAIClient, tracker *Tracker, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		Client:            client,
		Tracker:           tracker,
		Logger:            log,
		AllowedExtensions: DefaultAllowedExtensions,
		Concurrency:       DefaultConcurrency,
		now:               time.Now,
	}
}

// Allowed reports whether name has one of the allowed extensions
func (o *Orchestrator) Allowed(name string) bool {
	if len(o.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range o.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// Upload attaches src to the item itemID. Type and duplicate checks happen before
// anything is registered or sent. Once registered, the file always ends completed
// (progress reached 100) or error, and a non-nil error describes what went wrong,
// even when the file still counts as completed.
func (o *Orchestrator) Upload(ctx context.Context, src Source, itemID int64, onProgress func(int)) (MaterialFile, error) {
	if !o.Allowed(src.Name) {
		return MaterialFile{}, fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedType, src.Name, strings.Join(o.AllowedExtensions, ", "))
	}
	if err := o.Tracker.Begin(src.Name); err != nil {
		return MaterialFile{}, err
	}

	log := o.Logger.With("file", src.Name, "item_id", itemID)
	stepErr := o.run(ctx, src, itemID, func(pct int) {
		o.Tracker.SetProgress(src.Name, pct)
		if onProgress != nil {
			onProgress(pct)
		}
	})
	if stepErr != nil {
		log.Warn("upload step failed", "error", stepErr)
		stepErr = fmt.Errorf("upload failed: %w", stepErr)
	}

	file, err := o.Tracker.Finalize(src.Name, stepErr)
	if err != nil {
		return file, err
	}
	if file.Status == StatusCompleted {
		log.Info("upload completed")
		if o.OnCompleted != nil {
			o.OnCompleted(file)
		}
	} else if stepErr == nil {
		stepErr = fmt.Errorf("upload failed: transfer stopped at %d%%", file.Progress)
	}
	return file, stepErr
}

func (o *Orchestrator) run(ctx context.Context, src Source, itemID int64, progress func(int)) error {
	if _, err := src.Body.Seek(0, io.SeekStart); err != nil {
		return err
	}
	hash, err := api.HashFile(src.Body)
	if err != nil {
		return err
	}
	if _, err := src.Body.Seek(0, io.SeekStart); err != nil {
		return err
	}

	freshness := strconv.FormatInt(o.now().UnixMilli(), 10)
	req := api.FileUploadRequest{
		FileName:         api.StorageKey(freshness, hash, src.Name),
		OriginalFileName: src.Name,
		CategoryItemID:   itemID,
	}

	info, err := o.Client.RequestUpload(ctx, req)
	if err != nil {
		return err
	}

	contentType, err := api.DetectContentType(src.Body, src.Name)
	if err != nil {
		return err
	}
	if err := o.Client.TransferToPresignedURL(ctx, src.Body, src.Size, contentType, info.PresignedURL, info.Method, progress); err != nil {
		return err
	}

	if _, err := o.Client.CompleteUpload(ctx, req); err != nil {
		return err
	}
	return nil
}

// UploadAll uploads sources concurrently, at most Concurrency at a time. A failure
// never cancels the other files. Results keep the order of sources.
func (o *Orchestrator) UploadAll(ctx context.Context, sources []Source, itemID int64, onProgress func(name string, pct int)) []Result {
	results := make([]Result, len(sources))

	limit := o.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			var cb func(int)
			if onProgress != nil {
				cb = func(pct int) { onProgress(src.Name, pct) }
			}
			file, err := o.Upload(ctx, src, itemID, cb)
			if file.FileName == "" {
				file = MaterialFile{FileName: src.Name, Type: api.FileExtension(src.Name), Status: StatusError}
				if err != nil {
					file.Message = err.Error()
				}
			}
			results[i] = Result{File: file, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
