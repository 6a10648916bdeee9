package session

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/logger"
	"github.com/gYonder/genai-shell/internal/poller"
	"github.com/gYonder/genai-shell/internal/state"
	"github.com/gYonder/genai-shell/internal/upload"
)

type Session struct {
	Client        api.GenAIClient
	Cache         *api.CategoryCache
	Logger        *logger.Logger
	HistoryGetter func() []string
	Aliases       map[string]string // User-defined command aliases
	ConfigPath    string            // where alias changes are saved; empty disables saving
	Host          string            // backend host shown in the prompt
	CWD           string            // "/" or "/<category>"
	PreviousDir   string

	PollInterval      time.Duration
	UploadConcurrency int
	AllowedExtensions []string
	MaxMemoryBufferMB int // Max MB for buffering piped uploads before using temp files

	// Item is the open item, nil when none is open
	Item *MountedItem
}

// MountedItem is everything wired to the open item: its store, the files
// attached to it, the uploader feeding them and the status poller.
type MountedItem struct {
	Path     string
	Store    *state.ItemStore
	Tracker  *upload.Tracker
	Uploader *upload.Orchestrator
	Poller   *poller.Poller
}

// ID returns the item id
func (m *MountedItem) ID() int64 {
	return m.Store.ID()
}

// MaxMemoryBytes returns the max memory buffer size in bytes
func (s *Session) MaxMemoryBytes() int64 {
	if s.MaxMemoryBufferMB <= 0 {
		return 100 * 1024 * 1024 // Default 100MB
	}
	return int64(s.MaxMemoryBufferMB) * 1024 * 1024
}

func NewSession(client api.GenAIClient, cache *api.CategoryCache, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	s := &Session{
		CWD:               "/",
		Client:            client,
		Cache:             cache,
		Logger:            log,
		Aliases:           make(map[string]string),
		Host:              "genai",
		PollInterval:      poller.DefaultInterval,
		UploadConcurrency: upload.DefaultConcurrency,
		AllowedExtensions: upload.DefaultAllowedExtensions,
	}

	// Default aliases
	s.Aliases["ll"] = "ls -l"
	s.Aliases["quit"] = "exit"
	s.Aliases["cards"] = "flashcards"
	s.Aliases["gen"] = "generate"

	return s
}

func (s *Session) ResolvePath(p string) string {
	if p == "" {
		return s.CWD
	}

	if p == "-" {
		if s.PreviousDir == "" {
			return s.CWD
		}
		return s.PreviousDir
	}

	if p == "~" {
		return "/"
	}
	if strings.HasPrefix(p, "~/") {
		return path.Join("/", p[2:])
	}

	var absolute string
	if path.IsAbs(p) {
		absolute = p
	} else {
		absolute = path.Join(s.CWD, p)
	}

	return path.Clean(absolute)
}

// ChangeDir moves to dir and remembers the previous directory for "cd -".
func (s *Session) ChangeDir(dir string) {
	if dir == s.CWD {
		return
	}
	s.PreviousDir = s.CWD
	s.CWD = dir
}

// CurrentCategory returns the cache entry of the category the session is in
func (s *Session) CurrentCategory() (*api.Entry, bool) {
	if s.CWD == "/" {
		return nil, false
	}
	e, ok := s.Cache.Get(s.CWD)
	if !ok || e.Kind != api.KindCategory {
		return nil, false
	}
	return e, true
}

// ContextName returns the open item's name for the prompt, or empty.
func (s *Session) ContextName() string {
	if s.Item == nil {
		return ""
	}
	return s.Item.Store.Snapshot().Name
}

// Mount opens item at itemPath: a fresh store, the stored filenames seeded into
// the tracker, an uploader that appends completed files to the store, and a
// poller attached to the store. Any previously open item is closed first.
// The poller outlives ctx's cancellation and only ends on Unmount.
func (s *Session) Mount(ctx context.Context, itemPath string, item api.CategoryItemDetails) *MountedItem {
	s.Unmount()

	store := state.NewItemStore(item)
	tracker := upload.NewTracker()
	tracker.Seed(item.Filenames)

	uploader := upload.NewOrchestrator(s.Client, tracker, s.Logger)
	uploader.AllowedExtensions = s.AllowedExtensions
	uploader.Concurrency = s.UploadConcurrency
	uploader.OnCompleted = func(f upload.MaterialFile) {
		store.AppendFilename(f.FileName)
	}

	p := poller.New(s.Client, store, s.Logger, s.PollInterval)
	p.Attach(context.WithoutCancel(ctx))

	s.Item = &MountedItem{
		Path:     itemPath,
		Store:    store,
		Tracker:  tracker,
		Uploader: uploader,
		Poller:   p,
	}
	s.Logger.Debug("item opened", "item_id", item.ID, "path", itemPath, "status", item.Status)
	return s.Item
}

// Unmount closes the open item and stops its poller
func (s *Session) Unmount() {
	if s.Item == nil {
		return
	}
	s.Item.Poller.Stop()
	s.Logger.Debug("item closed", "item_id", s.Item.ID())
	s.Item = nil
}
