// Package upload moves local files into an item: hash, presign, transfer, notify,
// and the per-file bookkeeping shown in the progress view.
package upload

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gYonder/genai-shell/internal/api"
)

// FileStatus is the lifecycle state of a tracked file
type FileStatus string

const (
	StatusUploading FileStatus = "uploading"
	StatusCompleted FileStatus = "completed"
	StatusError     FileStatus = "error"
)

// IsTerminal reports whether the status can no longer change
func (s FileStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

var (
	// ErrDuplicateFile is returned when a file with the same name is uploading or already stored.
	ErrDuplicateFile = errors.New("a file with this name is already attached")
	// ErrUnsupportedType is returned for files outside the allowed extension list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNotTracked is returned for operations on a name the tracker does not know.
	ErrNotTracked = errors.New("file is not tracked")
)

// MaterialFile is one file attached to the open item
type MaterialFile struct {
	FileName string
	Type     string // extension without the dot
	Status   FileStatus
	Progress int
	Message  string // last error, if any
}

// Tracker records the state of every file of the open item in insertion order.
// Terminal entries are never modified; a failed entry may be replaced by a retry.
type Tracker struct {
	files     map[string]*MaterialFile
	listeners map[int]func(MaterialFile)
	order     []string
	nextID    int
	mu        sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		files:     make(map[string]*MaterialFile),
		listeners: make(map[int]func(MaterialFile)),
	}
}

// Seed registers files already stored on the backend as completed.
func (t *Tracker) Seed(filenames []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range filenames {
		if _, exists := t.files[name]; exists {
			continue
		}
		t.files[name] = &MaterialFile{
			FileName: name,
			Type:     api.FileExtension(name),
			Status:   StatusCompleted,
			Progress: 100,
		}
		t.order = append(t.order, name)
	}
}

// Begin registers name as uploading at 0%. It fails with ErrDuplicateFile when the
// name is uploading or completed.
func (t *Tracker) Begin(name string) error {
	t.mu.Lock()
	existing, exists := t.files[name]
	if exists && existing.Status != StatusError {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateFile, name)
	}
	f := &MaterialFile{FileName: name, Type: api.FileExtension(name), Status: StatusUploading}
	t.files[name] = f
	if !exists {
		t.order = append(t.order, name)
	}
	snapshot := *f
	t.mu.Unlock()

	t.notify(snapshot)
	return nil
}

// SetProgress records pct for an uploading file. Values are clamped to 0-100 and
// never move backwards.
func (t *Tracker) SetProgress(name string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	t.mu.Lock()
	f, ok := t.files[name]
	if !ok || f.Status.IsTerminal() || pct <= f.Progress {
		t.mu.Unlock()
		return
	}
	f.Progress = pct
	snapshot := *f
	t.mu.Unlock()

	t.notify(snapshot)
}

// Finalize moves an uploading file to its terminal status: completed if and only if
// its progress reached 100, error otherwise. cause, when set, is kept as the message.
func (t *Tracker) Finalize(name string, cause error) (MaterialFile, error) {
	t.mu.Lock()
	f, ok := t.files[name]
	if !ok {
		t.mu.Unlock()
		return MaterialFile{}, fmt.Errorf("%w: %s", ErrNotTracked, name)
	}
	if f.Status.IsTerminal() {
		snapshot := *f
		t.mu.Unlock()
		return snapshot, nil
	}
	if f.Progress >= 100 {
		f.Status = StatusCompleted
	} else {
		f.Status = StatusError
	}
	if cause != nil {
		f.Message = cause.Error()
	}
	snapshot := *f
	t.mu.Unlock()

	t.notify(snapshot)
	return snapshot, nil
}

// Get returns the tracked file named name
func (t *Tracker) Get(name string) (MaterialFile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.files[name]
	if !ok {
		return MaterialFile{}, false
	}
	return *f, true
}

// Files returns a snapshot of all tracked files in insertion order
func (t *Tracker) Files() []MaterialFile {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]MaterialFile, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.files[name])
	}
	return out
}

// Uploading reports whether any file is still in flight
func (t *Tracker) Uploading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.files {
		if f.Status == StatusUploading {
			return true
		}
	}
	return false
}

// Subscribe registers fn to be called after every change. The returned function
// removes it.
func (t *Tracker) Subscribe(fn func(MaterialFile)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) notify(f MaterialFile) {
	t.mu.Lock()
	fns := make([]func(MaterialFile), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(f)
	}
}
