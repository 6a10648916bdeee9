package api

import (
	"fmt"
	"strings"
)

// ItemStatus is the generation lifecycle state of a category item.
type ItemStatus string

const (
	StatusPending    ItemStatus = "PENDING"
	StatusProcessing ItemStatus = "PROCESSING"
	StatusCompleted  ItemStatus = "COMPLETED"
	StatusFailed     ItemStatus = "FAILED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further polling happens after s.
func (s ItemStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Category is a top-level grouping of items
type Category struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	CreatedAt     string             `json:"createdAt"`
	CategoryItems []CategoryListItem `json:"categoryItems"`
}

// CategoryListItem is the header of an item as listed under its category
type CategoryListItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// CategoryHeader identifies the parent category of an item
type CategoryHeader struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Flashcard is a generated question/answer pair. Immutable once received.
type Flashcard struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CategoryItemDetails is the full item snapshot returned by GET /category-item/{id}.
type CategoryItemDetails struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	CreatedAt     string         `json:"createdAt"`
	Category      CategoryHeader `json:"category"`
	Status        ItemStatus     `json:"status"`
	Filenames     []string       `json:"filenames"`
	Summary       string         `json:"summary"`
	Flashcards    []Flashcard    `json:"flashcards"`
	FailedJobType string         `json:"failedJobType,omitempty"`
}

// Clone returns a copy that shares no slices with d.
func (d CategoryItemDetails) Clone() CategoryItemDetails {
	out := d
	if d.Filenames != nil {
		out.Filenames = append([]string(nil), d.Filenames...)
	}
	if d.Flashcards != nil {
		out.Flashcards = append([]Flashcard(nil), d.Flashcards...)
	}
	return out
}

// StatusInfo is the response of GET /category-item/{id}/status
type StatusInfo struct {
	Status        ItemStatus `json:"status"`
	FailedJobType string     `json:"failedJobType,omitempty"`
}

// Validate checks the poll response against the known status set.
func (s *StatusInfo) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown item status %q", ErrSchema, s.Status)
	}
	return nil
}

// Generation holds the artifacts produced for a completed item
type Generation struct {
	Summary    string      `json:"summary"`
	Flashcards []Flashcard `json:"flashcards"`
}

// CreateCategoryRequest is the body of POST /category
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategoryItemRequest is the body of POST /category-item
type CreateCategoryItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  int64  `json:"categoryId"`
}

// FileUploadRequest is the body sent to both POST and PUT /bucket/upload.
// FileName is the composite storage key built by StorageKey.
type FileUploadRequest struct {
	FileName         string `json:"fileName"`
	OriginalFileName string `json:"originalFileName"`
	CategoryItemID   int64  `json:"categoryItemId"`
}

// FileInfo is the backend's file descriptor. PresignedURL and Method are only
// populated on the presign response.
type FileInfo struct {
	FileName         string `json:"fileName"`
	OriginalFileName string `json:"originalFileName"`
	CategoryItemID   int64  `json:"categoryItemId,omitempty"`
	PresignedURL     string `json:"presignedURL,omitempty"`
	Method           string `json:"method,omitempty"`
	Uploaded         *bool  `json:"uploaded,omitempty"`
	URLExpiresAt     string `json:"urlExpiresAt,omitempty"`
}

// StorageKey builds the composite object name {freshness}_{hash}_{original}.
func StorageKey(freshness, hash, originalName string) string {
	return freshness + "_" + hash + "_" + originalName
}

// FileExtension returns the lowercased extension of name without the dot,
// or "unknown" when there is none.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "unknown"
	}
	return strings.ToLower(name[idx+1:])
}
