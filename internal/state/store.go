// Package state holds the snapshot of the item currently open in the session.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gYonder/genai-shell/internal/api"
)

// Field names a single updatable field of the item snapshot
type Field string

const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldStatus        Field = "status"
	FieldFilenames     Field = "filenames"
	FieldSummary       Field = "summary"
	FieldFlashcards    Field = "flashcards"
	FieldFailedJobType Field = "failedJobType"
)

// ErrFieldType is returned when Update receives a value of the wrong Go type for the field.
var ErrFieldType = errors.New("value has wrong type for field")

// ErrUnknownField is returned when Update receives a field the store does not hold.
var ErrUnknownField = errors.New("unknown item field")

// Listener receives the new snapshot and the field that changed
type Listener func(item api.CategoryItemDetails, field Field)

type subscription struct {
	fn Listener
	id int
}

// ItemStore owns the CategoryItemDetails snapshot. Every write replaces the snapshot
// with a modified copy and notifies subscribers synchronously, outside the lock.
type ItemStore struct {
	item      api.CategoryItemDetails
	listeners []subscription
	nextID    int
	mu        sync.Mutex
}

func NewItemStore(item api.CategoryItemDetails) *ItemStore {
	return &ItemStore{item: item.Clone()}
}

// Snapshot returns a copy of the current item
func (s *ItemStore) Snapshot() api.CategoryItemDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item.Clone()
}

func (s *ItemStore) ID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item.ID
}

func (s *ItemStore) Status() api.ItemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item.Status
}

// Subscribe registers fn and returns a function that removes it.
func (s *ItemStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Update sets one field. Only the value's Go type is checked.
func (s *ItemStore) Update(field Field, value any) error {
	return s.apply(field, func(item *api.CategoryItemDetails) error {
		var ok bool
		switch field {
		case FieldName:
			item.Name, ok = value.(string)
		case FieldDescription:
			item.Description, ok = value.(string)
		case FieldStatus:
			switch v := value.(type) {
			case api.ItemStatus:
				item.Status, ok = v, true
			case string:
				item.Status, ok = api.ItemStatus(v), true
			}
		case FieldSummary:
			item.Summary, ok = value.(string)
		case FieldFailedJobType:
			item.FailedJobType, ok = value.(string)
		case FieldFilenames:
			var names []string
			if names, ok = value.([]string); ok {
				item.Filenames = append([]string(nil), names...)
			}
		case FieldFlashcards:
			var cards []api.Flashcard
			if cards, ok = value.([]api.Flashcard); ok {
				item.Flashcards = append([]api.Flashcard(nil), cards...)
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrFieldType, field, value)
		}
		return nil
	})
}

// AppendFilename adds name to the filenames field in a single locked step, so
// concurrent uploads never drop each other's entries.
func (s *ItemStore) AppendFilename(name string) {
	_ = s.apply(FieldFilenames, func(item *api.CategoryItemDetails) error {
		item.Filenames = append(item.Filenames, name)
		return nil
	})
}

func (s *ItemStore) apply(field Field, mutate func(*api.CategoryItemDetails) error) error {
	s.mu.Lock()
	next := s.item.Clone()
	if err := mutate(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.item = next
	listeners := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(next.Clone(), field)
	}
	return nil
}
