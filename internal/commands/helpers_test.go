package commands_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/commands"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/stretchr/testify/require"
)

const pdfContent = "%PDF-1.4\nlecture notes\n"

func testCategories() []api.Category {
	return []api.Category{
		{ID: 1, Name: "Biology", Description: "Cells and life", CategoryItems: []api.CategoryListItem{
			{ID: 10, Name: "Mitosis"},
			{ID: 11, Name: "Meiosis"},
		}},
		{ID: 2, Name: "History", CategoryItems: []api.CategoryListItem{
			{ID: 20, Name: "Rome"},
		}},
	}
}

// setupTestEnv creates a session backed by a mock client that knows two categories
func setupTestEnv(t *testing.T) (*session.Session, *api.MockGenAIClient, *commands.ExecutionEnv, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	mockClient := &api.MockGenAIClient{
		ListCategoriesFunc: func(ctx context.Context) ([]api.Category, error) {
			return testCategories(), nil
		},
	}

	s := session.NewSession(mockClient, api.NewCategoryCache(), nil)
	s.PollInterval = 10 * time.Millisecond
	t.Cleanup(s.Unmount)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	env := &commands.ExecutionEnv{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	return s, mockClient, env, &stdout, &stderr
}

func run(t *testing.T, s *session.Session, env *commands.ExecutionEnv, name string, args ...string) error {
	t.Helper()
	cmd, ok := commands.Get(name)
	require.True(t, ok, "command %s not registered", name)
	return cmd.Run(context.Background(), s, env, args)
}

func itemDetails(id int64, name string, status api.ItemStatus, filenames ...string) api.CategoryItemDetails {
	return api.CategoryItemDetails{
		ID:        id,
		Name:      name,
		Category:  api.CategoryHeader{ID: 1, Name: "Biology"},
		Status:    status,
		Filenames: filenames,
	}
}

// mountItem loads the cache and opens item at /Biology/<name>
func mountItem(t *testing.T, s *session.Session, item api.CategoryItemDetails) *session.MountedItem {
	t.Helper()
	require.NoError(t, s.Cache.Load(context.Background(), s.Client))
	return s.Mount(context.Background(), "/Biology/"+item.Name, item)
}

// acceptUploads makes the mock presign, transfer and notify succeed
func acceptUploads(m *api.MockGenAIClient) {
	m.RequestUploadFunc = func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
		return &api.FileInfo{FileName: req.FileName, PresignedURL: "http://storage.local/bucket/" + req.FileName, Method: "PUT"}, nil
	}
	m.TransferFunc = func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
		if _, err := io.Copy(io.Discard, body); err != nil {
			return err
		}
		onProgress(100)
		return nil
	}
}

// callLog records calls made from several goroutines
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}
