package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfContent = "%PDF-1.4\nhello notes\n"

func source(name, content string) upload.Source {
	return upload.Source{Body: bytes.NewReader([]byte(content)), Name: name, Size: int64(len(content))}
}

func newOrchestrator(client api.GenAIClient) (*upload.Orchestrator, *upload.Tracker) {
	tr := upload.NewTracker()
	o := upload.NewOrchestrator(client, tr, nil)
	upload.SetClockForTest(o, func() time.Time { return time.UnixMilli(1700000000000) })
	return o, tr
}

func presignOK(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
	return &api.FileInfo{FileName: req.FileName, PresignedURL: "https://x/y", Method: "PUT"}, nil
}

func TestOrchestrator_Upload_Completes(t *testing.T) {
	var presignReq, notifyReq api.FileUploadRequest
	var transferred []byte
	client := &api.MockGenAIClient{
		RequestUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			presignReq = req
			return presignOK(ctx, req)
		},
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			assert.Equal(t, "https://x/y", destination)
			assert.Equal(t, "PUT", method)
			assert.Equal(t, "application/pdf", contentType)
			transferred, _ = io.ReadAll(body)
			onProgress(0)
			onProgress(50)
			onProgress(100)
			return nil
		},
		CompleteUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			notifyReq = req
			return &api.FileInfo{FileName: req.FileName, OriginalFileName: req.OriginalFileName}, nil
		},
	}
	o, tr := newOrchestrator(client)
	var completed []string
	o.OnCompleted = func(f upload.MaterialFile) { completed = append(completed, f.FileName) }

	var reported []int
	file, err := o.Upload(context.Background(), source("notes.pdf", pdfContent), 42, func(p int) { reported = append(reported, p) })

	require.NoError(t, err)
	assert.Equal(t, upload.MaterialFile{FileName: "notes.pdf", Type: "pdf", Status: upload.StatusCompleted, Progress: 100}, file)
	assert.Equal(t, []int{0, 50, 100}, reported)
	assert.Equal(t, []byte(pdfContent), transferred, "transfer reads the whole file after hashing")

	hash, _ := api.HashFile(bytes.NewReader([]byte(pdfContent)))
	assert.Equal(t, "1700000000000_"+hash+"_notes.pdf", presignReq.FileName)
	assert.Equal(t, "notes.pdf", presignReq.OriginalFileName)
	assert.Equal(t, int64(42), presignReq.CategoryItemID)
	assert.Equal(t, presignReq, notifyReq, "notify reuses the presign key")

	assert.Equal(t, []string{"notes.pdf"}, completed)
	assert.False(t, tr.Uploading())
}

func TestOrchestrator_Upload_DuplicateRejectedBeforeNetwork(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			t.Fatal("presign must not be called for a duplicate")
			return nil, nil
		},
	}
	o, tr := newOrchestrator(client)
	tr.Seed([]string{"notes.pdf"})

	_, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	assert.ErrorIs(t, err, upload.ErrDuplicateFile)
	f, _ := tr.Get("notes.pdf")
	assert.Equal(t, upload.StatusCompleted, f.Status, "existing entry untouched")
}

func TestOrchestrator_Upload_UnsupportedType(t *testing.T) {
	o, tr := newOrchestrator(&api.MockGenAIClient{})

	_, err := o.Upload(context.Background(), source("script.exe", "MZ"), 1, nil)

	assert.ErrorIs(t, err, upload.ErrUnsupportedType)
	assert.Empty(t, tr.Files())
}

func TestOrchestrator_Upload_PresignMissing(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			return nil, api.ErrPresignMissing
		},
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			t.Fatal("transfer must not run without a presigned URL")
			return nil
		},
	}
	o, tr := newOrchestrator(client)

	file, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	assert.ErrorIs(t, err, api.ErrPresignMissing)
	assert.Equal(t, upload.StatusError, file.Status)
	assert.Equal(t, 0, file.Progress)
	f, _ := tr.Get("notes.pdf")
	assert.Equal(t, upload.StatusError, f.Status)
}

func TestOrchestrator_Upload_NotifyFailureStillCompleted(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			onProgress(100)
			return nil
		},
		CompleteUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			return nil, errors.New("backend down")
		},
	}
	o, _ := newOrchestrator(client)
	called := false
	o.OnCompleted = func(upload.MaterialFile) { called = true }

	file, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	require.Error(t, err, "the notify failure is still reported")
	assert.Contains(t, err.Error(), "upload failed")
	assert.Equal(t, upload.StatusCompleted, file.Status)
	assert.True(t, called)
}

func TestOrchestrator_Upload_TransferErrorKeepsProgress(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			onProgress(40)
			return &api.TransferError{StatusCode: 403, Body: "SignatureDoesNotMatch"}
		},
		CompleteUploadFunc: func(ctx context.Context, req api.FileUploadRequest) (*api.FileInfo, error) {
			t.Fatal("notify must not run after a failed transfer")
			return nil, nil
		},
	}
	o, _ := newOrchestrator(client)

	file, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	var tErr *api.TransferError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 403, tErr.StatusCode)
	assert.Equal(t, upload.StatusError, file.Status)
	assert.Equal(t, 40, file.Progress)
	assert.Contains(t, file.Message, "SignatureDoesNotMatch")
}

func TestOrchestrator_Upload_IncompleteTransferIsError(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			onProgress(60)
			return nil
		},
	}
	o, _ := newOrchestrator(client)

	file, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	require.Error(t, err)
	assert.Equal(t, upload.StatusError, file.Status)
	assert.Equal(t, 60, file.Progress)
}

func TestOrchestrator_Upload_RetryAfterError(t *testing.T) {
	attempt := 0
	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			attempt++
			if attempt == 1 {
				return &api.TransferError{Err: errors.New("connection reset")}
			}
			onProgress(100)
			return nil
		},
	}
	o, tr := newOrchestrator(client)

	_, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)
	require.Error(t, err)
	file, err := o.Upload(context.Background(), source("notes.pdf", "x"), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusCompleted, file.Status)
	assert.Len(t, tr.Files(), 1)
}

func TestOrchestrator_UploadAll_RunsConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			started.Done()
			select {
			case <-allStarted:
			case <-time.After(2 * time.Second):
				return errors.New("uploads did not overlap")
			}
			data, _ := io.ReadAll(body)
			if string(data) == "bad" {
				onProgress(10)
				return errors.New("connection reset")
			}
			onProgress(100)
			return nil
		},
	}
	o, tr := newOrchestrator(client)
	o.Concurrency = 3

	var mu sync.Mutex
	progress := map[string][]int{}
	results := o.UploadAll(context.Background(), []upload.Source{
		source("a.pdf", "aaa"),
		source("b.png", "bad"),
		source("c.jpg", "ccc"),
	}, 7, func(name string, pct int) {
		mu.Lock()
		progress[name] = append(progress[name], pct)
		mu.Unlock()
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a.pdf", results[0].File.FileName)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, upload.StatusCompleted, results[0].File.Status)
	assert.Error(t, results[1].Err)
	assert.Equal(t, upload.StatusError, results[1].File.Status)
	assert.Equal(t, 10, results[1].File.Progress)
	assert.Equal(t, upload.StatusCompleted, results[2].File.Status)

	assert.Equal(t, []int{100}, progress["a.pdf"])
	assert.Equal(t, []int{10}, progress["b.png"])
	assert.False(t, tr.Uploading())
}

func TestOrchestrator_UploadAll_RejectedFileReported(t *testing.T) {
	client := &api.MockGenAIClient{
		RequestUploadFunc: presignOK,
		TransferFunc: func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
			onProgress(100)
			return nil
		},
	}
	o, _ := newOrchestrator(client)

	results := o.UploadAll(context.Background(), []upload.Source{source("a.txt", "x"), source("b.pdf", "y")}, 1, nil)

	assert.ErrorIs(t, results[0].Err, upload.ErrUnsupportedType)
	assert.Equal(t, upload.StatusError, results[0].File.Status)
	assert.Equal(t, "a.txt", results[0].File.FileName)
	assert.NoError(t, results[1].Err)
}

func TestOrchestrator_Allowed(t *testing.T) {
	o, _ := newOrchestrator(&api.MockGenAIClient{})
	assert.True(t, o.Allowed("Scan.JPG"))
	assert.False(t, o.Allowed("notes.md"))

	o.AllowedExtensions = nil
	assert.True(t, o.Allowed("notes.md"))
}
