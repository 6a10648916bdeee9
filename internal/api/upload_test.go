package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	hash, err := api.HashFile(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "1700000000000_ab12_notes.pdf", api.StorageKey("1700000000000", "ab12", "notes.pdf"))
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "pdf", api.FileExtension("Notes.PDF"))
	assert.Equal(t, "gz", api.FileExtension("archive.tar.gz"))
	assert.Equal(t, "unknown", api.FileExtension("README"))
	assert.Equal(t, "unknown", api.FileExtension("trailing."))
}

func TestDetectContentType_FallsBackToExtension(t *testing.T) {
	r := bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03})
	ct, err := api.DetectContentType(r, "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(0), pos, "reader should be rewound")
}

func TestDetectContentType_PDFMagic(t *testing.T) {
	r := bytes.NewReader([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"))
	ct, err := api.DetectContentType(r, "whatever.bin")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)
}

func TestHTTPClient_RequestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bucket/upload", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req api.FileUploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123_abc_notes.pdf", req.FileName)
		assert.Equal(t, "notes.pdf", req.OriginalFileName)
		assert.Equal(t, int64(42), req.CategoryItemID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fileName": "123_abc_notes.pdf", "originalFileName": "notes.pdf", "presignedURL": "http://minio:9000/bucket/123_abc_notes.pdf?X-Amz-Signature=s", "method": "PUT"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	info, err := client.RequestUpload(context.Background(), api.FileUploadRequest{
		FileName:         "123_abc_notes.pdf",
		OriginalFileName: "notes.pdf",
		CategoryItemID:   42,
	})

	require.NoError(t, err)
	assert.Equal(t, "PUT", info.Method)
	assert.Contains(t, info.PresignedURL, "X-Amz-Signature")
}

func TestHTTPClient_RequestUpload_MissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fileName": "k", "originalFileName": "a.pdf"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	_, err := client.RequestUpload(context.Background(), api.FileUploadRequest{FileName: "k"})

	assert.ErrorIs(t, err, api.ErrPresignMissing)
}

func TestHTTPClient_CompleteUpload(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.Write([]byte(`{"fileName": "k", "originalFileName": "a.pdf", "uploaded": true}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	info, err := client.CompleteUpload(context.Background(), api.FileUploadRequest{FileName: "k", OriginalFileName: "a.pdf"})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "a.pdf", info.OriginalFileName)
	require.NotNil(t, info.Uploaded)
	assert.True(t, *info.Uploaded)
}

func TestHTTPClient_Transfer_ProgressMonotonic(t *testing.T) {
	var received []byte
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"), "presigned transfer must not carry the API token")
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	client := api.NewHTTPClient("http://unused", "secret")
	content := bytes.Repeat([]byte("x"), 256*1024)

	var mu sync.Mutex
	var reports []int
	err := client.TransferToPresignedURL(context.Background(), bytes.NewReader(content), int64(len(content)),
		"application/pdf", storage.URL+"/bucket/key", "", func(p int) {
			mu.Lock()
			reports = append(reports, p)
			mu.Unlock()
		})

	require.NoError(t, err)
	assert.Equal(t, content, received)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reports)
	assert.Equal(t, 0, reports[0])
	assert.Equal(t, 100, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i], reports[i-1], "progress must be strictly increasing")
	}
}

func TestHTTPClient_Transfer_EmptyBodyReports100(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	client := api.NewHTTPClient("http://unused", "")
	var last int
	err := client.TransferToPresignedURL(context.Background(), bytes.NewReader(nil), 0, "", storage.URL, "PUT", func(p int) { last = p })

	require.NoError(t, err)
	assert.Equal(t, 100, last)
}

func TestHTTPClient_Transfer_Non2xx(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<Error><Code>SignatureDoesNotMatch</Code></Error>`))
	}))
	defer storage.Close()

	client := api.NewHTTPClient("http://unused", "")
	content := []byte("payload")
	err := client.TransferToPresignedURL(context.Background(), bytes.NewReader(content), int64(len(content)), "", storage.URL, "PUT", nil)

	require.Error(t, err)
	var tErr *api.TransferError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusForbidden, tErr.StatusCode)
	assert.Contains(t, tErr.Body, "SignatureDoesNotMatch")
}

func TestHTTPClient_Transfer_ThroughProxy(t *testing.T) {
	var gotPath, gotQuery string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer proxy.Close()

	client := api.NewHTTPClient("http://unused", "")
	client.UploadProxyURL = proxy.URL + "/minio"
	content := []byte("payload")

	err := client.TransferToPresignedURL(context.Background(), bytes.NewReader(content), int64(len(content)), "",
		"http://minio:9000/genai/1_h_a.pdf?X-Amz-Signature=abc", "PUT", nil)

	require.NoError(t, err)
	assert.Equal(t, "/minio/genai/1_h_a.pdf", gotPath)
	assert.Equal(t, "X-Amz-Signature=abc", gotQuery)
}

func TestProxiedURL(t *testing.T) {
	client := api.NewHTTPClient("http://unused", "")

	direct, err := api.ProxiedURLForTest(client, "http://minio:9000/b/k?sig=1")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/b/k?sig=1", direct)

	client.UploadProxyURL = "http://localhost:5173/minio/"
	proxied, err := api.ProxiedURLForTest(client, "http://minio:9000/b/k?sig=1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/minio/b/k?sig=1", proxied)
}

func TestTransferProgress_HundredOnlyAtLastByte(t *testing.T) {
	data := strings.Repeat("x", 1000)
	// stop 3 bytes short, as a dropped connection would
	reported, err := api.ReadProgressForTest(strings.NewReader(data[:997]), 1000)
	require.NoError(t, err)
	require.NotEmpty(t, reported)
	assert.Equal(t, 99, reported[len(reported)-1])

	reported, err = api.ReadProgressForTest(iotest.OneByteReader(strings.NewReader(data)), 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, reported[len(reported)-1])
	assert.Len(t, reported, 100, "each whole percent once")
}
