package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_ListCategories_Retry(t *testing.T) {
	// Simulate unstable API: fails twice with 500, then succeeds
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"id": 1, "name": "Biology", "description": "cells", "categoryItems": [{"id": 7, "name": "Mitosis"}]}]`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "dummy-token")
	// Speed up retries for test
	client.BaseRetryDelay = 1 * time.Millisecond

	categories, err := client.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Biology", categories[0].Name)
	assert.Equal(t, int64(7), categories[0].CategoryItems[0].ID)
	assert.Equal(t, 3, attempts, "Expected 3 attempts (2 failures + 1 success)")
}

func TestHTTPClient_TokenExpired_Returns401(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Token expired"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "expired-token")
	client.BaseRetryDelay = 1 * time.Millisecond

	_, err := client.ListCategories(context.Background())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrTokenExpired), "Should return ErrTokenExpired")
	assert.Equal(t, 1, attempts, "Should not retry on 401")
}

func TestHTTPClient_RetriesTooManyRequestsAndReplaysBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id": 3, "name": "Chemistry"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	client.BaseRetryDelay = time.Hour // Retry-After must win

	cat, err := client.CreateCategory(context.Background(), "Chemistry", "")
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", cat.Name)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "Chemistry")
}

func TestHTTPClient_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	client.BaseRetryDelay = time.Millisecond
	client.MaxRetries = 2

	_, err := client.ListCategories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 after 2 retries")
	assert.Equal(t, 3, attempts)
}

func TestHTTPClient_PostNotRepeatedOnServerError(t *testing.T) {
	var generation, categories int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/start-generation") {
			generation++
		} else {
			categories++
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	client.BaseRetryDelay = time.Millisecond

	err := client.StartGeneration(context.Background(), 10)
	require.Error(t, err)
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, 1, generation, "start-generation must be sent once")

	_, err = client.CreateCategory(context.Background(), "Chemistry", "")
	require.Error(t, err)
	assert.Equal(t, 1, categories, "POST /category must be sent once")
}

func TestHTTPClient_DeleteRetriedOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	client.BaseRetryDelay = time.Millisecond

	require.NoError(t, client.DeleteCategory(context.Background(), 3))
	assert.Equal(t, 2, attempts)
}

func TestHTTPClient_PostRetriedWhenNotDelivered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // connections are refused from now on

	client := api.NewHTTPClient(url, "")
	client.BaseRetryDelay = time.Millisecond
	client.MaxRetries = 2

	err := client.StartGeneration(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message": "already running"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	client.BaseRetryDelay = time.Millisecond

	err := client.StartGeneration(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
	assert.Equal(t, 1, attempts)
}

func TestHTTPClient_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "secret")
	_, err := client.ListCategories(context.Background())
	require.NoError(t, err)
}

func TestHTTPClient_NoTokenNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	_, err := client.ListCategories(context.Background())
	require.NoError(t, err)
}

func TestHTTPClient_NotFound_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"timestamp": "2024-01-01", "status": 404, "error": "Not Found", "path": "/category/99"}`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	_, err := client.GetCategory(context.Background(), 99)

	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Not Found", apiErr.Message)
}

func TestHTTPClient_HTMLResponse_IsSchemaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>proxy login</body></html>`))
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, "")
	_, err := client.ListCategories(context.Background())

	assert.ErrorIs(t, err, api.ErrSchema)
}

func TestExtractAPIError_WithMessage(t *testing.T) {
	body := []byte(`{"message": "File not found", "errors": {"path": ["Invalid path"]}}`)
	result := api.ExtractAPIErrorForTest(body)
	assert.Contains(t, result, "File not found")
	assert.Contains(t, result, "path")
}

func TestExtractAPIError_FieldErrorsOnly(t *testing.T) {
	body := []byte(`{"errors": {"name": ["Name is required"]}}`)
	result := api.ExtractAPIErrorForTest(body)
	assert.Contains(t, result, "name")
	assert.Contains(t, result, "Name is required")
}

func TestExtractAPIError_SpringError(t *testing.T) {
	body := []byte(`{"status": 500, "error": "Internal Server Error"}`)
	assert.Equal(t, "Internal Server Error", api.ExtractAPIErrorForTest(body))
}

func TestExtractAPIError_InvalidJSON(t *testing.T) {
	// Test fallback to raw body for invalid JSON
	body := []byte(`not json`)
	result := api.ExtractAPIErrorForTest(body)
	assert.Equal(t, "not json", result)
}
