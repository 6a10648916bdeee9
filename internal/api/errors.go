package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrTokenExpired is returned when the API returns a 401 Unauthorized response,
// indicating the token has expired or is invalid.
var ErrTokenExpired = errors.New("authentication token expired or invalid")

// ErrPresignMissing is returned when the presign response carries no usable URL.
var ErrPresignMissing = errors.New("presign request failed: missing presignedURL")

// ErrSchema marks a response that could not be decoded or validated against the
// expected schema.
var ErrSchema = errors.New("unexpected response schema")

// APIError is a non-2xx answer from the JSON API
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.Path, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// TransferError is returned when the presigned destination rejects the upload.
// Body holds the raw response for diagnostics.
type TransferError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload transfer failed: %v", e.Err)
	}
	return fmt.Sprintf("upload failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *TransferError) Unwrap() error { return e.Err }

// extractAPIError extracts user-friendly error messages from API responses.
// Handles both the Spring error body ({"error", "message"}) and field error maps.
func extractAPIError(body []byte) string {
	var errResp struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return string(body)
	}
	if errResp.Message != "" {
		// If we also have field errors, append the first one
		for field, msgs := range errResp.Errors {
			if len(msgs) > 0 {
				return fmt.Sprintf("%s: %s - %s", errResp.Message, field, msgs[0])
			}
		}
		return errResp.Message
	}
	for field, msgs := range errResp.Errors {
		if len(msgs) > 0 {
			return fmt.Sprintf("%s: %s", field, msgs[0])
		}
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return string(body)
}
