package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call performs one JSON request and returns the status and raw body. Every
// request carries a fresh X-Request-ID that is also logged.
func (c *HTTPClient) call(ctx context.Context, method, path string, query url.Values, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return 0, nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.DoWithRetry(req)
	if err != nil {
		c.Logger.Warn("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	c.Logger.Debug("api request",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
		"bytes", len(raw),
	)
	return resp.StatusCode, raw, nil
}

// doJSON sends in as JSON and decodes the answer into out. A nil out skips
// decoding. okStatuses narrows the accepted statuses; by default any 2xx is
// fine. A body that does not decode into out is reported as ErrSchema.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, in any, out any, okStatuses ...int) error {
	status, raw, err := c.call(ctx, method, path, query, in)
	if err != nil {
		return err
	}

	accepted := status >= 200 && status < 300
	if len(okStatuses) > 0 {
		accepted = slices.Contains(okStatuses, status)
	}
	if !accepted {
		msg := extractAPIError(raw)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
		}
		return &APIError{Method: method, Path: path, Status: status, Message: msg}
	}

	if out == nil {
		return nil
	}
	switch trimmed := bytes.TrimSpace(raw); {
	case len(trimmed) == 0:
		return fmt.Errorf("%s %s: %w: empty response", method, path, ErrSchema)
	case trimmed[0] == '<':
		return fmt.Errorf("%s %s: %w: got HTML (status %d)", method, path, ErrSchema, status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrSchema, err)
	}
	return nil
}
