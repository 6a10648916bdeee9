package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gYonder/genai-shell/internal/logger"
)

// maxRetryDelay caps both the backoff and a server supplied Retry-After
const maxRetryDelay = 30 * time.Second

// HTTPClient talks to the genai backend. JSON calls go through Client with
// the bearer token; presigned transfers use TransferClient and no auth.
type HTTPClient struct {
	Client         *http.Client
	TransferClient *http.Client
	Logger         *logger.Logger
	BaseURL        string
	Token          string
	// UploadProxyURL, when set, replaces the scheme and host of presigned URLs so
	// that transfers go through a local development proxy.
	UploadProxyURL string
	BaseRetryDelay time.Duration
	MaxRetries     int
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:        baseURL,
		Token:          token,
		Client:         &http.Client{Timeout: 40 * time.Second},
		TransferClient: &http.Client{Timeout: 10 * time.Minute},
		Logger:         logger.Nop(),
		BaseRetryDelay: 500 * time.Millisecond,
		MaxRetries:     5,
	}
}

// shouldRetry reports whether an answer with this status is worth repeating
func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// idempotent reports whether repeating a request with this method after the
// server received it is harmless. POST creates a row or starts a job each time.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// notSent reports whether err happened before the request reached the server
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// retryDelay is the wait before attempt+1. A Retry-After in seconds wins over
// exponential backoff with up to 25% jitter.
func (c *HTTPClient) retryDelay(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, maxRetryDelay)
		}
	}
	backoff := c.BaseRetryDelay << attempt
	if backoff <= 0 || backoff > maxRetryDelay {
		return maxRetryDelay
	}
	return backoff + time.Duration(rand.Int63n(int64(backoff)/4+1))
}

// DoWithRetry sends req, repeating it on transport errors, 429 and 5xx.
// A POST is repeated only on 429 and on connection errors that kept it from
// reaching the server; any other answer is returned as is. A body is buffered
// once so every attempt can replay it. 401 is returned as ErrTokenExpired
// without retrying.
func (c *HTTPClient) DoWithRetry(req *http.Request) (*http.Response, error) {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	repeatable := idempotent(req.Method)
	var lastStatus int
	var lastErr error
	for attempt := 0; ; attempt++ {
		if payload != nil {
			req.Body = io.NopCloser(bytes.NewReader(payload))
			req.ContentLength = int64(len(payload))
		}

		resp, err := c.Client.Do(req)
		switch {
		case err != nil:
			if hint, ok := tlsHint(err); ok {
				return nil, fmt.Errorf("%w\n\n%s", err, hint)
			}
			if !repeatable && !notSent(err) {
				return nil, err
			}
			lastErr, lastStatus = err, 0
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrTokenExpired
		case !shouldRetry(resp.StatusCode):
			return resp, nil
		case !repeatable && resp.StatusCode != http.StatusTooManyRequests:
			return resp, nil
		default:
			lastErr, lastStatus = nil, resp.StatusCode
		}

		if attempt >= c.MaxRetries {
			if resp != nil {
				resp.Body.Close()
			}
			break
		}

		delay := c.retryDelay(attempt, resp)
		if resp != nil {
			resp.Body.Close()
		}
		c.Logger.Debug("retrying request",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", req.Header.Get("X-Request-ID"),
			"attempt", attempt+1,
			"status", lastStatus,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.MaxRetries, lastErr)
	}
	return nil, fmt.Errorf("server returned %d after %d retries", lastStatus, c.MaxRetries)
}

// tlsHint recognizes certificate and handshake failures, which retrying
// cannot fix, and returns advice for the user.
func tlsHint(err error) (string, bool) {
	msg := strings.ToUpper(err.Error())
	switch {
	case strings.Contains(msg, "CERTIFICATE"):
		return "Certificate verification failed. Check api_url and your system certificates.", true
	case strings.Contains(msg, "TLS"), strings.Contains(msg, "SSL"), strings.Contains(msg, "HANDSHAKE"):
		return "TLS handshake failed. A local backend usually needs http:// in api_url.", true
	}
	return "", false
}
