package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const bucketUploadPath = "/bucket/upload"

// HashFile returns the lowercase hex SHA-256 digest of everything read from r.
func HashFile(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DetectContentType sniffs the MIME type of r from its magic bytes and rewinds it.
// Falls back to extension-based detection, then application/octet-stream.
func DetectContentType(r io.ReadSeeker, filename string) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect mime type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	mimeType := mtype.String()
	if mimeType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".pdf":
			mimeType = "application/pdf"
		case ".png":
			mimeType = "image/png"
		case ".jpg", ".jpeg":
			mimeType = "image/jpeg"
		case ".txt":
			mimeType = "text/plain"
		case ".md":
			mimeType = "text/markdown"
		}
	}
	return mimeType, nil
}

// RequestUpload asks the backend for a presigned transfer descriptor.
// A response without a presigned URL fails with ErrPresignMissing.
func (c *HTTPClient) RequestUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodPost, bucketUploadPath, nil, req, &info); err != nil {
		return nil, fmt.Errorf("presign request failed: %w", err)
	}
	if strings.TrimSpace(info.PresignedURL) == "" {
		return nil, ErrPresignMissing
	}
	if _, err := url.ParseRequestURI(info.PresignedURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPresignMissing, err)
	}
	return &info, nil
}

// CompleteUpload tells the backend the transfer finished and returns the
// canonical stored-file record.
func (c *HTTPClient) CompleteUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodPut, bucketUploadPath, nil, req, &info); err != nil {
		return nil, fmt.Errorf("failed to notify backend of completion: %w", err)
	}
	return &info, nil
}

// TransferToPresignedURL streams size bytes from body to the presigned destination.
// onProgress receives non-decreasing integer percentages. Only a 2xx answer succeeds;
// anything else is a *TransferError carrying the status and response body.
func (c *HTTPClient) TransferToPresignedURL(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
	if method == "" {
		method = http.MethodPut
	}
	target, err := c.proxiedURL(destination)
	if err != nil {
		return &TransferError{Err: err}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	pr := &percentReader{Reader: body, Total: size, Callback: onProgress, last: -1}
	var reqBody io.Reader = pr
	if size <= 0 {
		reqBody = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return &TransferError{Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	pr.report(0)
	resp, err := c.TransferClient.Do(req)
	if err != nil {
		c.Logger.Warn("presigned transfer failed", "url", target, "error", err)
		return &TransferError{Err: fmt.Errorf("network error during upload: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &TransferError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if size <= 0 {
		pr.report(100)
	}
	return nil
}

// proxiedURL rewrites destination onto UploadProxyURL, keeping path and query.
func (c *HTTPClient) proxiedURL(destination string) (string, error) {
	parsed, err := url.Parse(destination)
	if err != nil {
		return "", fmt.Errorf("invalid presigned URL: %w", err)
	}
	if c.UploadProxyURL == "" {
		return parsed.String(), nil
	}
	proxied := strings.TrimRight(c.UploadProxyURL, "/") + parsed.EscapedPath()
	if parsed.RawQuery != "" {
		proxied += "?" + parsed.RawQuery
	}
	return proxied, nil
}

// percentReader reports read progress as a whole percentage of Total, rounded down
type percentReader struct {
	Reader   io.Reader
	Callback func(int)
	Total    int64
	current  int64
	last     int
}

func (pr *percentReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		if pr.Total > 0 {
			// floor: 100 only once every byte was handed over
			pct := int(pr.current * 100 / pr.Total)
			pr.report(pct)
		}
	}
	return n, err
}

func (pr *percentReader) report(pct int) {
	if pct > 100 {
		pct = 100
	}
	if pct <= pr.last {
		return
	}
	pr.last = pct
	if pr.Callback != nil {
		pr.Callback(pct)
	}
}
