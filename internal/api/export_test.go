package api

import "io"

// ExtractAPIErrorForTest exposes extractAPIError for testing
func ExtractAPIErrorForTest(body []byte) string {
	return extractAPIError(body)
}

// ProxiedURLForTest exposes proxiedURL for testing
func ProxiedURLForTest(c *HTTPClient, destination string) (string, error) {
	return c.proxiedURL(destination)
}

// ReadProgressForTest reads all of r through a percentReader of size total
// and returns every reported percentage
func ReadProgressForTest(r io.Reader, total int64) ([]int, error) {
	var reported []int
	pr := &percentReader{Reader: r, Total: total, Callback: func(pct int) { reported = append(reported, pct) }}
	_, err := io.Copy(io.Discard, pr)
	return reported, err
}
