package build

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ReleasesURL is where published versions are listed
const ReleasesURL = "https://api.github.com/repos/gYonder/genai-shell/releases/latest"

// LatestRelease returns the tag of the latest published release at url.
func LatestRelease(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "genai-shell/"+Version)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release check: unexpected status %d", resp.StatusCode)
	}

	var rel struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("release check: %w", err)
	}
	return rel.TagName, nil
}

// Newer reports whether version a is newer than b. A leading "v" is ignored,
// a dev build is older than any release and a release is newer than its
// prereleases. Unparseable versions are never newer.
func Newer(a, b string) bool {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")
	if b == "dev" || b == "" {
		return a != "dev" && a != ""
	}
	if a == "dev" || a == "" {
		return false
	}

	aParts := strings.SplitN(a, "-", 2)
	bParts := strings.SplitN(b, "-", 2)
	aVer := parseVersion(aParts[0])
	bVer := parseVersion(bParts[0])
	if aVer == nil || bVer == nil {
		return false
	}

	for i := 0; i < 3; i++ {
		if aVer[i] != bVer[i] {
			return aVer[i] > bVer[i]
		}
	}
	return len(aParts) == 1 && len(bParts) > 1
}

// parseVersion parses "1.2.3" into [1, 2, 3]. Returns nil on error.
func parseVersion(s string) []int {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil
	}
	result := make([]int, 3)
	for i, p := range parts {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil || n < 0 {
			return nil
		}
		result[i] = n
	}
	return result
}
