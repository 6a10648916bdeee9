package commands_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gYonder/genai-shell/internal/build"
	"github.com/gYonder/genai-shell/internal/commands"
)

func releaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersion(t *testing.T) {
	s, _, env, stdout, _ := setupTestEnv(t)
	s.Host = "genai.example.com"

	require.NoError(t, run(t, s, env, "version"))

	out := stdout.String()
	assert.Contains(t, out, "genai-shell "+build.Version)
	assert.Contains(t, out, "Backend: genai.example.com")
	assert.NotContains(t, out, "release")
}

func TestVersion_Check(t *testing.T) {
	prev := build.Version
	build.Version = "1.2.0"
	t.Cleanup(func() { build.Version = prev })

	t.Run("newer available", func(t *testing.T) {
		s, _, env, stdout, _ := setupTestEnv(t)
		defer commands.SetReleasesURLForTest(releaseServer(t, "v1.3.0").URL)()

		require.NoError(t, run(t, s, env, "version", "--check"))
		assert.Contains(t, stdout.String(), "newer release is available: v1.3.0")
	})

	t.Run("up to date", func(t *testing.T) {
		s, _, env, stdout, _ := setupTestEnv(t)
		defer commands.SetReleasesURLForTest(releaseServer(t, "v1.2.0").URL)()

		require.NoError(t, run(t, s, env, "version", "-c"))
		assert.Contains(t, stdout.String(), "latest release")
	})

	t.Run("server error", func(t *testing.T) {
		s, _, env, _, _ := setupTestEnv(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		defer commands.SetReleasesURLForTest(srv.URL)()

		err := run(t, s, env, "version", "--check")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
