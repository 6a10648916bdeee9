package shell_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gYonder/genai-shell/internal/shell"
)

func TestExpandAlias(t *testing.T) {
	aliases := map[string]string{
		"st": "status --refresh",
		"fc": "flashcards -n 10",
	}

	tests := []struct {
		line     string
		want     string
		expanded bool
	}{
		{"st", "status --refresh", true},
		{"fc --copy", "flashcards -n 10 --copy", true},
		{"  st  ", "status --refresh", true},
		{"status", "status", false},
		{"ls st", "ls st", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := shell.ExpandAlias(tt.line, aliases)
			assert.Equal(t, tt.expanded, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := shell.ExpandAlias("st", nil)
	assert.False(t, ok)
	assert.Equal(t, "st", got)
}

func TestExpandAlias_Chains(t *testing.T) {
	aliases := map[string]string{
		"g":   "gen",
		"gen": "generate -y",
		"ls":  "ls -l",
		"a":   "b",
		"b":   "a x",
	}

	got, ok := shell.ExpandAlias("g --wait", aliases)
	assert.True(t, ok)
	assert.Equal(t, "generate -y --wait", got)

	got, _ = shell.ExpandAlias("ls /Biology", aliases)
	assert.Equal(t, "ls -l /Biology", got)

	got, _ = shell.ExpandAlias("a", aliases)
	assert.Equal(t, "a x", got)
}

func TestExpandHistory_Session(t *testing.T) {
	s, _, _, _ := newTestEnv()
	sh := shell.NewForTest(s, "ls", "open Mitosis", "status")

	got, err := sh.ExpandHistoryForTest("!!")
	require.NoError(t, err)
	assert.Equal(t, "status", got)

	got, err = sh.ExpandHistoryForTest("!-2")
	require.NoError(t, err)
	assert.Equal(t, "open Mitosis", got)

	_, err = sh.ExpandHistoryForTest("!-9")
	assert.Error(t, err)

	_, err = shell.NewForTest(s).ExpandHistoryForTest("!!")
	assert.Error(t, err)
}

func TestExpandHistory_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".genai-shell")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history"), []byte("ls\ncd Biology\nopen Mitosis\n"), 0600))

	s, _, _, _ := newTestEnv()
	sh := shell.NewForTest(s)

	got, err := sh.ExpandHistoryForTest("!2")
	require.NoError(t, err)
	assert.Equal(t, "cd Biology", got)

	got, err = sh.ExpandHistoryForTest("!op")
	require.NoError(t, err)
	assert.Equal(t, "open Mitosis", got)

	_, err = sh.ExpandHistoryForTest("!7")
	assert.Error(t, err)

	_, err = sh.ExpandHistoryForTest("!upload")
	assert.Error(t, err)
}
