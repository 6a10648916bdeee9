package ui_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gYonder/genai-shell/internal/ui"
)

func TestApplyTheme(t *testing.T) {
	defer ui.ApplyTheme("auto")

	assert.Equal(t, ui.ThemeLight, ui.ApplyTheme(" Light "))
	assert.Equal(t, ui.ThemeLight, ui.ActiveTheme())
	assert.Equal(t, ui.ThemeDark, ui.ApplyTheme("dark"))
	assert.Equal(t, ui.DetectTheme(), ui.ApplyTheme("solarized"))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ui.WriteSummary(&buf, "# Mitosis", false))
	assert.Equal(t, "# Mitosis\n", buf.String())

	buf.Reset()
	require.NoError(t, ui.WriteSummary(&buf, "# Mitosis\n", true))
	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Mitosis")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWithSpinner(t *testing.T) {
	t.Run("fast action draws nothing", func(t *testing.T) {
		var buf bytes.Buffer
		v, err := ui.WithSpinner(&buf, "Loading", false, func() (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Empty(t, buf.String())
	})

	t.Run("immediate clears the line", func(t *testing.T) {
		var buf bytes.Buffer
		err := ui.WithSpinnerErr(&buf, "Loading", true, func() error {
			time.Sleep(20 * time.Millisecond)
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Contains(t, buf.String(), "Loading")
		assert.True(t, strings.HasSuffix(buf.String(), "\r\x1b[K"))
	})
}
