package shell

import "github.com/gYonder/genai-shell/internal/session"

// NewForTest returns a Shell without a readline instance
func NewForTest(s *session.Session, history ...string) *Shell {
	return &Shell{Session: s, sessionHistory: history}
}

// ExpandHistoryForTest exposes expandHistory
func (sh *Shell) ExpandHistoryForTest(line string) (string, error) {
	return sh.expandHistory(line)
}
