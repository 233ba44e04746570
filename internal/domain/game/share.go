package game

import (
	"fmt"
	"strings"

	"github.com/edumarques81/songdle/internal/analytics"
)

const unresolvedRow = "⬜⬜⬜⬜⬜"

// ShareText renders the result block of a finished game.
func (s *Session) ShareText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Over() {
		return "", ErrGameInProgress
	}
	return formatShare(s.number, s.state, s.cfg.MaxAttempts), nil
}

// Share returns the result block and records the share.
func (s *Session) Share(method string) (string, error) {
	text, err := s.ShareText()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.track(analytics.ShareClicked(len(s.state.Attempts), s.state.GameWon, method))
	s.mu.Unlock()

	return text, nil
}

func formatShare(number int, st State, maxAttempts int) string {
	emoji, score := "❌", fmt.Sprintf("X/%d", maxAttempts)
	if st.GameWon {
		emoji, score = "🎯", fmt.Sprintf("%d/%d", len(st.Attempts), maxAttempts)
	}

	lastTime := 0.0
	if n := len(st.Attempts); n > 0 {
		lastTime = st.Attempts[n-1].Time
	}

	rows := make([]string, len(st.Attempts))
	for i, a := range st.Attempts {
		if a.Clues == nil {
			rows[i] = unresolvedRow
			continue
		}
		rows[i] = a.Clues.Emoji()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎵 Songdle #%d\n", number)
	fmt.Fprintf(&b, "%s %s intentos\n", emoji, score)
	fmt.Fprintf(&b, "⏱️ %.2f segundos\n", lastTime)
	b.WriteString("\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n¿Puedes superarme?")
	return b.String()
}
