package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lovecore/engine"
)

// placeName capitalizes a location or time name: "cafe" -> "Cafe".
func placeName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderStatusBar produces a full-width inverted status line showing the
// calendar and location on the left and currencies and relationships on
// the right.
func (m Model) renderStatusBar() string {
	st := m.session.Status()

	left := fmt.Sprintf(" Day %d %s | %s", st.Day, placeName(st.TimeOfDay.String()), placeName(st.Location.String()))
	right := fmt.Sprintf("♦%d  Clues %d | %s ", st.Diamonds, st.Clues, engine.EpisodeLabel(st.NextEpisode))

	// Show relationships if they fit, otherwise just the currencies.
	if len(st.Characters) > 0 {
		hearts := make([]string, 0, len(st.Characters))
		for _, c := range st.Characters {
			hearts = append(hearts, fmt.Sprintf("%s ♥%d", c.Name, c.Affection))
		}
		candidate := strings.Join(hearts, " ") + " | " + right
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
