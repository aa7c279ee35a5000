package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// nodeDisplayName derives a human-readable name from a node id.
// "greet_friendly" -> "Greet Friendly".
func nodeDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// speaker, the current node, the fact count, and the turn count.
func (m Model) renderStatusBar() string {
	def := m.session.Graph().Def()
	speaker := def.NPC
	if speaker == "" {
		speaker = def.Title
	}

	left := fmt.Sprintf(" %s | %s", speaker, nodeDisplayName(m.session.Current))
	facts := m.session.Store.Snapshot().Len()
	right := fmt.Sprintf("Facts: %d | T:%d ", facts, m.session.Turns)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
