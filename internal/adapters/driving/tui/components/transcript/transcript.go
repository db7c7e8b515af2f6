// Package transcript renders a conversation in a scrollable viewport.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// badges gives the mascot assets a terminal rendering. Unknown assets
// are shown by id.
var badges = map[domain.AssetID]string{
	"mascot_hello":    "(•‿•)/ 안녕",
	"mascot_graduate": "(•̀ᴗ•́)🎓",
	"mascot":          "(•ᴗ•)",
	"mascot_love":     "(♡ᴗ♡)",
	"mascot_alarm":    "(°ロ°)!",
}

// Badge returns the terminal label for an asset.
func Badge(id domain.AssetID) string {
	if b, ok := badges[id]; ok {
		return b
	}
	return string(id)
}

// Transcript is a viewport over the turns of one conversation.
type Transcript struct {
	viewport viewport.Model
	styles   *styles.Styles
	turns    []domain.Turn
	pending  string
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		viewport: viewport.New(80, 20),
		styles:   s,
	}
}

// Update scrolls the viewport. Only paging keys reach it so typed text
// stays with the input.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetTurns replaces the conversation and scrolls to the newest turn.
func (t *Transcript) SetTurns(turns []domain.Turn) {
	t.turns = turns
	t.pending = ""
	t.refresh()
}

// SetPending shows a question that has been sent but not yet answered.
func (t *Transcript) SetPending(question string) {
	t.pending = question
	t.refresh()
}

// Turns returns the displayed turns.
func (t *Transcript) Turns() []domain.Turn {
	return t.turns
}

// SetDimensions resizes the viewport and rewraps the content.
func (t *Transcript) SetDimensions(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Content returns the full rendered transcript, including lines
// scrolled out of view.
func (t *Transcript) Content() string {
	blocks := make([]string, 0, len(t.turns)+1)
	for _, turn := range t.turns {
		blocks = append(blocks, t.renderTurn(turn.Role, turn.Content, turn.Asset))
	}
	if t.pending != "" {
		blocks = append(blocks, t.renderTurn(domain.RoleUser, t.pending, ""))
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderTurn(role, content string, asset domain.AssetID) string {
	var header string
	if role == domain.RoleUser {
		header = t.styles.User.Render("You")
	} else {
		header = t.styles.Assistant.Render("도우미")
		if asset != "" {
			header += " " + t.styles.Mascot.Render(Badge(asset))
		}
	}

	width := t.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	body := lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(content)
	return header + "\n" + body
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Content())
	t.viewport.GotoBottom()
}
