// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// State represents what the chat screen is doing.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateNoIndex  State = "no-index"
	StateError    State = "error"
	StateSources  State = "sources"
)

// Bar displays index status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	stats   domain.IndexStats
	session string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("답변을 생성하는 중...")
	case StateNoIndex:
		return s.styles.Warning.Render("No index. Run `ragdesk ingest` first")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateReady, StateSources:
	}

	parts := make([]string, 0, 2)
	if s.stats.Records > 0 {
		parts = append(parts, fmt.Sprintf("%d chunks from %d docs", s.stats.Records, s.stats.Documents))
	}
	if s.session != "" {
		parts = append(parts, "session "+shortID(s.session))
	}
	if len(parts) == 0 {
		return s.styles.Muted.Render("Ready")
	}
	return s.styles.Normal.Render(strings.Join(parts, " · "))
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateSources {
		bindings = s.keymap.SourcesHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetStats records the index statistics to display.
func (s *Bar) SetStats(stats domain.IndexStats) {
	s.stats = stats
}

// Stats returns the displayed index statistics.
func (s *Bar) Stats() domain.IndexStats {
	return s.stats
}

// SetSession sets the session id shown in the bar.
func (s *Bar) SetSession(id string) {
	s.session = id
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear returns the bar to the ready state, keeping stats and session.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
