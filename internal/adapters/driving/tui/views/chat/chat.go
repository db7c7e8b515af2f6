// Package chat provides the conversation view: transcript, citations and input.
package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// View is the chat screen.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	sessions driving.SessionService
	pipeline driving.PipelineService

	transcript *transcript.Transcript
	sources    *list.SourceList
	input      *input.ChatInput
	statusbar  *status.Bar
	spinner    spinner.Model

	conv        domain.Conversation
	showSources bool
	thinking    bool
	err         error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view over the given services.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	sessions driving.SessionService,
	pipeline driving.PipelineService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Assistant

	return &View{
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		sessions:   sessions,
		pipeline:   pipeline,
		transcript: transcript.New(s),
		sources:    list.NewSourceList(s),
		input:      input.NewChatInput(s),
		statusbar:  status.NewBar(s, km),
		spinner:    sp,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts a session and loads index statistics.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.startSession(), v.refreshStats())
}

// Update handles messages for the chat screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionStarted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.conv = msg.Conversation
		v.transcript.SetTurns(v.conv.Turns)
		v.sources.SetSources(nil)
		v.statusbar.SetSession(v.conv.SessionID)
		return v, nil

	case messages.QuestionSubmitted:
		v.thinking = true
		v.err = nil
		v.statusbar.SetState(status.StateThinking)
		v.transcript.SetPending(msg.Question)
		return v, tea.Batch(v.spinner.Tick, v.ask(msg.Question))

	case messages.AnswerReceived:
		v.thinking = false
		if msg.Err != nil {
			v.transcript.SetTurns(v.conv.Turns)
			v.setError(msg.Err)
			return v, nil
		}
		v.conv = msg.Conversation
		v.transcript.SetTurns(v.conv.Turns)
		v.sources.SetSources(msg.Answer.Sources)
		v.statusbar.Clear()
		return v, v.refreshStats()

	case messages.StatsRefreshed:
		v.statusbar.SetStats(msg.Stats)
		if msg.State == domain.StateEmpty && v.statusbar.State() == status.StateReady {
			v.statusbar.SetState(status.StateNoIndex)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Sources):
		v.showSources = !v.showSources
		if v.showSources {
			v.statusbar.SetState(status.StateSources)
		} else if v.statusbar.State() == status.StateSources {
			v.statusbar.SetState(status.StateReady)
		}
		v.layout()
		return v, nil

	case v.showSources && (keymap.Matches(keyStr, v.keymap.Up) || keymap.Matches(keyStr, v.keymap.Down)):
		v.sources, _ = v.sources.Update(msg)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Reset):
		if v.thinking {
			return v, nil
		}
		return v, v.resetSession()

	case keymap.Matches(keyStr, v.keymap.Send):
		if v.thinking {
			return v, nil
		}
		q, ok := v.input.Take()
		if !ok {
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.QuestionSubmitted{Question: q}
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) setError(err error) {
	v.err = err
	if errors.Is(err, domain.ErrNoIndex) || errors.Is(err, domain.ErrEmptyIndex) {
		v.statusbar.SetState(status.StateNoIndex)
		return
	}
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) startSession() tea.Cmd {
	return func() tea.Msg {
		conv, err := v.sessions.New(v.ctx)
		return messages.SessionStarted{Conversation: conv, Err: err}
	}
}

// resetSession drops the stored conversation before starting a new one.
// A failed delete is not fatal, the old session simply expires.
func (v *View) resetSession() tea.Cmd {
	old := v.conv.SessionID
	return func() tea.Msg {
		if old != "" {
			_ = v.sessions.Reset(v.ctx, old)
		}
		conv, err := v.sessions.New(v.ctx)
		return messages.SessionStarted{Conversation: conv, Err: err}
	}
}

func (v *View) ask(question string) tea.Cmd {
	sessionID := v.conv.SessionID
	return func() tea.Msg {
		answer, conv, err := v.sessions.Ask(v.ctx, sessionID, question)
		if err != nil {
			return messages.AnswerReceived{Err: err}
		}
		return messages.AnswerReceived{Answer: answer, Conversation: conv}
	}
}

func (v *View) refreshStats() tea.Cmd {
	if v.pipeline == nil {
		return nil
	}
	return func() tea.Msg {
		return messages.StatsRefreshed{State: v.pipeline.State(), Stats: v.pipeline.Stats()}
	}
}

// View renders the chat screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("ragdesk") + " " + v.styles.Muted.Render("문서 기반 질의응답")

	body := v.transcript.View()
	if v.showSources {
		body = lipgloss.JoinVertical(lipgloss.Left, body, v.styles.Border.Render(v.sources.View()))
	}

	prompt := v.input.View()
	if v.thinking {
		prompt = v.spinner.View() + " " + prompt
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, prompt, v.statusbar.View())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

func (v *View) layout() {
	// header, input box (3 lines) and status bar
	chrome := 5
	sourcesHeight := 0
	if v.showSources {
		sourcesHeight = v.height / 3
	}
	transcriptHeight := v.height - chrome - sourcesHeight
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}

	v.transcript.SetDimensions(v.width, transcriptHeight)
	v.sources.SetDimensions(v.width-2, sourcesHeight)
	v.input.SetWidth(v.width)
	v.statusbar.SetWidth(v.width)
}

// Conversation returns the conversation currently on screen.
func (v *View) Conversation() domain.Conversation {
	return v.conv
}

// Sources returns the citations of the latest answer.
func (v *View) Sources() []domain.ScoredChunk {
	return v.sources.Sources()
}

// ShowingSources reports whether the citation panel is open.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Thinking reports whether a question is awaiting its answer.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Input returns the current input text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput replaces the input text.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Ready reports whether dimensions have been set.
func (v *View) Ready() bool {
	return v.ready
}
