package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/chat"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView *chat.View
	help     help.Model
	showHelp bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingSessionService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		chatView: chat.NewView(s, km, ports.Sessions, ports.Pipeline),
		help:     h,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ragdesk"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.chatView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		keyStr := msg.String()
		if keymap.Matches(keyStr, a.keymap.Quit) {
			return a, tea.Quit
		}
		if keymap.Matches(keyStr, a.keymap.Help) {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			// any other key closes help
			a.showHelp = false
			return a, nil
		}

	case messages.Quit:
		return a, tea.Quit
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left,
			a.styles.Title.Render("Keys"),
			"",
			a.help.View(a.keymap),
		)
	}
	return a.chatView.View()
}

// Run starts the program and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// ChatView exposes the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// ShowingHelp reports whether the help screen is open.
func (a *App) ShowingHelp() bool {
	return a.showHelp
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.Update(tea.WindowSizeMsg{Width: width, Height: height})
}

// Width returns the terminal width.
func (a *App) Width() int {
	return a.width
}

// Height returns the terminal height.
func (a *App) Height() int {
	return a.height
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}
