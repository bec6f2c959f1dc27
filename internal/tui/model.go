// Package tui implements chabeau's chat loop (C14): the bubbletea
// tea.Model that owns the terminal, pumps key/resize/paste events through
// the key router (C13), turns the results into Actions applied against
// App (C12), and executes the Commands ApplyAction produces. Grounded on
// the teacher's Model in internal/tui/chat/chat.go — the textarea+spinner
// composition, the startStream/listenForStreamEvents channel-relay
// idiom, and the tea.Msg-driven Update loop — restructured around the
// action/command split instead of mutating teacher fields directly in
// Update.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chabeau/chabeau/internal/action"
	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/keybind"
)

// Model is chabeau's bubbletea program. It never mutates App directly —
// every state change flows through action.ApplyAction, keeping the core
// testable without a terminal (spec §4.8).
type Model struct {
	app    *action.App
	router *keybind.Router
	spin   spinner.Model

	width, height int
	ready         bool

	retry      httpchat.RetryConfig
	streamChan <-chan httpchat.Event

	// inEditor is not set or read anywhere; the external editor runs
	// through tea.ExecProcess, which suspends the program while it is open.
	inEditor bool

	markdown      bool
	syntaxEnabled bool
}

// New returns a Model ready to run over app.
func New(app *action.App) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = app.UI.Theme.Spinner
	return &Model{
		app:           app,
		router:        keybind.NewRouter(),
		spin:          sp,
		retry:         httpchat.DefaultRetryConfig(),
		markdown:      true,
		syntaxEnabled: true,
	}
}

// Init starts the spinner ticking; chabeau has no other startup command
// (model/MCP connection happens in cmd/ before the program starts).
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// apply is the Model's only write path into App: every Action is routed
// through action.ApplyAction, and any resulting Command is immediately
// turned into the tea.Cmd that executes it (spec §4.8).
func (m *Model) apply(a action.Action) tea.Cmd {
	cmd := action.ApplyAction(m.app, a, action.Context{TermWidth: m.width, TermHeight: m.height})
	if cmd == nil {
		return nil
	}
	return m.execCommand(cmd)
}
