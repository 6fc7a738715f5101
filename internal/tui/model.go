// Package tui renders a chat room session: the reconciled transcript, a
// composer input, and connection status. It holds no session logic of
// its own; everything flows through the chat controller.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/chat"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/styles"
)

// UIState represents the current state of the TUI.
type UIState int

const (
	stateLoading UIState = iota
	stateFailed
	stateChatting
)

const warningVisibleFor = 3 * time.Second

// sessionStartedMsg is sent when the controller's startup sequence
// returns.
type sessionStartedMsg struct {
	err error
}

// sessionEventMsg wraps one controller event.
type sessionEventMsg struct {
	ev chat.Event
	ok bool
}

// clearWarningMsg expires the transient warning line.
type clearWarningMsg struct{}

// Model is the Bubble Tea model for a chat room session.
type Model struct {
	ctrl   *chat.Controller
	events <-chan chat.Event

	state     UIState
	sessState chat.State
	err       error
	warning   string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width    int
	height   int
	sized    bool
	quitting bool
}

// New creates a new chat session model for the given controller.
func New(ctrl *chat.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message…"
	ti.Prompt = "› "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.ColorBlue)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.ColorBlue)

	return Model{
		ctrl:      ctrl,
		events:    ctrl.Events(),
		state:     stateLoading,
		sessState: chat.StateUninitialized,
		input:     ti,
		spinner:   s,
	}
}

// Init starts the session and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.startSession(),
		m.waitForEvent(),
	)
}

// startSession runs the controller startup off the UI loop.
func (m Model) startSession() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return sessionStartedMsg{err: ctrl.Start(context.Background())}
	}
}

// waitForEvent pumps one controller event into the program.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return sessionEventMsg{ev: ev, ok: ok}
	}
}

func clearWarningAfter() tea.Cmd {
	return tea.Tick(warningVisibleFor, func(time.Time) tea.Msg {
		return clearWarningMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		contentHeight := msg.Height - chromeHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.sized {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.sized = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshTranscript(true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionStartedMsg:
		if msg.err != nil {
			m.state = stateFailed
			m.err = msg.err
		}
		return m, nil

	case sessionEventMsg:
		if !msg.ok {
			return m, nil
		}
		return m.handleEvent(msg.ev)

	case clearWarningMsg:
		m.warning = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEvent(ev chat.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForEvent()}

	switch ev.Kind {
	case chat.EventState:
		m.sessState = ev.State
		switch ev.State {
		case chat.StateHistoryFailed:
			m.state = stateFailed
		case chat.StateHistoryLoaded:
			m.state = stateChatting
			m.refreshTranscript(true)
		}

	case chat.EventMessage:
		m.refreshTranscript(true)

	case chat.EventWarning:
		m.warning = ev.Warning
		cmds = append(cmds, clearWarningAfter())
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		_ = m.ctrl.Close()
		return m, tea.Quit
	}

	if m.state == stateFailed {
		// Any key exits a dead session.
		m.quitting = true
		_ = m.ctrl.Close()
		return m, tea.Quit
	}

	if msg.String() == "enter" && m.state == stateChatting {
		return m.sendCurrentInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) sendCurrentInput() (tea.Model, tea.Cmd) {
	err := m.ctrl.SendMessage(m.input.Value())
	switch {
	case err == nil:
		m.input.Reset()
		return m, nil
	case errors.Is(err, chat.ErrEmptyMessage):
		// Silent no-op; the input stays as typed.
		return m, nil
	default:
		m.warning = "not connected: message not sent"
		return m, clearWarningAfter()
	}
}

// refreshTranscript rebuilds the viewport content from the reconciled
// message snapshot.
func (m *Model) refreshTranscript(toBottom bool) {
	if !m.sized {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	if toBottom {
		m.viewport.GotoBottom()
	}
}
