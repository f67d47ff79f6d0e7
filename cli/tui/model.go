// Package tui provides the interactive chat window using the Bubble Tea
// framework.
package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nox-hq/chatgen/core"
	"github.com/nox-hq/chatgen/gateway"
)

// chrome is the number of rows used by everything except the transcript.
const chrome = 5

// Backend reports whether replies can come from the endpoint.
// *gateway.Gateway satisfies it.
type Backend interface {
	Configured() bool
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	err error
}

// replyMsg carries the result of an asynchronous Send.
type replyMsg struct {
	result gateway.Result
	err    error
}

// Model is the root Bubble Tea model for the chat window.
type Model struct {
	session *core.Session
	backend Backend
	model   string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	waiting    bool
	pending    string
	lastSource gateway.Source
	err        error
	status     string

	width  int
	height int
}

// New creates a chat Model over session. model is shown in the header.
func New(session *core.Session, backend Backend, model string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		session:  session,
		backend:  backend,
		model:    model,
		input:    ti,
		viewport: viewport.New(80, 24-chrome),
		spinner:  sp,
		width:    80,
		height:   24,
	}
	m.layout()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		m.waiting = false
		m.pending = ""
		m.lastSource = msg.result.Source
		m.err = msg.err
		m.refresh()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "reply copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	return renderChat(m)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case matchesBinding(msg, keys.Quit):
		return m, tea.Quit

	case matchesBinding(msg, keys.Send):
		return m, m.submit()

	case matchesBinding(msg, keys.Clear):
		// Reset waits for an in-flight Send, which would stall the UI.
		if !m.waiting {
			m.session.Reset()
			m.lastSource = ""
			m.err = nil
			m.refresh()
		}
		return m, nil

	case matchesBinding(msg, keys.Copy):
		return m, m.copyLastReply()

	case matchesBinding(msg, keys.ScrollUp), matchesBinding(msg, keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a Send for the current input. Only one message is in
// flight at a time.
func (m *Model) submit() tea.Cmd {
	if m.waiting {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	m.input.Reset()
	m.status = ""
	m.waiting = true
	m.pending = text
	m.err = nil
	m.refresh()

	session := m.session
	send := func() tea.Msg {
		res, err := session.Send(context.Background(), text)
		return replyMsg{result: res, err: err}
	}
	return tea.Batch(send, m.spinner.Tick)
}

// copyLastReply copies the newest assistant message, if any.
func (m *Model) copyLastReply() tea.Cmd {
	history := m.session.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == gateway.RoleAssistant {
			text := history[i].Content
			return func() tea.Msg {
				return copiedMsg{err: writeClipboard(text)}
			}
		}
	}
	return nil
}

func (m *Model) layout() {
	h := m.height - chrome
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - len(m.input.Prompt) - 1
}

// refresh re-renders the transcript and keeps the newest message in view.
func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m))
	m.viewport.GotoBottom()
}

// matchesBinding checks if a key message matches a key binding.
func matchesBinding(msg tea.KeyMsg, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}
