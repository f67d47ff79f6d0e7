package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nox-hq/chatgen/gateway"
)

// renderChat renders the full window: header, transcript, input and help.
func renderChat(m *Model) string {
	var b strings.Builder

	connected := m.backend != nil && m.backend.Configured()
	header := titleStyle.Render(" chatgen ") + " " + statusBadge(connected)
	if connected && m.model != "" {
		header += subtleStyle.Render("  " + m.model)
	}
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(subtleStyle.Render(" " + m.status))
	} else {
		b.WriteString(keys.helpLine())
	}

	return b.String()
}

// renderTranscript renders the conversation, the message awaiting a reply
// and any notice about the last reply.
func renderTranscript(m *Model) string {
	history := m.session.History()
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 10)).PaddingLeft(2)

	if len(history) == 0 && m.pending == "" {
		if m.backend != nil && m.backend.Configured() {
			return subtleStyle.Render("\n  Say hello to start the conversation.")
		}
		return subtleStyle.Render("\n  Demo mode: replies come from a built-in set.\n  Run `chatgen key set` to connect to a model.")
	}

	var b strings.Builder
	for _, msg := range history {
		writeMessage(&b, wrap, msg.Role, msg.Content)
	}

	// Session.Send records the user message itself; only draw it here until
	// it shows up in the history.
	if m.waiting {
		if n := len(history); n == 0 || history[n-1].Role != gateway.RoleUser {
			writeMessage(&b, wrap, gateway.RoleUser, m.pending)
		}
		b.WriteString(m.spinner.View() + subtleStyle.Render(" thinking...") + "\n")
	}

	if !m.waiting && m.backend != nil && m.backend.Configured() {
		if notice := sourceNotice(m.lastSource); notice != "" {
			b.WriteString("  " + notice + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("  " + noticeStyle.Render(m.err.Error()) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeMessage(b *strings.Builder, wrap lipgloss.Style, role gateway.Role, content string) {
	switch role {
	case gateway.RoleUser:
		b.WriteString(userLabelStyle.Render("You"))
	case gateway.RoleAssistant:
		b.WriteString(assistantLabelStyle.Render("AI"))
	default:
		b.WriteString(subtleStyle.Render(string(role)))
	}
	b.WriteString("\n")
	b.WriteString(wrap.Render(content))
	b.WriteString("\n\n")
}
