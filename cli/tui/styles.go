package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nox-hq/chatgen/gateway"
)

var (
	// Status colors.
	colorConnected = lipgloss.Color("#A3BE8C")
	colorDemo      = lipgloss.Color("#FFD700")
	colorWarn      = lipgloss.Color("#FF8C00")

	// UI colors.
	colorTitle     = lipgloss.Color("#FFFFFF")
	colorSubtle    = lipgloss.Color("#666666")
	colorUser      = lipgloss.Color("#88C0D0")
	colorAssistant = lipgloss.Color("#7D56F4")

	// Styles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTitle)

	subtleStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorSubtle)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorUser)

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAssistant)

	noticeStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorWarn)
)

// statusBadge renders the connection badge shown in the header.
func statusBadge(connected bool) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#000000"))
	if connected {
		return style.Background(colorConnected).Render("AI Connected")
	}
	return style.Background(colorDemo).Render("Demo Mode")
}

// sourceNotice explains a reply that did not come from the endpoint while
// a key is configured.
func sourceNotice(src gateway.Source) string {
	switch src {
	case gateway.SourceFallback:
		return noticeStyle.Render("endpoint unavailable, showing a canned reply")
	case gateway.SourcePlaceholder:
		return noticeStyle.Render("endpoint returned an empty reply")
	}
	return ""
}

func joinDots(parts []string) string {
	return strings.Join(parts, " • ")
}
