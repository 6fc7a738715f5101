package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/chat"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/styles"
)

// chromeHeight is the number of lines around the transcript viewport:
// header (2), roster (1), status (1), input (1).
const chromeHeight = 5

var (
	ownBubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.ColorBlue).
			Padding(0, 1)

	otherBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(styles.ColorGray).
				Padding(0, 1)

	metaStyle = lipgloss.NewStyle().Foreground(styles.ColorGray)

	warningStyle = lipgloss.NewStyle().Foreground(styles.ColorYellow)

	connectedStyle    = lipgloss.NewStyle().Foreground(styles.ColorGreen)
	reconnectingStyle = lipgloss.NewStyle().Foreground(styles.ColorYellow)
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case stateLoading:
		return fmt.Sprintf("\n %s loading room history…\n", m.spinner.View())

	case stateFailed:
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.ColorRed).Render(" ✘ could not load room"))
		if m.err != nil {
			b.WriteString("\n " + styles.SubtleStyle.Render(m.err.Error()))
		}
		b.WriteString("\n\n " + styles.SubtleStyle.Render("press any key to exit"))
		return b.String()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) renderHeader() string {
	identity := m.ctrl.Identity()

	title := styles.HeaderStyle.Render(identity.RoomName)
	id := styles.SubtleStyle.Render(fmt.Sprintf("room %d", identity.RoomID))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", id)

	names := make([]string, 0, 8)
	for _, p := range m.ctrl.Roster() {
		names = append(names, p.Nickname)
	}
	// Roster as of join; later joiners are not listed.
	roster := styles.SubtleStyle.Render("members: " + strings.Join(names, ", "))

	divider := styles.DividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	return header + "\n" + roster + "\n" + divider
}

func (m Model) renderStatus() string {
	var status string
	switch m.sessState {
	case chat.StateReady:
		status = connectedStyle.Render("● connected")
	case chat.StateClosing, chat.StateClosed:
		status = styles.SubtleStyle.Render("○ closed")
	default:
		status = reconnectingStyle.Render("○ connecting…")
	}

	if m.warning != "" {
		status += "  " + warningStyle.Render(m.warning)
	}
	return status
}

// renderMessages renders the reconciled transcript, own messages on the
// right, everyone else on the left.
func (m Model) renderMessages() string {
	msgs := m.ctrl.Messages()
	if len(msgs) == 0 {
		return styles.SubtleStyle.Render("no messages yet")
	}

	maxBubble := m.viewport.Width * 7 / 10
	if maxBubble < 16 {
		maxBubble = 16
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, maxBubble))
	}
	return b.String()
}

func (m Model) renderMessage(msg chat.Message, maxBubble int) string {
	meta := msg.Nickname
	if !msg.CreatedAt.IsZero() {
		meta += " · " + msg.CreatedAt.Format("15:04")
	}

	content := metaStyle.Render(meta) + "\n" + msg.Body

	style := otherBubbleStyle
	align := lipgloss.Left
	if msg.Own {
		style = ownBubbleStyle
		align = lipgloss.Right
	}

	bubble := style.MaxWidth(maxBubble).Render(content)
	return lipgloss.PlaceHorizontal(m.viewport.Width, align, bubble)
}
