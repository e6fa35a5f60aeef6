package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

func (m *model) View() string {
	parts := []string{
		m.headerView(),
		m.fieldView(),
		m.controlsView(),
	}
	if status := m.statusLine(); status != "" {
		parts = append(parts, helperStyle.Render(status))
	}
	parts = append(parts, m.help.View(m.keys))
	return strings.Join(parts, "\n")
}

func (m *model) headerView() string {
	title := titleStyle.Render("Convert")
	if m.config.Endpoint == "" {
		return title
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, helperStyle.Render("  → "+m.config.Endpoint))
}

// renderedText is the field content as shown: the text plus the ellipsis.
func (m *model) renderedText() string {
	if !m.isLoading {
		return m.displayText
	}
	return m.displayText + strings.Repeat(".", m.dotCount)
}

func (m *model) fieldView() string {
	style := fieldStyle.Width(m.layout.fieldWidth)
	if !m.isLoading {
		if m.focus == focusField {
			style = style.BorderForeground(accentColor)
		}
		return style.Render(m.field.View())
	}
	body := wordwrap.String(m.renderedText(), m.layout.contentWidth())
	lines := strings.Split(body, "\n")
	if len(lines) > m.layout.fieldHeight {
		// Keep the newest output in view while it streams in.
		lines = lines[len(lines)-m.layout.fieldHeight:]
	}
	return style.Height(m.layout.fieldHeight).Foreground(streamingColor).Render(strings.Join(lines, "\n"))
}

func (m *model) controlsView() string {
	buttons := []string{
		m.button("Convert", focusConvert, !m.isLoading),
		m.button("Clear", focusClear, !m.isLoading),
	}
	if m.isLoading {
		buttons = append(buttons, m.button("Cancel", focusCancel, true))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m *model) button(label string, target control, enabled bool) string {
	style := buttonStyle
	switch {
	case !enabled:
		style = disabledButtonStyle
	case m.focus == target:
		style = focusedButtonStyle
	}
	return style.Render(label)
}

func (m *model) statusLine() string {
	if m.infoMessage != "" {
		return m.infoMessage
	}
	if m.isLoading && m.pending != nil {
		return fmt.Sprintf("Converting… %d bytes received", m.pending.bytes)
	}
	if m.lastTransfer != nil && m.lastTransfer.Status == transferStatusSucceeded {
		return fmt.Sprintf("Converted %d bytes in %s", m.lastTransfer.Bytes, m.lastTransfer.Duration.Round(timeRounding))
	}
	return ""
}

var (
	accentColor    = lipgloss.Color("81")
	streamingColor = lipgloss.Color("147")

	titleStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helperStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	fieldStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	buttonStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Background(lipgloss.Color("#393552")).Padding(0, 2).MarginRight(1)
	focusedButtonStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 2).MarginRight(1)
	disabledButtonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(0, 2).MarginRight(1)
)
