package widget

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ascendtravel/concierge/internal/conversation"
)

func (m Model) View() string {
	if !m.ready {
		return "Starting widget..."
	}

	header := m.renderHeader()
	transcript := m.viewport.View()

	var bottom string
	if m.form != nil {
		bottom = m.form.view(m.styles)
	} else {
		bottom = m.styles.Input.Render(m.textarea.View())
	}

	sections := []string{header, transcript}
	if suggestions := m.renderSuggestions(); suggestions != "" {
		sections = append(sections, suggestions)
	}
	sections = append(sections, bottom, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" Astra ✈ ")

	var status string
	if m.snap.Loading {
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("Thinking..."))
	} else {
		status = m.styles.Muted.Render("Ready")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
}

func (m Model) renderFooter() string {
	hint := "Enter: send | Tab: suggestions | Esc: quit"
	if m.form != nil {
		hint = "Tab: next field | Enter: submit | Esc: quit"
	}
	return m.styles.Muted.Render(hint)
}

func (m Model) renderSuggestions() string {
	if len(m.snap.Suggestions) == 0 {
		return ""
	}

	chips := make([]string, 0, len(m.snap.Suggestions))
	for i, suggestion := range m.snap.Suggestions {
		style := m.styles.Suggestion
		if i == m.selectedSuggestion {
			style = style.BorderForeground(lipgloss.Color("212")).Bold(true)
		}
		chips = append(chips, style.Render(suggestion))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) renderTranscript() string {
	var sb strings.Builder

	for _, msg := range m.snap.Messages {
		switch msg.Role {
		case conversation.RoleUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserText.Render(msg.Text))
			sb.WriteString("\n")

		default:
			sb.WriteString(m.styles.AstraLabel.Render("Astra") + "\n")
			switch {
			case msg.Placeholder:
				sb.WriteString(m.spinner.View() + " " + m.styles.Muted.Render("Thinking..."))
			case msg.Error:
				sb.WriteString(m.styles.ErrorText.Render(msg.Text))
			default:
				sb.WriteString(m.safeRenderMarkdown(msg.Text))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders assistant markdown, falling back to the
// raw text when the renderer is disabled, errors, or panics.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return content
}
