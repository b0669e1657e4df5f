package widget

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/ascendtravel/concierge/internal/conversation"
)

var formValidate = validator.New(validator.WithRequiredStructEnabled())

// formModel is the inline contact form shown when the assistant asks to
// follow up on a booking.
type formModel struct {
	name  textinput.Model
	email textinput.Model
	focus int
	err   string
}

func newFormModel() formModel {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 100
	name.Focus()

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	return formModel{name: name, email: email}
}

// update consumes one key press. done is true once valid contact details
// were entered; info is only meaningful then.
func (f *formModel) update(msg tea.KeyMsg) (done bool, info conversation.ContactInfo, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		f.focus = (f.focus + 1) % 2
		if f.focus == 0 {
			cmd = f.name.Focus()
			f.email.Blur()
		} else {
			cmd = f.email.Focus()
			f.name.Blur()
		}
		return false, info, cmd

	case tea.KeyEnter:
		if f.focus == 0 {
			f.focus = 1
			cmd = f.email.Focus()
			f.name.Blur()
			return false, info, cmd
		}

		info = conversation.ContactInfo{
			Name:  f.name.Value(),
			Email: f.email.Value(),
		}
		if err := formValidate.Struct(info); err != nil {
			f.err = "Please enter your name and a valid email address."
			return false, conversation.ContactInfo{}, nil
		}
		return true, info, nil
	}

	if f.focus == 0 {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.email, cmd = f.email.Update(msg)
	}
	return false, info, cmd
}

func (f *formModel) view(styles Styles) string {
	lines := []string{
		styles.FormLabel.Render("Leave your details and our travel team will follow up:"),
		"Name:  " + f.name.View(),
		"Email: " + f.email.View(),
	}
	if f.err != "" {
		lines = append(lines, styles.ErrorText.Render(f.err))
	}
	return styles.Input.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
