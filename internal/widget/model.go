// Package widget is the terminal chat widget: a bubbletea front end over
// the conversation controller.
package widget

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/ascendtravel/concierge/internal/conversation"
)

// snapshotMsg carries a conversation snapshot into the Update loop.
type snapshotMsg conversation.Snapshot

// Feed bridges controller callbacks to the bubbletea runtime. Delivery
// is latest-wins: if the UI is slow, intermediate snapshots are dropped
// and only the newest one is rendered. Push is called from the
// controller's notify path and is never concurrent with itself.
type Feed struct {
	ch chan conversation.Snapshot
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan conversation.Snapshot, 1)}
}

// Push queues a snapshot, replacing any undelivered one.
func (f *Feed) Push(snap conversation.Snapshot) {
	select {
	case f.ch <- snap:
	default:
		select {
		case <-f.ch:
		default:
		}
		f.ch <- snap
	}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-f.ch)
	}
}

// Model is the widget's bubbletea model.
type Model struct {
	ctrl *conversation.Controller
	feed *Feed

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles
	renderer *glamour.TermRenderer

	snap               conversation.Snapshot
	form               *formModel
	selectedSuggestion int

	width  int
	height int
	ready  bool
	plain  bool
}

// NewModel builds the widget over an already-started controller. plain
// disables markdown rendering of assistant replies.
func NewModel(ctrl *conversation.Controller, feed *Feed, plain bool) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about flights, destinations, trip ideas..."
	ta.CharLimit = 2000
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	var renderer *glamour.TermRenderer
	if !plain {
		// A nil renderer falls back to plain text.
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(76),
		)
	}

	return Model{
		ctrl:               ctrl,
		feed:               feed,
		textarea:           ta,
		spinner:            sp,
		styles:             DefaultStyles(),
		renderer:           renderer,
		snap:               ctrl.Snapshot(),
		selectedSuggestion: -1,
		plain:              plain,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.feed.wait())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chromeHeight := 8
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, max(msg.Height-chromeHeight, 3))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = max(msg.Height-chromeHeight, 3)
		}
		m.textarea.SetWidth(msg.Width - 6)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case snapshotMsg:
		m.snap = conversation.Snapshot(msg)
		m.syncForm()
		if len(m.snap.Suggestions) == 0 {
			m.selectedSuggestion = -1
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, m.feed.wait()

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		if m.snap.Loading {
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
		}
		return m, spCmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.ctrl.Close()
			return m, tea.Quit
		}

		if m.form != nil {
			return m.updateForm(msg)
		}

		switch msg.Type {
		case tea.KeyTab:
			if len(m.snap.Suggestions) > 0 {
				m.selectedSuggestion = (m.selectedSuggestion + 1) % len(m.snap.Suggestions)
				return m, nil
			}
		case tea.KeyEnter:
			text := m.textarea.Value()
			if text == "" && m.selectedSuggestion >= 0 && m.selectedSuggestion < len(m.snap.Suggestions) {
				m.ctrl.SelectSuggestion(m.snap.Suggestions[m.selectedSuggestion])
				m.selectedSuggestion = -1
				return m, nil
			}
			m.ctrl.Send(text)
			m.textarea.Reset()
			return m, nil
		}
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// syncForm opens the contact form when the backend asks for it and
// drops it once the request clears.
func (m *Model) syncForm() {
	if m.snap.FormRequested && m.form == nil {
		form := newFormModel()
		m.form = &form
		return
	}
	if !m.snap.FormRequested {
		m.form = nil
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	done, info, cmd := m.form.update(msg)
	if done {
		m.ctrl.SubmitContactInfo(info)
		m.form = nil
		return m, cmd
	}
	return m, cmd
}
