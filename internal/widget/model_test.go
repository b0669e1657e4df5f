package widget

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendtravel/concierge/internal/conversation"
)

type stubBackend struct{}

func (stubBackend) SubmitMessage(ctx context.Context, threadID, message string) (string, error) {
	return "task-1", nil
}

func (stubBackend) TaskStatus(ctx context.Context, taskID string) (*conversation.TaskStatus, error) {
	return &conversation.TaskStatus{State: conversation.TaskPending}, nil
}

func newTestModel(t *testing.T, opts conversation.Options) Model {
	t.Helper()
	feed := NewFeed()
	opts.OnUpdate = feed.Push
	ctrl := conversation.NewController(stubBackend{}, opts)
	t.Cleanup(ctrl.Close)

	m := NewModel(ctrl, feed, true)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestFeedLatestWins(t *testing.T) {
	feed := NewFeed()
	feed.Push(conversation.Snapshot{ThreadID: "a"})
	feed.Push(conversation.Snapshot{ThreadID: "b"})
	feed.Push(conversation.Snapshot{ThreadID: "c"})

	msg := feed.wait()()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.Equal(t, "c", snap.ThreadID)
}

func TestTranscriptRendersRoles(t *testing.T) {
	m := newTestModel(t, conversation.Options{Greeting: "Welcome aboard."})

	m.snap = conversation.Snapshot{
		Messages: []conversation.Message{
			{Role: conversation.RoleAssistant, Text: "Welcome aboard."},
			{Role: conversation.RoleUser, Text: "Flights to Lisbon?"},
			{Role: conversation.RoleAssistant, Placeholder: true},
		},
		Loading: true,
	}

	transcript := m.renderTranscript()
	assert.Contains(t, transcript, "Astra")
	assert.Contains(t, transcript, "You")
	assert.Contains(t, transcript, "Flights to Lisbon?")
	assert.Contains(t, transcript, "Thinking...")
}

func TestTranscriptRendersErrorText(t *testing.T) {
	m := newTestModel(t, conversation.Options{})

	m.snap = conversation.Snapshot{
		Messages: []conversation.Message{
			{Role: conversation.RoleAssistant, Text: "Sorry, something went wrong.", Error: true},
		},
	}

	assert.Contains(t, m.renderTranscript(), "Sorry, something went wrong.")
}

func TestSnapshotOpensAndClosesForm(t *testing.T) {
	m := newTestModel(t, conversation.Options{EnableForm: true})

	updated, _ := m.Update(snapshotMsg(conversation.Snapshot{FormRequested: true}))
	m = updated.(Model)
	require.NotNil(t, m.form)

	updated, _ = m.Update(snapshotMsg(conversation.Snapshot{FormRequested: false}))
	m = updated.(Model)
	assert.Nil(t, m.form)
}

func TestFormValidation(t *testing.T) {
	form := newFormModel()

	// Submit from the email field with everything empty.
	form.focus = 1
	done, _, _ := form.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, done)
	assert.NotEmpty(t, form.err)

	form.name.SetValue("Ada")
	form.email.SetValue("not-an-email")
	done, _, _ = form.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, done)

	form.email.SetValue("ada@example.com")
	done, info, _ := form.update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, done)
	assert.Equal(t, "Ada", info.Name)
	assert.Equal(t, "ada@example.com", info.Email)
}

func TestSuggestionCycling(t *testing.T) {
	m := newTestModel(t, conversation.Options{Suggestions: []string{"Flights to Paris", "Weekend in Rome"}})
	m.snap = m.ctrl.Snapshot()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, 0, m.selectedSuggestion)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, 1, m.selectedSuggestion)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, 0, m.selectedSuggestion)
}
