package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendtravel/concierge/internal/conversation"
)

const testInterval = 2 * time.Millisecond

type step struct {
	status *conversation.TaskStatus
	err    error
}

// fakeBackend is a scripted backend: queued steps are consumed one per
// poll, then the fallback step repeats. The default fallback is pending.
type fakeBackend struct {
	mu          sync.Mutex
	taskID      string
	submitErr   error
	queue       []step
	fallback    step
	submitCalls int
	statusCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		taskID:   "t1",
		fallback: step{status: &conversation.TaskStatus{State: conversation.TaskPending}},
	}
}

func (f *fakeBackend) SubmitMessage(ctx context.Context, threadID, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.taskID, nil
}

func (f *fakeBackend) TaskStatus(ctx context.Context, taskID string) (*conversation.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if len(f.queue) > 0 {
		s := f.queue[0]
		f.queue = f.queue[1:]
		return s.status, s.err
	}
	return f.fallback.status, f.fallback.err
}

func (f *fakeBackend) enqueue(steps ...step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, steps...)
}

func (f *fakeBackend) setFallback(s step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = s
}

func (f *fakeBackend) complete(reply string) {
	f.setFallback(step{status: &conversation.TaskStatus{State: conversation.TaskCompleted, Reply: reply}})
}

func (f *fakeBackend) counts() (submits, polls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.statusCalls
}

// recorder collects snapshots delivered through OnUpdate.
type recorder struct {
	mu    sync.Mutex
	snaps []conversation.Snapshot
	ch    chan conversation.Snapshot
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan conversation.Snapshot, 256)}
}

func (r *recorder) onUpdate(s conversation.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *recorder) all() []conversation.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]conversation.Snapshot(nil), r.snaps...)
}

// waitFor blocks until a delivered snapshot satisfies pred.
func (r *recorder) waitFor(t *testing.T, pred func(conversation.Snapshot) bool) conversation.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return conversation.Snapshot{}
		}
	}
}

func resolved(s conversation.Snapshot) bool {
	return !s.Loading && len(s.Messages) > 1
}

func newTestController(t *testing.T, backend conversation.Backend, opts conversation.Options) (*conversation.Controller, *recorder) {
	t.Helper()
	rec := newRecorder()
	opts.PollInterval = testInterval
	opts.OnUpdate = rec.onUpdate
	ctrl := conversation.NewController(backend, opts)
	t.Cleanup(ctrl.Close)
	return ctrl, rec
}

func TestSendRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	backend.enqueue(
		step{status: &conversation.TaskStatus{State: conversation.TaskPending}},
		step{status: &conversation.TaskStatus{State: conversation.TaskPending}},
	)
	backend.complete("X")

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("Find me a flight to SFO")

	final := rec.waitFor(t, resolved)

	require.Len(t, final.Messages, 3)
	assert.Equal(t, conversation.RoleAssistant, final.Messages[0].Role)
	assert.Equal(t, conversation.RoleUser, final.Messages[1].Role)
	assert.Equal(t, "Find me a flight to SFO", final.Messages[1].Text)
	assert.Equal(t, conversation.Message{Role: conversation.RoleAssistant, Text: "X"}, final.LastMessage())
	assert.False(t, final.Loading)

	submits, _ := backend.counts()
	assert.Equal(t, 1, submits)

	// Never more than one outstanding placeholder in any observed state.
	for _, snap := range rec.all() {
		placeholders := 0
		for _, m := range snap.Messages {
			if m.Placeholder {
				placeholders++
			}
		}
		assert.LessOrEqual(t, placeholders, 1)
	}
}

func TestSendTrimsAndIgnoresEmptyInput(t *testing.T) {
	backend := newFakeBackend()
	ctrl, _ := newTestController(t, backend, conversation.Options{})

	ctrl.Send("")
	ctrl.Send("   \t\n")

	snap := ctrl.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.False(t, snap.Loading)
	submits, polls := backend.counts()
	assert.Zero(t, submits)
	assert.Zero(t, polls)
}

func TestSendWhileBusyIsNoOp(t *testing.T) {
	backend := newFakeBackend()
	ctrl, rec := newTestController(t, backend, conversation.Options{})

	ctrl.Send("first")
	rec.waitFor(t, func(s conversation.Snapshot) bool { return s.Loading })

	ctrl.Send("second")
	busy := ctrl.Snapshot()
	assert.Len(t, busy.Messages, 3) // greeting, user, placeholder
	assert.True(t, busy.Loading)

	backend.complete("done")
	final := rec.waitFor(t, resolved)

	users := 0
	for _, m := range final.Messages {
		if m.Role == conversation.RoleUser {
			users++
		}
	}
	assert.Equal(t, 1, users)
	submits, _ := backend.counts()
	assert.Equal(t, 1, submits)
}

func TestBackendReportedFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.setFallback(step{status: &conversation.TaskStatus{State: conversation.TaskFailed, Error: "bad input"}})

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	last := final.LastMessage()
	assert.True(t, last.Error)
	assert.Contains(t, last.Text, "bad input")
	assert.False(t, last.Placeholder)
	assert.False(t, final.Loading)
}

func TestBackendFailureWithoutDetailUsesFallback(t *testing.T) {
	backend := newFakeBackend()
	backend.setFallback(step{status: &conversation.TaskStatus{State: conversation.TaskFailed}})

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	last := final.LastMessage()
	assert.True(t, last.Error)
	assert.NotEmpty(t, last.Text)
}

func TestSubmitTransportErrorNeverPolls(t *testing.T) {
	backend := newFakeBackend()
	backend.submitErr = errors.New("connection refused")

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	last := final.LastMessage()
	assert.True(t, last.Error)
	assert.False(t, final.Loading)

	time.Sleep(10 * testInterval)
	_, polls := backend.counts()
	assert.Zero(t, polls)

	errs := 0
	for _, m := range final.Messages {
		if m.Error {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestSubmitWithoutTaskIDResolvesError(t *testing.T) {
	backend := newFakeBackend()
	backend.taskID = ""

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	assert.True(t, final.LastMessage().Error)
	_, polls := backend.counts()
	assert.Zero(t, polls)
}

func TestPollTransportErrorResolvesGenerically(t *testing.T) {
	backend := newFakeBackend()
	backend.enqueue(step{status: &conversation.TaskStatus{State: conversation.TaskPending}})
	backend.setFallback(step{err: errors.New("status endpoint down")})

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	last := final.LastMessage()
	assert.True(t, last.Error)
	assert.Contains(t, last.Text, "failed to get a response")
}

func TestPollingStopsAfterResolution(t *testing.T) {
	backend := newFakeBackend()
	backend.complete("done")

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("hello")
	rec.waitFor(t, resolved)

	_, before := backend.counts()
	time.Sleep(20 * testInterval)
	_, after := backend.counts()
	assert.Equal(t, before, after)
}

func TestSendAgainAfterFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.submitErr = errors.New("boom")

	ctrl, rec := newTestController(t, backend, conversation.Options{})
	ctrl.Send("first")
	rec.waitFor(t, resolved)

	backend.mu.Lock()
	backend.submitErr = nil
	backend.mu.Unlock()
	backend.complete("second reply")

	ctrl.Send("second")
	final := rec.waitFor(t, func(s conversation.Snapshot) bool {
		return !s.Loading && s.LastMessage().Text == "second reply"
	})
	assert.Len(t, final.Messages, 5)
}

func TestFormRequestLifecycle(t *testing.T) {
	backend := newFakeBackend()
	backend.setFallback(step{status: &conversation.TaskStatus{
		State:         conversation.TaskPending,
		FormToDisplay: "contact_form",
	}})

	ctrl, rec := newTestController(t, backend, conversation.Options{EnableForm: true})
	ctrl.Send("book it")

	rec.waitFor(t, func(s conversation.Snapshot) bool { return s.FormRequested })

	ctrl.SubmitContactInfo(conversation.ContactInfo{Name: "Dana", Email: "dana@example.com"})
	snap := rec.waitFor(t, func(s conversation.Snapshot) bool { return s.ContactCaptured })
	assert.False(t, snap.FormRequested)
	assert.Contains(t, snap.LastMessage().Text, "Dana")

	// A second submission is ignored.
	ctrl.SubmitContactInfo(conversation.ContactInfo{Name: "Other", Email: "other@example.com"})
	assert.Len(t, ctrl.Snapshot().Messages, len(snap.Messages))

	// The form is not re-requested once contact info is captured.
	time.Sleep(5 * testInterval)
	assert.False(t, ctrl.Snapshot().FormRequested)

	backend.complete("all set")
	final := rec.waitFor(t, func(s conversation.Snapshot) bool { return !s.Loading })
	assert.Equal(t, "all set", final.Messages[2].Text) // placeholder resolved in place
	assert.False(t, final.FormRequested)
}

func TestFormClearedOnCompletionWithoutSubmission(t *testing.T) {
	backend := newFakeBackend()
	backend.enqueue(step{status: &conversation.TaskStatus{
		State:         conversation.TaskPending,
		FormToDisplay: "contact_form",
	}})
	backend.complete("done")

	ctrl, rec := newTestController(t, backend, conversation.Options{EnableForm: true})
	ctrl.Send("hello")

	final := rec.waitFor(t, resolved)
	assert.False(t, final.FormRequested)
	assert.False(t, final.ContactCaptured)
}

func TestFormSignalIgnoredWhenDisabled(t *testing.T) {
	backend := newFakeBackend()
	backend.enqueue(
		step{status: &conversation.TaskStatus{State: conversation.TaskPending, FormToDisplay: "contact_form"}},
		step{status: &conversation.TaskStatus{State: conversation.TaskPending, FormToDisplay: "contact_form"}},
	)
	backend.complete("done")

	ctrl, rec := newTestController(t, backend, conversation.Options{EnableForm: false})
	ctrl.Send("hello")

	rec.waitFor(t, resolved)
	for _, snap := range rec.all() {
		assert.False(t, snap.FormRequested)
	}
}

func TestSelectSuggestionSendsAndClears(t *testing.T) {
	backend := newFakeBackend()
	backend.complete("here you go")

	suggestions := []string{"Flights to Tokyo", "Weekend in Paris"}
	ctrl, rec := newTestController(t, backend, conversation.Options{Suggestions: suggestions})

	initial := ctrl.Snapshot()
	assert.Equal(t, suggestions, initial.Suggestions)

	ctrl.SelectSuggestion("Flights to Tokyo")
	final := rec.waitFor(t, resolved)

	assert.Empty(t, final.Suggestions)
	assert.Equal(t, "Flights to Tokyo", final.Messages[1].Text)
	assert.Equal(t, conversation.RoleUser, final.Messages[1].Role)
}

func TestThreadIDFormat(t *testing.T) {
	backend := newFakeBackend()
	ctrl, _ := newTestController(t, backend, conversation.Options{})

	id := ctrl.ThreadID()
	assert.True(t, len(id) >= 5 && len(id) <= 50, "thread id length out of range: %d", len(id))
	assert.True(t, strings.HasPrefix(id, "session_"))
}

func TestCloseStopsPolling(t *testing.T) {
	backend := newFakeBackend()
	ctrl, rec := newTestController(t, backend, conversation.Options{})

	ctrl.Send("hello")
	rec.waitFor(t, func(s conversation.Snapshot) bool { return s.Loading })

	ctrl.Close()
	_, before := backend.counts()
	time.Sleep(10 * testInterval)
	_, after := backend.counts()
	assert.Equal(t, before, after)

	// Closed controllers ignore further sends.
	ctrl.Send("after close")
	assert.Len(t, ctrl.Snapshot().Messages, 3)
}
