// Package conversation owns the chat transcript and the submit-then-poll
// lifecycle of a single assistant conversation. The backend answers
// asynchronously: a submitted message yields a task ticket which is
// polled until it completes or fails.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Backend is the wire contract the controller drives. Implementations
// live in internal/backend; tests use scripted fakes.
type Backend interface {
	// SubmitMessage submits one user message for the given thread and
	// returns the backend's task ticket.
	SubmitMessage(ctx context.Context, threadID, message string) (string, error)
	// TaskStatus reports the current state of a submitted task.
	TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
}

const (
	// DefaultPollInterval matches the reference widget's 2.5s poll cadence.
	DefaultPollInterval = 2500 * time.Millisecond

	defaultGreeting = "Hi, I'm Astra, your travel assistant. ✈️ Where would you like to go?"

	submitFailedText   = "Sorry, I couldn't reach the assistant. Please try again."
	pollFailedText     = "Sorry, I failed to get a response. Please try again."
	taskFailedFallback = "Sorry, something went wrong while processing your request."
)

type state int

const (
	stateIdle state = iota
	stateSending
	statePolling
)

// Options configures a controller. The zero value yields a session with
// the default greeting, no suggestions, the contact form enabled and the
// default poll interval.
type Options struct {
	// Greeting seeds the transcript. Empty selects the default greeting.
	Greeting string
	// Suggestions seeds the quick-reply set shown until the first send.
	Suggestions []string
	// EnableForm allows the backend's mid-flight contact form request to
	// surface. When false the form signal is ignored.
	EnableForm bool
	// PollInterval overrides the status poll cadence; zero or negative
	// selects DefaultPollInterval.
	PollInterval time.Duration
	// OnUpdate receives a snapshot after every observable state change.
	// It is called from controller-owned goroutines and must not call
	// back into the controller synchronously.
	OnUpdate func(Snapshot)
}

// Controller is the conversation state machine. All mutation happens
// through Send, SelectSuggestion, SubmitContactInfo and Close; observers
// see results through snapshots. At most one task is in flight at a time
// and at most one poll ticker exists per controller.
type Controller struct {
	backend  Backend
	threadID string
	interval time.Duration
	form     bool
	onUpdate func(Snapshot)

	mu             sync.Mutex
	messages       []Message
	suggestions    []string
	st             state
	loading        bool
	formRequested  bool
	contact        *ContactInfo
	placeholderIdx int
	cancelPoll     context.CancelFunc
	closed         bool

	// notifyMu serializes snapshot delivery so observers see updates in
	// mutation order. Lock order is always mu before notifyMu.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// NewController starts a session: it generates the thread id, seeds the
// greeting and optional suggestions, and emits the initial snapshot.
// Session start is one-shot by construction.
func NewController(backend Backend, opts Options) *Controller {
	greeting := opts.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	c := &Controller{
		backend:        backend,
		threadID:       "session_" + uuid.NewString(),
		interval:       interval,
		form:           opts.EnableForm,
		onUpdate:       opts.OnUpdate,
		messages:       []Message{{Role: RoleAssistant, Text: greeting}},
		suggestions:    append([]string(nil), opts.Suggestions...),
		placeholderIdx: -1,
	}

	log.Info().Str("thread_id", c.threadID).Msg("Conversation started")

	c.mu.Lock()
	c.unlockAndNotify()
	return c
}

// ThreadID returns the session correlation token sent with every submit.
func (c *Controller) ThreadID() string {
	return c.threadID
}

// Snapshot returns the current state of the conversation.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Send submits one user message. Empty input (after trimming) and sends
// while a task is already in flight are ignored without error. The user
// message and the assistant placeholder are appended as one transcript
// update, the suggestion set is cleared, and the submit-then-poll cycle
// begins.
func (c *Controller) Send(text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.st != stateIdle || c.closed || c.threadID == "" {
		c.mu.Unlock()
		return
	}

	c.messages = append(c.messages,
		Message{Role: RoleUser, Text: text},
		Message{Role: RoleAssistant, Placeholder: true},
	)
	c.placeholderIdx = len(c.messages) - 1
	c.suggestions = nil
	c.loading = true
	c.st = stateSending

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	c.wg.Add(1)
	c.unlockAndNotify()
	go c.run(ctx, text)
}

// SelectSuggestion sends a quick reply. It is an alias for Send.
func (c *Controller) SelectSuggestion(text string) {
	c.Send(text)
}

// SubmitContactInfo records the user's contact details, clears the form
// request and appends one acknowledgement message. It is independent of
// the polling loop and may be called while a task is pending. Details
// are captured at most once; later calls are ignored.
func (c *Controller) SubmitContactInfo(info ContactInfo) {
	c.mu.Lock()
	if c.closed || c.contact != nil {
		c.mu.Unlock()
		return
	}
	captured := info
	c.contact = &captured
	c.formRequested = false
	c.messages = append(c.messages, Message{
		Role: RoleAssistant,
		Text: fmt.Sprintf("Thanks, %s! We'll follow up at %s.", info.Name, info.Email),
	})
	log.Info().Str("thread_id", c.threadID).Msg("Contact info captured")
	c.unlockAndNotify()
}

// Close cancels any in-flight poll loop and waits for it to stop. The
// controller accepts no further sends afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// run drives one task from submit through poll resolution. It is the
// only writer of the non-Idle states.
func (c *Controller) run(ctx context.Context, text string) {
	defer c.wg.Done()

	taskID, err := c.backend.SubmitMessage(ctx, c.threadID, text)
	if err != nil || taskID == "" {
		if err != nil {
			log.Warn().Err(err).Str("thread_id", c.threadID).Msg("Submit failed")
		} else {
			log.Warn().Str("thread_id", c.threadID).Msg("Submit response carried no task id")
		}
		c.resolve(Message{Role: RoleAssistant, Text: submitFailedText, Error: true})
		return
	}

	c.mu.Lock()
	if c.closed || c.st != stateSending {
		c.mu.Unlock()
		return
	}
	c.st = statePolling
	c.mu.Unlock()

	log.Debug().Str("task_id", taskID).Msg("Task submitted, polling")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := c.backend.TaskStatus(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("task_id", taskID).Msg("Status poll failed")
			c.resolve(Message{Role: RoleAssistant, Text: pollFailedText, Error: true})
			return
		}

		switch status.State {
		case TaskPending:
			if status.FormToDisplay != "" {
				c.requestForm()
			}
		case TaskCompleted:
			c.resolve(Message{Role: RoleAssistant, Text: status.Reply})
			return
		case TaskFailed:
			detail := status.Error
			if detail == "" {
				detail = taskFailedFallback
			}
			c.resolve(Message{Role: RoleAssistant, Text: detail, Error: true})
			return
		default:
			log.Warn().Str("task_id", taskID).Str("state", string(status.State)).Msg("Unknown task state")
			c.resolve(Message{Role: RoleAssistant, Text: pollFailedText, Error: true})
			return
		}
	}
}

// resolve replaces the outstanding placeholder with its final content,
// releases the poll timer and returns the controller to Idle. Every
// exit from a send passes through here exactly once.
func (c *Controller) resolve(final Message) {
	c.mu.Lock()
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	if c.placeholderIdx >= 0 && c.placeholderIdx < len(c.messages) && c.messages[c.placeholderIdx].Placeholder {
		c.messages[c.placeholderIdx] = final
	}
	c.placeholderIdx = -1
	c.loading = false
	c.formRequested = false
	c.st = stateIdle
	c.unlockAndNotify()
}

// requestForm surfaces the backend's contact form signal, once, and only
// while no contact details have been captured.
func (c *Controller) requestForm() {
	c.mu.Lock()
	if !c.form || c.contact != nil || c.formRequested || c.st != statePolling {
		c.mu.Unlock()
		return
	}
	c.formRequested = true
	c.unlockAndNotify()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ThreadID:        c.threadID,
		Messages:        append([]Message(nil), c.messages...),
		Suggestions:     append([]string(nil), c.suggestions...),
		Loading:         c.loading,
		FormRequested:   c.formRequested,
		ContactCaptured: c.contact != nil,
	}
}

// unlockAndNotify releases mu and delivers the current snapshot. Taking
// notifyMu before releasing mu keeps delivery in mutation order.
// Callers must hold mu.
func (c *Controller) unlockAndNotify() {
	if c.onUpdate == nil {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	c.onUpdate(snap)
	c.notifyMu.Unlock()
}
