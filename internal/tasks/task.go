// Package tasks implements the assistant backend's task ticket model:
// a submitted chat message becomes a task that a worker resolves while
// clients poll its status.
package tasks

import (
	"errors"
	"time"
)

// State is the lifecycle state reported on the status endpoint.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrNotFound is returned when a task id is unknown.
var ErrNotFound = errors.New("task not found")

// Task is one submit-to-completion unit of work.
type Task struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
	State    State  `json:"state"`

	// Reply holds the assistant's answer once State is StateCompleted.
	Reply string `json:"reply,omitempty"`
	// Error holds the failure detail once State is StateFailed.
	Error string `json:"error,omitempty"`
	// FormToDisplay asks the widget to show a form while the task is
	// still pending.
	FormToDisplay string `json:"form_to_display,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
