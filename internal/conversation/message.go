package conversation

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. While a task is in flight the
// assistant's entry is a placeholder; it is replaced in place once the
// task resolves.
type Message struct {
	Role        Role
	Text        string
	Placeholder bool
	Error       bool
}

// ContactInfo is captured at most once per session through the embedded
// contact form.
type ContactInfo struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

// TaskState is the backend-reported state of a submitted task.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// TaskStatus is one poll result for a pending task.
type TaskStatus struct {
	State TaskState
	// Reply carries the assistant's answer when State is TaskCompleted.
	Reply string
	// Error carries the backend's failure detail when State is TaskFailed.
	Error string
	// FormToDisplay names a form the backend wants shown mid-flight,
	// e.g. "contact_form". Empty when no form is requested.
	FormToDisplay string
}

// Snapshot is an immutable view of the controller's state, delivered to
// observers after every mutation.
type Snapshot struct {
	ThreadID        string
	Messages        []Message
	Suggestions     []string
	Loading         bool
	FormRequested   bool
	ContactCaptured bool
}

// LastMessage returns the final transcript entry, or a zero Message for
// an empty transcript.
func (s Snapshot) LastMessage() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}
