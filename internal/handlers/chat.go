// Package handlers exposes the assistant backend's HTTP surface: chat
// submission and task status polling.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/ascendtravel/concierge/internal/tasks"
	"github.com/ascendtravel/concierge/pkg/httpext"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type chatRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=2000"`
	ThreadID string `json:"thread_id" validate:"required,min=5,max=50"`
}

type chatResponse struct {
	TaskID string `json:"task_id"`
}

type statusResult struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

type statusResponse struct {
	TaskID        string        `json:"task_id"`
	Status        tasks.State   `json:"status"`
	Result        *statusResult `json:"result,omitempty"`
	FormToDisplay string        `json:"form_to_display,omitempty"`
}

// HandleChat accepts a chat message and returns a task ticket for
// status polling.
func HandleChat(queue *tasks.Queue, w http.ResponseWriter, r *http.Request) {
	var req chatRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Chat request validation failed")
		httpext.JsonError(w, "Invalid request: message must be 1-2000 characters and thread_id 5-50 characters", http.StatusBadRequest)
		return
	}

	if !strings.HasPrefix(req.ThreadID, "session_") {
		log.Warn().Str("thread_id", req.ThreadID).Msg("Rejected thread id")
		httpext.JsonError(w, "Invalid thread_id format. Must start with 'session_'.", http.StatusBadRequest)
		return
	}

	log.Info().
		Str("thread_id", req.ThreadID).
		Str("client_ip", r.RemoteAddr).
		Msg("Received chat request")

	taskID, err := queue.Submit(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("thread_id", req.ThreadID).Msg("Failed to enqueue chat task")
		httpext.JsonError(w, "Failed to accept message", http.StatusServiceUnavailable)
		return
	}

	httpext.JsonOK(w, http.StatusAccepted, chatResponse{TaskID: taskID})
}

// HandleChatStatus reports the current state of a submitted task.
func HandleChatStatus(store tasks.Store, w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]

	task, err := store.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			httpext.JsonError(w, "Task not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("task_id", taskID).Msg("Failed to load task")
		httpext.JsonError(w, "Failed to load task", http.StatusInternalServerError)
		return
	}

	resp := statusResponse{
		TaskID:        task.ID,
		Status:        task.State,
		FormToDisplay: task.FormToDisplay,
	}
	switch task.State {
	case tasks.StateCompleted:
		resp.Result = &statusResult{Reply: task.Reply}
	case tasks.StateFailed:
		resp.Result = &statusResult{Error: task.Error}
	}

	httpext.JsonOK(w, http.StatusOK, resp)
}
