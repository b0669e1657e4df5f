// Package backend implements the HTTP client for the travel assistant
// backend: submit a message, receive a task ticket, poll its status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ascendtravel/concierge/internal/conversation"
)

// Client talks to one assistant backend. It implements
// conversation.Backend.
type Client struct {
	client  *http.Client
	baseURL string
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	TaskID string `json:"task_id"`
}

type statusResponse struct {
	Status string        `json:"status"`
	Result *statusResult `json:"result,omitempty"`
	// FormToDisplay is a side-channel: the backend may ask the widget to
	// show a form (currently only "contact_form") while a task is pending.
	FormToDisplay string `json:"form_to_display,omitempty"`
}

type statusResult struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SubmitMessage posts one user message and returns the backend's task id.
func (c *Client) SubmitMessage(ctx context.Context, threadID, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message, ThreadID: threadID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to submit message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		log.Warn().Int("status", resp.StatusCode).Str("detail", detail).Msg("Submit rejected")
		return "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, detail)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.TaskID == "" {
		return "", fmt.Errorf("backend response carried no task id")
	}

	return chatResp.TaskID, nil
}

// TaskStatus queries the status endpoint for one task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*conversation.TaskStatus, error) {
	url := fmt.Sprintf("%s/chat/status/%s", c.baseURL, taskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to query task status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorDetail(resp.Body)
		return nil, fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, detail)
	}

	var statusResp statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	status := &conversation.TaskStatus{FormToDisplay: statusResp.FormToDisplay}
	switch statusResp.Status {
	case "pending":
		status.State = conversation.TaskPending
	case "completed":
		status.State = conversation.TaskCompleted
	case "failed":
		status.State = conversation.TaskFailed
	default:
		return nil, fmt.Errorf("unknown task status %q", statusResp.Status)
	}
	if statusResp.Result != nil {
		status.Reply = statusResp.Result.Reply
		status.Error = statusResp.Result.Error
	}

	return status, nil
}

func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Detail == "" {
		return strings.TrimSpace(string(body))
	}
	return errResp.Detail
}
