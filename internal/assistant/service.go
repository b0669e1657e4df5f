// Package assistant orchestrates the travel assistant: it keeps
// per-thread conversation history and resolves each message through an
// OpenAI chat completion loop with travel search tools.
package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/ascendtravel/concierge/internal/config"
	openaiinfra "github.com/ascendtravel/concierge/internal/infrastructure/openai"
)

// maxToolRounds bounds the completion loop so a misbehaving model cannot
// spin forever between tool calls.
const maxToolRounds = 8

// maxHistoryMessages caps per-thread history; the oldest turns are
// dropped first.
const maxHistoryMessages = 40

type Service struct {
	client   *openai.Client
	executor *ToolExecutor
	model    string

	mu        sync.Mutex
	histories map[string][]openai.ChatCompletionMessage
}

func NewService(openAIService *openaiinfra.Service, executor *ToolExecutor) (*Service, error) {
	if openAIService == nil {
		return nil, fmt.Errorf("OpenAI service is required")
	}

	return &Service{
		client:    openAIService.GetClient(),
		executor:  executor,
		model:     config.GetOpenAIModel(),
		histories: make(map[string][]openai.ChatCompletionMessage),
	}, nil
}

// Respond resolves one user message for the given thread. requestForm is
// invoked when the model asks for the contact form to be displayed.
func (s *Service) Respond(ctx context.Context, threadID, message string, requestForm func(form string)) (string, error) {
	log.Debug().Str("thread_id", threadID).Msg("Processing assistant request")

	history := s.history(threadID)
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: BuildSystemPrompt(time.Now()),
	})
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	tools := s.executor.Definitions()

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    s.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("failed to get chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response choices returned")
		}

		reply := resp.Choices[0].Message

		if reply.Role == openai.ChatMessageRoleAssistant && len(reply.ToolCalls) > 0 {
			messages = append(messages, reply)

			for _, toolCall := range reply.ToolCalls {
				content, err := s.executeCall(ctx, toolCall, requestForm)
				if err != nil {
					return "", fmt.Errorf("tool call failed: %w", err)
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    content,
					ToolCallID: toolCall.ID,
				})
			}
			continue
		}

		if reply.Role == openai.ChatMessageRoleAssistant && reply.Content != "" {
			s.remember(threadID, message, reply.Content)
			return reply.Content, nil
		}

		return "", fmt.Errorf("unexpected message type from assistant")
	}

	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func (s *Service) executeCall(ctx context.Context, toolCall openai.ToolCall, requestForm func(string)) (string, error) {
	if toolCall.Type != openai.ToolTypeFunction {
		return "", fmt.Errorf("unsupported tool type %q", toolCall.Type)
	}

	if toolCall.Function.Name == toolRequestContactForm {
		log.Info().Msg("Assistant requested the contact form")
		if requestForm != nil {
			requestForm("contact_form")
		}
		return "The contact form is now displayed to the user. Do not ask for contact details in chat.", nil
	}

	return s.executor.Execute(ctx, toolCall.Function.Name, toolCall.Function.Arguments)
}

// history returns a copy of the stored turns for a thread.
func (s *Service) history(threadID string) []openai.ChatCompletionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionMessage(nil), s.histories[threadID]...)
}

// remember appends the resolved turn, trimming the oldest entries past
// the cap. Tool call transcripts are not retained.
func (s *Service) remember(threadID, userMessage, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[threadID],
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	s.histories[threadID] = history
}
