package generic

import (
	"fmt"

	"stars-end/tribune/pkg/providers"
)

// Wire types for the OpenAI-compatible chat completions format.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	User        string        `json:"user,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// validateRequest validates a completion request before transformation.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}
	if req.Model == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}
	return nil
}

// buildRequest converts a provider-agnostic completion request into the
// wire format. Role names pass through unchanged; the OpenAI vocabulary is
// the common one.
func buildRequest(req *providers.CompletionRequest) (*chatRequest, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case providers.RoleSystem, providers.RoleUser, providers.RoleAssistant:
			messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
		default:
			return nil, &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("unsupported role %q at index %d", msg.Role, i),
			}
		}
	}

	return &chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
		User:        req.User,
	}, nil
}

// translateResponse converts a wire response into the provider-agnostic
// completion shape.
func translateResponse(providerName string, wireResp *chatResponse) (*providers.CompletionResponse, error) {
	if len(wireResp.Choices) == 0 {
		return nil, &providers.ParseError{
			Provider: providerName,
			Cause:    fmt.Errorf("response contained no choices"),
		}
	}

	choice := wireResp.Choices[0]

	return &providers.CompletionResponse{
		ID:           wireResp.ID,
		Provider:     providerName,
		Model:        wireResp.Model,
		Content:      choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     wireResp.Usage.PromptTokens,
			CompletionTokens: wireResp.Usage.CompletionTokens,
			TotalTokens:      wireResp.Usage.TotalTokens,
		},
		Created:  wireResp.Created,
		Metadata: make(map[string]string),
	}, nil
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return reason
	}
}
