package openai

import (
	"fmt"

	sdk "github.com/sashabaranov/go-openai"

	"stars-end/tribune/pkg/providers"
)

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

// buildRequest converts a provider-agnostic completion request into a chat
// completions request.
func buildRequest(req *providers.CompletionRequest) (*sdk.ChatCompletionRequest, error) {
	messages := make([]sdk.ChatCompletionMessage, 0, len(req.Messages))
	for i, msg := range req.Messages {
		role, err := mapRole(msg.Role, i)
		if err != nil {
			return nil, err
		}
		messages = append(messages, sdk.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	return &sdk.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		TopP:        float32(req.TopP),
		Stop:        req.Stop,
		User:        req.User,
	}, nil
}

func mapRole(role string, index int) (string, error) {
	switch role {
	case providers.RoleSystem:
		return sdk.ChatMessageRoleSystem, nil
	case providers.RoleUser:
		return sdk.ChatMessageRoleUser, nil
	case providers.RoleAssistant:
		return sdk.ChatMessageRoleAssistant, nil
	default:
		return "", &providers.ValidationError{
			Field:   "messages",
			Message: fmt.Sprintf("unsupported role %q at index %d", role, index),
		}
	}
}

// translateResponse converts a chat completions response into the
// provider-agnostic completion shape.
func translateResponse(providerName string, chatResp *sdk.ChatCompletionResponse) (*providers.CompletionResponse, error) {
	if len(chatResp.Choices) == 0 {
		return nil, &providers.ParseError{
			Provider: providerName,
			Cause:    fmt.Errorf("response contained no choices"),
		}
	}

	choice := chatResp.Choices[0]

	return &providers.CompletionResponse{
		ID:           chatResp.ID,
		Provider:     providerName,
		Model:        chatResp.Model,
		Content:      choice.Message.Content,
		FinishReason: normalizeFinishReason(string(choice.FinishReason)),
		Usage: providers.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
		Created:  chatResp.Created,
		Metadata: make(map[string]string),
	}, nil
}

// normalizeFinishReason maps chat completion finish reasons to the common
// vocabulary. OpenAI's names are already the common ones.
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
