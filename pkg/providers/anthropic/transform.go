package anthropic

import (
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"stars-end/tribune/pkg/providers"
)

const defaultMaxTokens = 4096

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

// transformRequest converts a provider-agnostic completion request into
// Messages API parameters. System-role messages become system blocks; the
// rest become conversation turns.
func transformRequest(req *providers.CompletionRequest) (*sdk.MessageNewParams, error) {
	conversation := make([]sdk.MessageParam, 0, len(req.Messages))
	var system []sdk.TextBlockParam

	for i, msg := range req.Messages {
		switch msg.Role {
		case providers.RoleSystem:
			if msg.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: msg.Content})
			}
		case providers.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		case providers.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			return nil, &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("unsupported role %q at index %d", msg.Role, i),
			}
		}
	}

	if err := validateConversation(conversation); err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := &sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = sdk.Float(req.TopP)
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	return params, nil
}

// validateConversation enforces the Messages API turn structure: the
// conversation must start with a user turn and alternate strictly.
func validateConversation(conversation []sdk.MessageParam) error {
	if len(conversation) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one user message is required",
		}
	}
	if conversation[0].Role != sdk.MessageParamRoleUser {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "conversation must start with a user message",
		}
	}
	for i := 1; i < len(conversation); i++ {
		if conversation[i].Role == conversation[i-1].Role {
			return &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("user and assistant messages must alternate (index %d)", i),
			}
		}
	}
	return nil
}

// transformResponse converts a Messages API response into the
// provider-agnostic completion shape. Text blocks are concatenated.
func transformResponse(providerName string, msg *sdk.Message) *providers.CompletionResponse {
	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &providers.CompletionResponse{
		ID:           msg.ID,
		Provider:     providerName,
		Model:        string(msg.Model),
		Content:      content,
		FinishReason: normalizeStopReason(string(msg.StopReason)),
		Usage: providers.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Created:  time.Now().Unix(),
		Metadata: make(map[string]string),
	}
}

// normalizeStopReason maps Anthropic stop reasons to the common finish
// reason vocabulary.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
