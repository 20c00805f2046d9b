package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"stars-end/tribune/pkg/providers"
)

func TestTransformRequest_Defaults(t *testing.T) {
	req := &providers.CompletionRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	}

	params, err := transformRequest(req)
	if err != nil {
		t.Fatalf("transformRequest failed: %v", err)
	}

	if params.MaxTokens != defaultMaxTokens {
		t.Errorf("expected default max tokens %d, got %d", defaultMaxTokens, params.MaxTokens)
	}
	if len(params.System) != 0 {
		t.Errorf("expected no system blocks, got %d", len(params.System))
	}
	if params.Temperature.Valid() {
		t.Error("expected unset temperature to be omitted")
	}
	if params.TopP.Valid() {
		t.Error("expected unset top_p to be omitted")
	}
}

func TestTransformRequest_ExplicitValues(t *testing.T) {
	req := &providers.CompletionRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "question"},
			{Role: providers.RoleAssistant, Content: "answer"},
			{Role: providers.RoleUser, Content: "follow-up"},
		},
		MaxTokens:   256,
		Temperature: 0.4,
		TopP:        0.9,
		Stop:        []string{"END"},
	}

	params, err := transformRequest(req)
	if err != nil {
		t.Fatalf("transformRequest failed: %v", err)
	}

	if params.MaxTokens != 256 {
		t.Errorf("expected max tokens 256, got %d", params.MaxTokens)
	}
	if len(params.Messages) != 3 {
		t.Errorf("expected 3 conversation turns, got %d", len(params.Messages))
	}
	if !params.Temperature.Valid() || params.Temperature.Value != 0.4 {
		t.Errorf("expected temperature 0.4, got %+v", params.Temperature)
	}
	if !params.TopP.Valid() || params.TopP.Value != 0.9 {
		t.Errorf("expected top_p 0.9, got %+v", params.TopP)
	}
	if len(params.StopSequences) != 1 || params.StopSequences[0] != "END" {
		t.Errorf("expected stop sequences passed through, got %v", params.StopSequences)
	}
}

func TestTransformRequest_SystemExtraction(t *testing.T) {
	req := &providers.CompletionRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "first rule"},
			{Role: providers.RoleSystem, Content: "second rule"},
			{Role: providers.RoleUser, Content: "hi"},
		},
	}

	params, err := transformRequest(req)
	if err != nil {
		t.Fatalf("transformRequest failed: %v", err)
	}

	if len(params.System) != 2 {
		t.Fatalf("expected 2 system blocks, got %d", len(params.System))
	}
	if params.System[0].Text != "first rule" || params.System[1].Text != "second rule" {
		t.Errorf("system blocks out of order: %+v", params.System)
	}
	if len(params.Messages) != 1 {
		t.Errorf("expected system messages excluded from conversation, got %d turns", len(params.Messages))
	}
}

func TestTransformResponse_ConcatenatesTextBlocks(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_1",
		Model: "claude-sonnet-4-20250514",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "part one "},
			{Type: "text", Text: "part two"},
		},
		StopReason: sdk.StopReasonMaxTokens,
		Usage:      sdk.Usage{InputTokens: 100, OutputTokens: 50},
	}

	resp := transformResponse("anthropic", msg)

	if resp.Content != "part one part two" {
		t.Errorf("expected concatenated content, got %q", resp.Content)
	}
	if resp.FinishReason != providers.FinishReasonLength {
		t.Errorf("expected finish reason length, got %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 150 {
		t.Errorf("expected total tokens 150, got %d", resp.Usage.TotalTokens)
	}
	if resp.Created == 0 {
		t.Error("expected created timestamp to be set")
	}
}

func TestNormalizeStopReason(t *testing.T) {
	tests := []struct {
		reason   string
		expected string
	}{
		{"end_turn", providers.FinishReasonStop},
		{"stop_sequence", providers.FinishReasonStop},
		{"max_tokens", providers.FinishReasonLength},
		{"refusal", "refusal"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeStopReason(tt.reason); got != tt.expected {
			t.Errorf("normalizeStopReason(%q) = %q, expected %q", tt.reason, got, tt.expected)
		}
	}
}
