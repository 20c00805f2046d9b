package gateway

import (
	"errors"
	"fmt"

	"stars-end/tribune/pkg/envelope"
)

// ResultFromOutcome adapts the return of Invoke into the uniform tool
// result envelope. Success results carry provider, model, cost, and timing
// metadata; failures carry the taxonomy kind so downstream policy can
// branch without parsing error text.
func ResultFromOutcome(outcome *InvocationOutcome, err error) *envelope.ToolResult {
	if err != nil {
		metadata := map[string]string{
			"failure_kind": FailureKind(err),
		}
		var rateLimited *RateLimitedError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
			metadata["retry_after"] = rateLimited.RetryAfter.String()
		}
		return envelope.Failure(err.Error(), metadata)
	}

	metadata := map[string]string{
		"request_id": outcome.RequestID,
		"provider":   outcome.Provider,
		"model":      outcome.Model,
		"cost":       fmt.Sprintf("%.6f", outcome.Cost),
		"duration":   outcome.Elapsed.String(),
	}
	return envelope.Success(outcome.Response.Content, nil, metadata)
}
