package search

import (
	"errors"
	"fmt"
	"strings"

	"stars-end/tribune/pkg/envelope"
	"stars-end/tribune/pkg/gateway"
)

// ResultToEnvelope adapts the return of Search into the uniform tool result
// envelope. Success results carry the hits as structured artifacts plus a
// readable text rendering; failures carry the taxonomy kind so downstream
// policy can branch without parsing error text.
func ResultToEnvelope(result *Result, err error) *envelope.ToolResult {
	if err != nil {
		metadata := map[string]string{
			"failure_kind": failureKind(err),
		}
		var rateLimited *gateway.RateLimitedError
		if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
			metadata["retry_after"] = rateLimited.RetryAfter.String()
		}
		return envelope.Failure(err.Error(), metadata)
	}

	artifacts := make([]envelope.Artifact, len(result.Hits))
	var text strings.Builder
	for i, hit := range result.Hits {
		artifacts[i] = envelope.Artifact{
			Kind: "search_hit",
			Name: fmt.Sprintf("hit_%d", i+1),
			Data: map[string]any{
				"title":    hit.Title,
				"url":      hit.URL,
				"snippet":  hit.Snippet,
				"position": hit.Position,
			},
		}
		fmt.Fprintf(&text, "%d. %s\n   %s\n   %s\n", i+1, hit.Title, hit.URL, hit.Snippet)
	}

	metadata := map[string]string{
		"query_id":  result.QueryID,
		"provider":  result.Provider,
		"cache_hit": fmt.Sprintf("%t", result.CacheHit),
		"cost":      fmt.Sprintf("%.6f", result.Cost),
		"duration":  result.Elapsed.String(),
	}
	return envelope.Success(text.String(), artifacts, metadata)
}
