package search

import (
	"errors"
	"fmt"
	"strings"

	"stars-end/tribune/pkg/gateway"
)

// ErrSearchExhausted is returned when every search candidate was attempted
// or skipped and none served the query. Kept distinct from the LLM terminal
// error so callers can branch on which capability failed.
var ErrSearchExhausted = errors.New("all search providers exhausted")

// ExhaustedError reports an exhausted search candidate walk.
type ExhaustedError struct {
	// Query is the query text that could not be served.
	Query string

	// Attempts is the per-candidate trail with the failure reasons.
	Attempts []gateway.Attempt

	// LastErr is the error from the last attempted candidate.
	LastErr error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all search providers exhausted for query %q (attempted: %s, last error: %v)",
		e.Query, attemptProviders(e.Attempts), e.LastErr)
}

// Is implements error matching for errors.Is().
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrSearchExhausted
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

func attemptProviders(attempts []gateway.Attempt) string {
	if len(attempts) == 0 {
		return "none"
	}
	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Provider
	}
	return strings.Join(names, ", ")
}
