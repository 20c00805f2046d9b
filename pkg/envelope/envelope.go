package envelope

import (
	"encoding/json"
	"fmt"
)

// fallbackErrorMessage is substituted when a failure is constructed with an
// empty message, so a failure result always carries a non-empty explanation.
const fallbackErrorMessage = "unspecified error"

// Artifact is a structured attachment produced alongside textual content,
// such as an extracted table, a citation list, or a parsed record.
type Artifact struct {
	// Kind identifies the artifact shape (e.g. "citation", "table", "record").
	Kind string `json:"kind"`

	// Name is a caller-chosen label, unique within the result by convention.
	Name string `json:"name,omitempty"`

	// Data holds the artifact payload.
	Data map[string]any `json:"data,omitempty"`
}

// ToolResult is the uniform success/failure wrapper for a tool or analysis
// step. Fields are unexported; Success and Failure are the only construction
// paths, which is what keeps the success/error invariant airtight.
type ToolResult struct {
	success    bool
	content    string
	artifacts  []Artifact
	errMessage string
	metadata   map[string]string
}

// Success builds a successful result. Content may legitimately be empty when
// a call produced no semantic output; whether that is meaningful is the
// caller's decision. Artifacts and metadata are copied.
func Success(content string, artifacts []Artifact, metadata map[string]string) *ToolResult {
	return &ToolResult{
		success:   true,
		content:   content,
		artifacts: copyArtifacts(artifacts),
		metadata:  copyMetadata(metadata),
	}
}

// Failure builds a failed result. An empty message is replaced with a
// placeholder rather than permitting a failure with no explanation.
func Failure(message string, metadata map[string]string) *ToolResult {
	if message == "" {
		message = fallbackErrorMessage
	}
	return &ToolResult{
		success:    false,
		errMessage: message,
		metadata:   copyMetadata(metadata),
	}
}

// OK reports whether the result is a success.
func (r *ToolResult) OK() bool {
	return r.success
}

// Content returns the textual content. Empty on failure results.
func (r *ToolResult) Content() string {
	return r.content
}

// ErrorMessage returns the failure explanation. Empty on success results.
func (r *ToolResult) ErrorMessage() string {
	return r.errMessage
}

// Artifacts returns a copy of the structured artifacts.
func (r *ToolResult) Artifacts() []Artifact {
	return copyArtifacts(r.artifacts)
}

// Metadata returns a copy of the metadata mapping. Never nil.
func (r *ToolResult) Metadata() map[string]string {
	m := copyMetadata(r.metadata)
	if m == nil {
		m = make(map[string]string)
	}
	return m
}

// Meta looks up a single metadata value.
func (r *ToolResult) Meta(key string) (string, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// String renders a short human-readable summary, useful in logs.
func (r *ToolResult) String() string {
	if r.success {
		return fmt.Sprintf("ToolResult(success, %d bytes content, %d artifacts)",
			len(r.content), len(r.artifacts))
	}
	return fmt.Sprintf("ToolResult(failure: %s)", r.errMessage)
}

// resultJSON is the canonical wire shape. There is deliberately no
// UnmarshalJSON counterpart: decoding would be a third construction path.
type resultJSON struct {
	Success   bool              `json:"success"`
	Content   string            `json:"content,omitempty"`
	Artifacts []Artifact        `json:"artifacts,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON emits the canonical wire shape.
func (r *ToolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Success:   r.success,
		Content:   r.content,
		Artifacts: r.artifacts,
		Error:     r.errMessage,
		Metadata:  r.metadata,
	})
}

func copyArtifacts(in []Artifact) []Artifact {
	if len(in) == 0 {
		return nil
	}
	out := make([]Artifact, len(in))
	copy(out, in)
	return out
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
