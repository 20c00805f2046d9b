package gateway

import (
	"fmt"
	"sort"
)

// Registry is the ordered candidate list. It is populated once at startup
// and read-only thereafter, so concurrent reads need no locking.
type Registry struct {
	candidates []Candidate
}

// NewRegistry builds a registry from candidate declarations. Candidates are
// ordered by priority rank ascending; declaration order breaks ties. Every
// capability a candidate advertises must be backed by the matching adapter.
func NewRegistry(candidates []Candidate) (*Registry, error) {
	seen := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		if c.Spec.ID == "" {
			return nil, fmt.Errorf("candidate %d: id is required", i)
		}
		if seen[c.Spec.ID] {
			return nil, fmt.Errorf("candidate %d: duplicate id %q", i, c.Spec.ID)
		}
		seen[c.Spec.ID] = true

		if c.Spec.Supports(CapabilityChat) && c.Chat == nil {
			return nil, fmt.Errorf("candidate %q: chat capability declared but no chat adapter bound", c.Spec.ID)
		}
		if c.Spec.Supports(CapabilitySearch) && c.Search == nil {
			return nil, fmt.Errorf("candidate %q: search capability declared but no search adapter bound", c.Spec.ID)
		}
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Spec.Priority < ordered[j].Spec.Priority
	})

	return &Registry{candidates: ordered}, nil
}

// CandidatesFor returns the candidates supporting the capability, in
// priority order. The returned slice is a copy.
func (r *Registry) CandidatesFor(capability Capability) []Candidate {
	var out []Candidate
	for _, c := range r.candidates {
		if c.Spec.Supports(capability) {
			out = append(out, c)
		}
	}
	return out
}

// All returns every candidate in priority order. The returned slice is a
// copy.
func (r *Registry) All() []Candidate {
	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Len returns the number of registered candidates.
func (r *Registry) Len() int {
	return len(r.candidates)
}

// Lookup finds a candidate by ID.
func (r *Registry) Lookup(id string) (Candidate, bool) {
	for _, c := range r.candidates {
		if c.Spec.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
