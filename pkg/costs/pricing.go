package costs

import (
	"strings"
	"sync"
)

// Pricing is a provider's per-unit cost model. Chat providers use the
// per-1K-token rates; search providers use the flat per-query rate. Rates
// are in the configured currency (USD by convention).
type Pricing struct {
	// PromptPer1K is the cost per 1000 prompt tokens.
	PromptPer1K float64 `yaml:"prompt_per_1k" json:"prompt_per_1k"`

	// CompletionPer1K is the cost per 1000 completion tokens.
	CompletionPer1K float64 `yaml:"completion_per_1k" json:"completion_per_1k"`

	// PerQuery is the flat cost of one search query.
	PerQuery float64 `yaml:"per_query" json:"per_query"`
}

// IsZero reports whether no rate is set.
func (p Pricing) IsZero() bool {
	return p.PromptPer1K == 0 && p.CompletionPer1K == 0 && p.PerQuery == 0
}

// CompletionCost prices a completion from token counts.
func (p Pricing) CompletionCost(promptTokens, completionTokens int) float64 {
	return tokenCost(promptTokens, p.PromptPer1K) + tokenCost(completionTokens, p.CompletionPer1K)
}

// EstimateCompletion prices a completion from a pre-call token estimate.
func (p Pricing) EstimateCompletion(est TokenEstimate) float64 {
	return p.CompletionCost(est.PromptTokens, est.CompletionTokens)
}

// QueryCost prices one search query.
func (p Pricing) QueryCost() float64 {
	return p.PerQuery
}

func tokenCost(tokens int, ratePer1K float64) float64 {
	if tokens <= 0 || ratePer1K <= 0 {
		return 0
	}
	return float64(tokens) / 1000.0 * ratePer1K
}

// Table maps model identifiers to default pricing, used when a provider
// entry does not carry its own rates. Lookup resolves an exact match first,
// then the longest configured prefix (so "claude-sonnet-4" matches a
// "claude-sonnet" row), then the fallback. Replace swaps the whole table
// atomically, which is what the pricing-file hot-reload uses.
type Table struct {
	mu       sync.RWMutex
	models   map[string]Pricing
	fallback Pricing
}

// NewTable creates a pricing table. The models map is copied.
func NewTable(models map[string]Pricing, fallback Pricing) *Table {
	return &Table{
		models:   copyPricingMap(models),
		fallback: fallback,
	}
}

// Lookup resolves pricing for a model identifier.
func (t *Table) Lookup(model string) Pricing {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if p, ok := t.models[model]; ok {
		return p
	}

	// Longest-prefix match handles dated/versioned model names.
	bestLen := -1
	var best Pricing
	for prefix, p := range t.models {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			best = p
		}
	}
	if bestLen >= 0 {
		return best
	}

	return t.fallback
}

// Replace swaps the table contents atomically.
func (t *Table) Replace(models map[string]Pricing, fallback Pricing) {
	copied := copyPricingMap(models)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.models = copied
	t.fallback = fallback
}

// Len returns the number of configured model rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.models)
}

func copyPricingMap(in map[string]Pricing) map[string]Pricing {
	out := make(map[string]Pricing, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
