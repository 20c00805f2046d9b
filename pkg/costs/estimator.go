package costs

// Character-ratio token estimation. Exact tokenization is provider-specific
// and not worth a tokenizer dependency for a pre-call affordability check;
// roughly four characters per token overestimates slightly on English prose,
// which errs on the conservative side for budget checks.

const (
	// DefaultCharsPerToken is the character-to-token ratio.
	DefaultCharsPerToken = 4.0

	// messageOverheadTokens accounts for per-message framing tokens.
	messageOverheadTokens = 3

	// Completion length is unknowable before the call; estimate a third of
	// the prompt, clamped to a sane range.
	minCompletionEstimate = 100
	maxCompletionEstimate = 1000
)

// TokenEstimate is a pre-call guess at token consumption.
type TokenEstimate struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the combined estimate.
func (e TokenEstimate) Total() int {
	return e.PromptTokens + e.CompletionTokens
}

// Estimator converts text lengths into token estimates.
type Estimator struct {
	charsPerToken float64
}

// NewEstimator creates an estimator with the default ratio.
func NewEstimator() *Estimator {
	return &Estimator{charsPerToken: DefaultCharsPerToken}
}

// NewEstimatorWithRatio creates an estimator with a custom ratio. Ratios at
// or below zero fall back to the default.
func NewEstimatorWithRatio(charsPerToken float64) *Estimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &Estimator{charsPerToken: charsPerToken}
}

// EstimateText estimates the tokens in a single string, rounding up.
func (e *Estimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(text)) / e.charsPerToken)
	if float64(tokens)*e.charsPerToken < float64(len(text)) {
		tokens++
	}
	return tokens
}

// EstimatePrompt estimates prompt tokens across message parts, including
// per-message framing overhead.
func (e *Estimator) EstimatePrompt(parts []string) int {
	total := 0
	for _, part := range parts {
		total += e.EstimateText(part) + messageOverheadTokens
	}
	return total
}

// EstimateCompletion guesses completion length from prompt length.
func (e *Estimator) EstimateCompletion(promptTokens int) int {
	estimate := promptTokens / 3
	if estimate < minCompletionEstimate {
		return minCompletionEstimate
	}
	if estimate > maxCompletionEstimate {
		return maxCompletionEstimate
	}
	return estimate
}

// Estimate produces the full pre-call estimate for a prompt.
func (e *Estimator) Estimate(parts []string) TokenEstimate {
	prompt := e.EstimatePrompt(parts)
	return TokenEstimate{
		PromptTokens:     prompt,
		CompletionTokens: e.EstimateCompletion(prompt),
	}
}
