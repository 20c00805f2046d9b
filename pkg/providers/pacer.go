package providers

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer applies an AIMD-style adaptive token budget on top of a chat
// provider. It estimates the token cost of each request, blocks callers
// until capacity is available, and adjusts its effective tokens-per-minute
// budget in response to rate limiting signals from the provider: halve on a
// 429, creep back up on success.
//
// The pacer is process-local and sits at the provider client boundary.
// Construct one per provider and wrap the adapter with WithPacing.
type Pacer struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM float64
	minTPM     float64
	maxTPM     float64

	recoveryRate float64
}

// NewPacer constructs a Pacer with an initial tokens-per-minute budget and
// an upper bound. When maxTPM is zero or below initialTPM it is clamped to
// initialTPM. The floor is a tenth of the initial budget so a string of
// 429s can never stall the provider entirely.
func NewPacer(initialTPM, maxTPM float64) *Pacer {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}

	return &Pacer{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Wait blocks until the pacer has capacity for the given token estimate or
// the context is cancelled.
func (p *Pacer) Wait(ctx context.Context, tokens int) error {
	return p.limiter.WaitN(ctx, tokens)
}

// Observe adjusts the budget based on the outcome of a request: success
// probes upward, an upstream rate limit halves the budget, anything else
// leaves it unchanged.
func (p *Pacer) Observe(err error) {
	if err == nil {
		p.probe()
		return
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		p.backoff()
	}
}

// Rate returns the current effective tokens-per-minute budget.
func (p *Pacer) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTPM
}

func (p *Pacer) backoff() {
	p.mu.Lock()
	defer p.mu.Unlock()

	newTPM := p.currentTPM * 0.5
	if newTPM < p.minTPM {
		newTPM = p.minTPM
	}
	if newTPM == p.currentTPM {
		return
	}
	p.currentTPM = newTPM
	p.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	p.limiter.SetBurst(int(newTPM))
}

func (p *Pacer) probe() {
	p.mu.Lock()
	defer p.mu.Unlock()

	newTPM := p.currentTPM + p.recoveryRate
	if newTPM > p.maxTPM {
		newTPM = p.maxTPM
	}
	if newTPM == p.currentTPM {
		return
	}
	p.currentTPM = newTPM
	p.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	p.limiter.SetBurst(int(newTPM))
}

// pacedChat wraps a ChatProvider with a Pacer. All Provider methods pass
// through to the wrapped adapter.
type pacedChat struct {
	ChatProvider
	pacer *Pacer
}

// WithPacing wraps a chat provider so every completion waits for pacer
// capacity first and reports its outcome back to the pacer. A nil pacer
// returns the provider unwrapped.
func WithPacing(next ChatProvider, pacer *Pacer) ChatProvider {
	if next == nil || pacer == nil {
		return next
	}
	return &pacedChat{
		ChatProvider: next,
		pacer:        pacer,
	}
}

// SendCompletion enforces the pacer before delegating to the wrapped
// provider.
func (c *pacedChat) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := c.pacer.Wait(ctx, estimatePacingTokens(req)); err != nil {
		return nil, err
	}
	resp, err := c.ChatProvider.SendCompletion(ctx, req)
	c.pacer.Observe(err)
	return resp, err
}

// estimatePacingTokens computes a cheap heuristic for the number of tokens
// in the request transcript. Roughly one token per three characters, plus a
// fixed buffer for system prompts and provider framing.
func estimatePacingTokens(req *CompletionRequest) int {
	charCount := 0
	for _, m := range req.Messages {
		charCount += len(m.Content)
	}
	if charCount <= 0 {
		// Minimal non-zero estimate so tiny requests still incur a cost.
		return 500
	}
	tokens := charCount / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
