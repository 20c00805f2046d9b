package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"stars-end/tribune/internal/gatewaytest"
	"stars-end/tribune/pkg/costs"
	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
	"stars-end/tribune/pkg/ratelimit"
	"stars-end/tribune/pkg/search/cache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func searchSpec(id string, priority int, perQuery float64) gateway.ProviderSpec {
	return gateway.ProviderSpec{
		ID:       id,
		Family:   gateway.CapabilitySearch,
		Priority: priority,
		Pricing:  costs.Pricing{PerQuery: perQuery},
	}
}

func newTestRegistry(t *testing.T, candidates ...gateway.Candidate) *gateway.Registry {
	t.Helper()
	registry, err := gateway.NewRegistry(candidates)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return registry
}

func newTestClient(t *testing.T, config Config) *Client {
	t.Helper()
	if config.Logger == nil {
		config.Logger = quietLogger()
	}
	client, err := NewClient(config)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

// denyAllAdmitter denies every provider with a fixed retry-after.
type denyAllAdmitter struct {
	retryAfter time.Duration
}

func (d *denyAllAdmitter) TryAcquire(providerID string) ratelimit.Decision {
	return ratelimit.Decision{Allowed: false, RetryAfter: d.retryAfter}
}

// failingCache errors on every operation.
type failingCache struct{}

func (f *failingCache) Get(ctx context.Context, key string) (*cache.Entry, bool, error) {
	return nil, false, errors.New("cache backend down")
}

func (f *failingCache) Put(ctx context.Context, key string, entry *cache.Entry) error {
	return errors.New("cache backend down")
}

func (f *failingCache) Close() error { return nil }

// ===== Construction =====

func TestNewClientValidation(t *testing.T) {
	registry := newTestRegistry(t)

	if _, err := NewClient(Config{Budget: costs.NewTracker(10)}); err == nil {
		t.Error("Expected error for missing registry")
	}
	if _, err := NewClient(Config{Registry: registry}); err == nil {
		t.Error("Expected error for missing budget")
	}
	if _, err := NewClient(Config{Registry: registry, Budget: costs.NewTracker(10)}); err != nil {
		t.Errorf("Expected minimal config to work, got %v", err)
	}
}

// ===== Query Normalization =====

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "City Council BUDGET", "city council budget"},
		{"trim", "  budget hearing  ", "budget hearing"},
		{"collapse interior whitespace", "budget \t\n hearing", "budget hearing"},
		{"already normal", "budget hearing", "budget hearing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ===== Basic Search =====

func TestSearchSuccess(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	tracker := costs.NewTracker(10)

	client := newTestClient(t, Config{Registry: registry, Budget: tracker})

	result, err := client.Search(context.Background(), &Query{Text: "city council budget"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Provider != "serper" {
		t.Errorf("Expected provider serper, got %q", result.Provider)
	}
	if result.CacheHit {
		t.Error("Expected no cache hit without a cache")
	}
	if len(result.Hits) != 3 {
		t.Errorf("Expected 3 canned hits, got %d", len(result.Hits))
	}
	if result.Cost != 0.001 {
		t.Errorf("Expected per-query cost 0.001, got %f", result.Cost)
	}
	if result.QueryID == "" {
		t.Error("Expected a generated query ID")
	}
	if result.Key != "city council budget" {
		t.Errorf("Expected normalized key, got %q", result.Key)
	}
	if tracker.Total() != 0.001 {
		t.Errorf("Expected ledger total 0.001, got %f", tracker.Total())
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	registry := newTestRegistry(t)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	if _, err := client.Search(context.Background(), nil); err == nil {
		t.Error("Expected error for nil query")
	}
	if _, err := client.Search(context.Background(), &Query{}); err == nil {
		t.Error("Expected error for empty query text")
	}
}

func TestSearchNoCandidates(t *testing.T) {
	registry := newTestRegistry(t)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	_, err := client.Search(context.Background(), &Query{Text: "anything"})
	if !errors.Is(err, gateway.ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates, got %v", err)
	}
}

// ===== Priority Order and Failover =====

func TestSearchPriorityOrder(t *testing.T) {
	primary := gatewaytest.NewMockSearchProvider("serper")
	secondary := gatewaytest.NewMockSearchProvider("brave")
	registry := newTestRegistry(t,
		gateway.Candidate{Spec: searchSpec("brave", 2, 0.002), Search: secondary},
		gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: primary},
	)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	result, err := client.Search(context.Background(), &Query{Text: "zoning ordinance"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Provider != "serper" {
		t.Errorf("Expected lower-priority-rank provider to serve, got %q", result.Provider)
	}
	if secondary.Calls() != 0 {
		t.Errorf("Expected secondary untouched after primary success, got %d calls", secondary.Calls())
	}
}

func TestSearchFailover(t *testing.T) {
	primary := gatewaytest.NewMockSearchProvider("serper")
	primary.Reset()
	primary.FailWith(&providers.TimeoutError{Provider: "serper", Timeout: time.Second})
	secondary := gatewaytest.NewMockSearchProvider("brave")

	registry := newTestRegistry(t,
		gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: primary},
		gateway.Candidate{Spec: searchSpec("brave", 2, 0.002), Search: secondary},
	)
	tracker := costs.NewTracker(10)
	client := newTestClient(t, Config{Registry: registry, Budget: tracker})

	result, err := client.Search(context.Background(), &Query{Text: "public hearing notice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Provider != "brave" {
		t.Errorf("Expected failover to brave, got %q", result.Provider)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts in the trail, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Status != gateway.AttemptFailed {
		t.Errorf("Expected first attempt failed, got %q", result.Attempts[0].Status)
	}
	// Only the serving provider's cost lands in the ledger.
	if tracker.Total() != 0.002 {
		t.Errorf("Expected ledger total 0.002, got %f", tracker.Total())
	}
}

func TestSearchUnhealthySkipFallsThrough(t *testing.T) {
	primary := gatewaytest.NewMockSearchProvider("serper")
	primary.SetHealthy(false)
	secondary := gatewaytest.NewMockSearchProvider("brave")

	registry := newTestRegistry(t,
		gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: primary},
		gateway.Candidate{Spec: searchSpec("brave", 2, 0.002), Search: secondary},
	)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	result, err := client.Search(context.Background(), &Query{Text: "flood plain map update"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Provider != "brave" {
		t.Errorf("Expected healthy candidate to serve, got %q", result.Provider)
	}
	if primary.Calls() != 0 {
		t.Errorf("Expected no calls to the unhealthy candidate, got %d", primary.Calls())
	}
	if len(result.Attempts) != 2 || result.Attempts[0].Status != gateway.AttemptUnhealthy {
		t.Errorf("Expected unhealthy skip in the trail, got %+v", result.Attempts)
	}
}

func TestSearchPermanentErrorAbortsWalk(t *testing.T) {
	primary := gatewaytest.NewMockSearchProvider("serper")
	primary.Reset()
	primary.FailWith(&providers.ValidationError{Field: "q", Message: "query too long"})
	secondary := gatewaytest.NewMockSearchProvider("brave")

	registry := newTestRegistry(t,
		gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: primary},
		gateway.Candidate{Spec: searchSpec("brave", 2, 0.002), Search: secondary},
	)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	_, err := client.Search(context.Background(), &Query{Text: "bad request"})
	if !errors.Is(err, gateway.ErrRequestRejected) {
		t.Fatalf("Expected ErrRequestRejected, got %v", err)
	}
	if secondary.Calls() != 0 {
		t.Errorf("Expected no failover after a request rejection, got %d calls", secondary.Calls())
	}
}

// ===== Exhaustion Classification =====

func TestSearchAllProvidersFail(t *testing.T) {
	first := gatewaytest.NewMockSearchProvider("serper")
	first.Reset()
	first.FailWith(&providers.ProviderError{Provider: "serper", StatusCode: 503, Message: "overloaded"})
	second := gatewaytest.NewMockSearchProvider("brave")
	second.Reset()
	second.FailWith(&providers.TimeoutError{Provider: "brave", Timeout: time.Second})

	registry := newTestRegistry(t,
		gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: first},
		gateway.Candidate{Spec: searchSpec("brave", 2, 0.002), Search: second},
	)
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10)})

	_, err := client.Search(context.Background(), &Query{Text: "meeting agenda"})
	if !errors.Is(err, ErrSearchExhausted) {
		t.Fatalf("Expected ErrSearchExhausted, got %v", err)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatal("Expected ExhaustedError detail")
	}
	if len(exhausted.Attempts) != 2 {
		t.Errorf("Expected 2 attempts recorded, got %d", len(exhausted.Attempts))
	}
	if exhausted.LastErr == nil {
		t.Error("Expected the last provider error carried")
	}
	// Distinct from the LLM terminal error.
	if errors.Is(err, gateway.ErrAllProvidersFailed) {
		t.Error("Expected search exhaustion to stay distinct from the LLM terminal error")
	}
}

func TestSearchAllUnaffordableReportsBudget(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 5.0), Search: provider})
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(1.0)})

	_, err := client.Search(context.Background(), &Query{Text: "expensive query"})
	if !errors.Is(err, gateway.ErrBudgetExceeded) {
		t.Fatalf("Expected ErrBudgetExceeded, got %v", err)
	}
	if errors.Is(err, ErrSearchExhausted) {
		t.Error("Expected budget exhaustion, not search exhaustion")
	}
	if provider.Calls() != 0 {
		t.Errorf("Expected no provider calls when unaffordable, got %d", provider.Calls())
	}
}

func TestSearchAllRateLimitedReportsBackpressure(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	client := newTestClient(t, Config{
		Registry: registry,
		Budget:   costs.NewTracker(10),
		Limiter:  &denyAllAdmitter{retryAfter: 700 * time.Millisecond},
	})

	_, err := client.Search(context.Background(), &Query{Text: "rate limited query"})
	if !errors.Is(err, gateway.ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	var rateLimited *gateway.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatal("Expected RateLimitedError detail")
	}
	if rateLimited.RetryAfter != 700*time.Millisecond {
		t.Errorf("Expected minimum retry-after 700ms, got %s", rateLimited.RetryAfter)
	}
	if provider.Calls() != 0 {
		t.Errorf("Expected no provider calls when rate limited, got %d", provider.Calls())
	}
}

// ===== Cache Seam =====

func TestSearchCacheHitSecondCall(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	tracker := costs.NewTracker(10)
	limiter := ratelimit.NewLimiter()
	limiter.Set("serper", ratelimit.Limit{Requests: 1, Window: time.Minute})

	mem := cache.NewMemory(0, 0)
	defer mem.Close()

	client := newTestClient(t, Config{Registry: registry, Budget: tracker, Limiter: limiter, Cache: mem})
	ctx := context.Background()

	first, err := client.Search(ctx, &Query{Text: "City Council Budget"})
	if err != nil {
		t.Fatalf("First search failed: %v", err)
	}
	if first.CacheHit {
		t.Error("Expected first call to miss the cache")
	}

	// Same query modulo case and spacing: must hit, with no provider call,
	// no cost, and no rate-limit consumption. The single-slot limiter would
	// deny a second real call.
	second, err := client.Search(ctx, &Query{Text: "  city   council BUDGET "})
	if err != nil {
		t.Fatalf("Second search failed: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("Expected second call to hit the cache")
	}
	if second.Provider != "serper" {
		t.Errorf("Expected cached provider echoed, got %q", second.Provider)
	}
	if second.Cost != 0 {
		t.Errorf("Expected zero cost on cache hit, got %f", second.Cost)
	}
	if provider.Calls() != 1 {
		t.Errorf("Expected exactly one provider call, got %d", provider.Calls())
	}
	if tracker.Total() != 0.001 {
		t.Errorf("Expected ledger total unchanged at 0.001, got %f", tracker.Total())
	}
	if len(second.Hits) != len(first.Hits) {
		t.Errorf("Expected identical hits from cache, got %d vs %d", len(second.Hits), len(first.Hits))
	}
}

func TestSearchFreshBypassesCacheRead(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	mem := cache.NewMemory(0, 0)
	defer mem.Close()

	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10), Cache: mem})
	ctx := context.Background()

	if _, err := client.Search(ctx, &Query{Text: "agenda"}); err != nil {
		t.Fatalf("First search failed: %v", err)
	}

	result, err := client.Search(ctx, &Query{Text: "agenda", Fresh: true})
	if err != nil {
		t.Fatalf("Fresh search failed: %v", err)
	}
	if result.CacheHit {
		t.Error("Expected fresh query to bypass the cache read")
	}
	if provider.Calls() != 2 {
		t.Errorf("Expected two provider calls, got %d", provider.Calls())
	}
}

func TestSearchCacheErrorsAbsorbed(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	client := newTestClient(t, Config{Registry: registry, Budget: costs.NewTracker(10), Cache: &failingCache{}})

	result, err := client.Search(context.Background(), &Query{Text: "resilient query"})
	if err != nil {
		t.Fatalf("Expected cache failures absorbed, got %v", err)
	}
	if result.CacheHit {
		t.Error("Expected a miss through the failing cache")
	}
	if result.Provider != "serper" {
		t.Errorf("Expected provider to serve despite cache failure, got %q", result.Provider)
	}
}

// ===== Cancellation =====

func TestSearchContextCancelled(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	provider.SetDelay(200 * time.Millisecond)
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.001), Search: provider})
	tracker := costs.NewTracker(10)
	client := newTestClient(t, Config{Registry: registry, Budget: tracker})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, &Query{Text: "slow query"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context deadline error, got %v", err)
	}
	// Cancellation mid-flight leaves the ledger untouched.
	if tracker.Total() != 0 {
		t.Errorf("Expected no cost recorded after cancellation, got %f", tracker.Total())
	}
}

// ===== Envelope Adapter =====

func TestResultToEnvelopeSuccess(t *testing.T) {
	result := &Result{
		QueryID:  "q-1",
		Query:    "budget",
		Provider: "serper",
		Cost:     0.001,
		Hits: []providers.SearchHit{
			{Title: "Budget 2026", URL: "https://city.example.gov/budget", Snippet: "adopted", Position: 1},
		},
	}

	env := ResultToEnvelope(result, nil)
	if !env.OK() {
		t.Fatal("Expected success envelope")
	}
	if len(env.Artifacts()) != 1 {
		t.Fatalf("Expected 1 artifact, got %d", len(env.Artifacts()))
	}
	if env.Artifacts()[0].Kind != "search_hit" {
		t.Errorf("Expected search_hit artifact, got %q", env.Artifacts()[0].Kind)
	}
	if provider, _ := env.Meta("provider"); provider != "serper" {
		t.Errorf("Expected provider metadata, got %q", provider)
	}
}

func TestResultToEnvelopeFailure(t *testing.T) {
	err := &ExhaustedError{Query: "budget", LastErr: errors.New("boom")}

	env := ResultToEnvelope(nil, err)
	if env.OK() {
		t.Fatal("Expected failure envelope")
	}
	if kind, _ := env.Meta("failure_kind"); kind != "search_exhausted" {
		t.Errorf("Expected failure_kind search_exhausted, got %q", kind)
	}
}

// ===== Concurrency =====

func TestSearchConcurrentSharedBudget(t *testing.T) {
	provider := gatewaytest.NewMockSearchProvider("serper")
	registry := newTestRegistry(t, gateway.Candidate{Spec: searchSpec("serper", 1, 0.1), Search: provider})
	tracker := costs.NewTracker(1.0)
	client := newTestClient(t, Config{Registry: registry, Budget: tracker})

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Search(context.Background(), &Query{Text: "concurrent query", Fresh: true})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Search %d failed: %v", i, err)
		}
	}
	if total := tracker.Total(); total != 1.0 {
		t.Errorf("Expected exact total 1.0 with no lost updates, got %f", total)
	}
}
