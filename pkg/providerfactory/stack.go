package providerfactory

import (
	"context"
	"fmt"
	"log/slog"

	"stars-end/tribune/pkg/config"
	"stars-end/tribune/pkg/costs"
	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
	"stars-end/tribune/pkg/ratelimit"
	"stars-end/tribune/pkg/search"
	"stars-end/tribune/pkg/search/cache"
)

// Stack is the fully wired gateway: every collaborator built from one
// configuration, sharing a single budget ledger and rate limiter. Build it
// once at startup and Close it on shutdown.
type Stack struct {
	// Registry is the ordered candidate list.
	Registry *gateway.Registry

	// Budget is the shared cost ledger. When the configuration names a
	// budget period this is a rolling tracker.
	Budget costs.Budget

	// Limiter is the shared admission limiter.
	Limiter *ratelimit.Limiter

	// Pricing is the model-default pricing table, hot-swapped when a
	// pricing file is configured.
	Pricing *costs.Table

	// Engine serves chat invocations.
	Engine *gateway.Engine

	// Search serves search queries through the cache.
	Search *search.Client

	adapters     []providers.Provider
	cache        cache.Cache
	watcher      *config.PricingWatcher
	periodic     *costs.PeriodicTracker
	healthCancel context.CancelFunc
	logger       *slog.Logger
}

// healthChecked is the optional adapter surface for background probes. The
// concrete adapters all implement it; pacing wrappers do not, so checkers
// start on the unwrapped adapter.
type healthChecked interface {
	StartHealthChecker(ctx context.Context)
}

// Build assembles a Stack from a validated configuration. Construction is
// all-or-nothing: a failing provider entry tears down everything built so
// far and returns the error.
func Build(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Stack{logger: logger.With("component", "providerfactory")}

	table, err := config.BuildPricingTable(&cfg.Pricing)
	if err != nil {
		return nil, err
	}
	s.Pricing = table

	if cfg.Pricing.File != "" {
		watcher, err := config.NewPricingWatcher(cfg.Pricing.File, table, logger)
		if err != nil {
			return nil, err
		}
		if err := watcher.Start(); err != nil {
			return nil, err
		}
		s.watcher = watcher
	}

	if err := s.buildBudget(cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.buildCandidates(cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.buildCache(cfg); err != nil {
		s.Close()
		return nil, err
	}

	engine, err := gateway.NewEngine(gateway.EngineConfig{
		Registry:            s.Registry,
		Budget:              s.Budget,
		Limiter:             s.Limiter,
		Pricing:             s.Pricing,
		Logger:              logger,
		WaitForTopCandidate: cfg.Engine.WaitForTopCandidate,
		MaxTopCandidateWait: cfg.Engine.MaxTopCandidateWait,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = engine

	client, err := search.NewClient(search.Config{
		Registry: s.Registry,
		Budget:   s.Budget,
		Limiter:  s.Limiter,
		Cache:    s.cache,
		Logger:   logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Search = client

	s.logger.Info("gateway stack assembled",
		"providers", s.Registry.Len(),
		"budget_ceiling", cfg.Budget.Ceiling,
		"cache_backend", cfg.Search.CacheBackend,
	)

	return s, nil
}

// Close releases every resource the stack owns: the pricing watcher, the
// background health checkers, the budget roll scheduler, the cache backend,
// and all provider adapters. It is safe to call on a partially built stack.
func (s *Stack) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	if s.healthCancel != nil {
		s.healthCancel()
		s.healthCancel = nil
	}
	if s.periodic != nil {
		s.periodic.Stop()
		s.periodic = nil
	}

	var errs []error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
		s.cache = nil
	}
	for _, p := range s.adapters {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", p.GetName(), err))
		}
	}
	s.adapters = nil

	if len(errs) > 0 {
		return fmt.Errorf("errors closing stack: %v", errs)
	}
	return nil
}

func (s *Stack) buildBudget(cfg *config.Config) error {
	if cfg.Budget.Period == "" {
		s.Budget = costs.NewTracker(cfg.Budget.Ceiling)
		return nil
	}

	periodic, err := costs.NewPeriodicTracker(costs.PeriodConfig{
		Ceiling:  cfg.Budget.Ceiling,
		Schedule: cfg.Budget.Period,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build budget tracker: %w", err)
	}
	periodic.Start()
	s.periodic = periodic
	s.Budget = periodic
	return nil
}

func (s *Stack) buildCandidates(cfg *config.Config) error {
	limiter := ratelimit.NewLimiter()
	candidates := make([]gateway.Candidate, 0, len(cfg.Providers))

	healthCtx, cancel := context.WithCancel(context.Background())
	s.healthCancel = cancel

	for _, entry := range cfg.Providers {
		provider, err := NewProvider(entry)
		if err != nil {
			return err
		}
		candidate, err := bindCandidate(entry, provider)
		if err != nil {
			return err
		}
		candidates = append(candidates, candidate)
		s.trackAdapter(candidate)

		if entry.HealthCheckInterval > 0 {
			if hc, ok := provider.(healthChecked); ok {
				hc.StartHealthChecker(healthCtx)
			}
		}

		limit := cfg.RateLimit
		if entry.RateLimit != nil {
			limit = *entry.RateLimit
		}
		if limit.Requests > 0 {
			limiter.Set(entry.Name, ratelimit.Limit{
				Requests: limit.Requests,
				Window:   limit.Window,
			})
		}
	}

	registry, err := gateway.NewRegistry(candidates)
	if err != nil {
		return err
	}

	s.Registry = registry
	s.Limiter = limiter
	return nil
}

func (s *Stack) buildCache(cfg *config.Config) error {
	switch cfg.Search.CacheBackend {
	case "", "none":
		return nil

	case "memory":
		s.cache = cache.NewMemory(cfg.Search.CacheTTL, cfg.Search.CacheMaxEntries)
		return nil

	case "sqlite":
		backend, err := cache.NewSQLite(cfg.Search.CachePath, cfg.Search.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to open search cache: %w", err)
		}
		s.cache = backend
		return nil

	default:
		return fmt.Errorf("unsupported search cache backend: %q", cfg.Search.CacheBackend)
	}
}

// trackAdapter records the underlying adapter for shutdown. Pacing wrappers
// delegate Close to the wrapped provider, so either reference works; the
// search adapter is tracked when no chat adapter is bound.
func (s *Stack) trackAdapter(c gateway.Candidate) {
	if c.Chat != nil {
		s.adapters = append(s.adapters, c.Chat)
		return
	}
	if c.Search != nil {
		s.adapters = append(s.adapters, c.Search)
	}
}

// bindCandidate builds the registry spec for an entry and binds the
// matching capability adapter.
func bindCandidate(entry config.ProviderEntry, provider providers.Provider) (gateway.Candidate, error) {
	spec := gateway.ProviderSpec{
		ID:       entry.Name,
		Model:    entry.Model,
		Priority: entry.Priority,
		Pricing:  entry.Pricing,
	}

	candidate := gateway.Candidate{Spec: spec}

	if entry.IsSearch() {
		candidate.Spec.Family = gateway.CapabilitySearch
		sp, ok := provider.(providers.SearchProvider)
		if !ok {
			provider.Close()
			return gateway.Candidate{}, &providers.ConfigError{
				Provider: entry.Name,
				Field:    "family",
				Message:  fmt.Sprintf("adapter type %q does not serve search", entry.Type),
			}
		}
		candidate.Search = sp
		return candidate, nil
	}

	candidate.Spec.Family = gateway.CapabilityChat
	cp, ok := provider.(providers.ChatProvider)
	if !ok {
		provider.Close()
		return gateway.Candidate{}, &providers.ConfigError{
			Provider: entry.Name,
			Field:    "family",
			Message:  fmt.Sprintf("adapter type %q does not serve chat", entry.Type),
		}
	}
	if entry.PaceTPM > 0 {
		cp = providers.WithPacing(cp, providers.NewPacer(entry.PaceTPM, 0))
	}
	candidate.Chat = cp
	return candidate, nil
}
