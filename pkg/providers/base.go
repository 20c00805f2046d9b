package providers

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// unhealthyThreshold is how many consecutive failures mark a provider
// unhealthy.
const unhealthyThreshold = 3

// BaseProvider carries the identity and health tracking shared by every
// adapter. SDK-backed adapters embed it directly and report outcomes with
// RecordOutcome; HTTP adapters get it through HTTPProvider, which records
// outcomes itself.
type BaseProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex

	// stopHealthCheck is closed to signal the health checker to stop
	stopHealthCheck chan struct{}

	// healthCheckStopped is closed when the health checker has stopped
	healthCheckStopped chan struct{}

	checkerStarted bool
	closeOnce      sync.Once
}

// NewBaseProvider creates the shared provider base. Health starts
// optimistic.
func NewBaseProvider(config ProviderConfig) *BaseProvider {
	return &BaseProvider{
		config: config,
		health: ProviderHealth{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}
}

// GetName returns the provider's configured name.
func (b *BaseProvider) GetName() string {
	return b.config.Name
}

// GetType returns the provider's type.
func (b *BaseProvider) GetType() string {
	return b.config.Type
}

// GetConfig returns the provider's configuration.
func (b *BaseProvider) GetConfig() ProviderConfig {
	return b.config
}

// IsHealthy returns the current health status.
func (b *BaseProvider) IsHealthy() bool {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return b.health.IsHealthy
}

// GetHealth returns detailed health information.
func (b *BaseProvider) GetHealth() ProviderHealth {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return b.health
}

// RecordOutcome records the outcome of one request: counters plus health
// state. SDK-backed adapters call this after every upstream call.
func (b *BaseProvider) RecordOutcome(err error) {
	b.recordRequest(err == nil)
	b.updateHealth(err == nil, err)
}

// updateHealth updates the provider's health status. Called after each
// health check or request.
func (b *BaseProvider) updateHealth(success bool, err error) {
	b.healthMu.Lock()
	defer b.healthMu.Unlock()

	b.health.LastCheck = time.Now()

	if success {
		b.health.IsHealthy = true
		b.health.ConsecutiveFailures = 0
		b.health.LastError = nil
		b.health.LastSuccessfulRequest = time.Now()
		return
	}

	b.health.ConsecutiveFailures++
	b.health.LastError = err

	if b.health.ConsecutiveFailures >= unhealthyThreshold {
		b.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", b.config.Name,
			"consecutive_failures", b.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// recordRequest records request counters.
func (b *BaseProvider) recordRequest(success bool) {
	b.healthMu.Lock()
	defer b.healthMu.Unlock()

	b.health.TotalRequests++
	if !success {
		b.health.FailedRequests++
	}
}

// StartHealthChecker starts a background goroutine that periodically probes
// the provider and updates its health status. The probe is the adapter's
// own lightweight reachability check.
//
// The checker runs until the provider is closed or the context is
// cancelled. When the provider is unhealthy it backs off exponentially to
// reduce load. Calling StartHealthChecker more than once is a no-op.
func (b *BaseProvider) StartHealthChecker(ctx context.Context, probe func(context.Context) error) {
	b.healthMu.Lock()
	if b.checkerStarted {
		b.healthMu.Unlock()
		return
	}
	b.checkerStarted = true
	b.healthMu.Unlock()

	go b.runHealthChecker(ctx, probe)
}

// runHealthChecker is the main health checking loop.
func (b *BaseProvider) runHealthChecker(ctx context.Context, probe func(context.Context) error) {
	defer close(b.healthCheckStopped)

	interval := b.config.HealthCheckInterval
	if interval == 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("health checker started",
		"provider", b.config.Name,
		"interval", interval,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("health checker stopped (context cancelled)", "provider", b.config.Name)
			return

		case <-b.stopHealthCheck:
			slog.Debug("health checker stopped (provider closed)", "provider", b.config.Name)
			return

		case <-ticker.C:
			b.performHealthCheck(ctx, probe)

			if !b.IsHealthy() {
				health := b.GetHealth()
				backoffInterval := calculateBackoff(health.ConsecutiveFailures, interval)
				ticker.Reset(backoffInterval)

				slog.Debug("health check backoff",
					"provider", b.config.Name,
					"consecutive_failures", health.ConsecutiveFailures,
					"next_check_in", backoffInterval,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

// performHealthCheck executes a single health check.
func (b *BaseProvider) performHealthCheck(ctx context.Context, probe func(context.Context) error) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := probe(checkCtx)
	latency := time.Since(start)

	if err != nil {
		b.updateHealth(false, err)
		slog.Error("health check failed",
			"provider", b.config.Name,
			"error", err,
			"latency", latency,
		)
		return
	}

	health := b.GetHealth()
	b.updateHealth(true, nil)
	slog.Debug("health check passed",
		"provider", b.config.Name,
		"latency", latency,
	)

	if health.ConsecutiveFailures > 0 {
		slog.Info("provider marked healthy",
			"provider", b.config.Name,
			"previous_failures", health.ConsecutiveFailures,
		)
	}
}

// Close signals the health checker to stop and waits for it when one was
// started. Safe to call more than once.
func (b *BaseProvider) Close() error {
	b.closeOnce.Do(func() {
		close(b.stopHealthCheck)

		b.healthMu.RLock()
		started := b.checkerStarted
		b.healthMu.RUnlock()

		if started {
			select {
			case <-b.healthCheckStopped:
				slog.Debug("health checker stopped", "provider", b.config.Name)
			case <-time.After(5 * time.Second):
				slog.Warn("health checker did not stop in time", "provider", b.config.Name)
			}
		}

		slog.Info("provider closed", "provider", b.config.Name)
	})
	return nil
}

// calculateBackoff calculates the health check interval based on
// consecutive failures. Exponential with a cap.
func calculateBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	// The cap below makes any shift past 4 equivalent, and an unclamped
	// shift would overflow for large failure counts.
	if consecutiveFailures > 4 {
		consecutiveFailures = 4
	}
	multiplier := 1 << uint(consecutiveFailures)
	if multiplier > 10 {
		multiplier = 10
	}

	backoff := baseInterval * time.Duration(multiplier)

	maxBackoff := 5 * time.Minute
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	return backoff
}
