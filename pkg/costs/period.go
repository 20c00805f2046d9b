package costs

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PeriodConfig configures a PeriodicTracker.
type PeriodConfig struct {
	// Ceiling is the budget ceiling applied to each period.
	Ceiling float64

	// Schedule is a standard cron expression (descriptors like "@daily"
	// work too) marking period boundaries.
	Schedule string

	// OnRoll, when set, receives the closing status of each period just
	// after a fresh ledger is swapped in. Callers use it to snapshot spend
	// records; the tracker itself persists nothing.
	OnRoll func(closed Status)

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// PeriodicTracker applies the fresh-tracker-per-period usage pattern
// automatically: it owns a current Tracker and swaps in a new one on a cron
// schedule. It satisfies Budget, so the invocation paths never notice the
// roll; in-flight Record calls land in whichever ledger they started with,
// which keeps every entry accounted for exactly once.
type PeriodicTracker struct {
	ceiling float64
	onRoll  func(Status)
	logger  *slog.Logger

	// mu guards the current ledger pointer only. Cron lifecycle state has
	// its own lock so Stop can wait for a roll in progress without
	// deadlocking against it.
	mu      sync.RWMutex
	current *Tracker

	cronMu  sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPeriodicTracker creates a periodic tracker with an initial fresh
// ledger. The schedule is validated here; Start begins the rolls.
func NewPeriodicTracker(config PeriodConfig) (*PeriodicTracker, error) {
	if config.Schedule == "" {
		return nil, fmt.Errorf("budget period schedule is required")
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid budget period schedule %q: %w", config.Schedule, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &PeriodicTracker{
		ceiling: config.Ceiling,
		onRoll:  config.OnRoll,
		logger:  logger.With("component", "costs.period"),
		current: NewTracker(config.Ceiling),
		cron:    cron.New(),
	}

	if _, err := p.cron.AddFunc(config.Schedule, p.scheduledRoll); err != nil {
		return nil, fmt.Errorf("failed to schedule budget period roll: %w", err)
	}

	return p, nil
}

// Start begins scheduled period rolls.
func (p *PeriodicTracker) Start() {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if p.running {
		return
	}
	p.cron.Start()
	p.running = true
	p.logger.Info("budget period scheduler started", "ceiling", p.ceiling)
}

// Stop halts scheduled rolls and waits for a roll in progress to finish.
// The current ledger keeps accepting records after Stop.
func (p *PeriodicTracker) Stop() {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if !p.running {
		return
	}
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.running = false
	p.logger.Info("budget period scheduler stopped")
}

// NextRoll returns the next scheduled period boundary, or the zero time when
// the scheduler is not running.
func (p *PeriodicTracker) NextRoll() time.Time {
	p.cronMu.Lock()
	defer p.cronMu.Unlock()

	if !p.running {
		return time.Time{}
	}
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Current returns the tracker for the period in progress.
func (p *PeriodicTracker) Current() *Tracker {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

// Record implements Budget against the current period's ledger.
func (p *PeriodicTracker) Record(providerID, requestID string, amount float64) float64 {
	return p.Current().Record(providerID, requestID, amount)
}

// CanAfford implements Budget against the current period's ledger.
func (p *PeriodicTracker) CanAfford(amount float64) bool {
	return p.Current().CanAfford(amount)
}

// Remaining implements Budget against the current period's ledger.
func (p *PeriodicTracker) Remaining() float64 {
	return p.Current().Remaining()
}

// Roll closes the current period immediately and starts a fresh ledger,
// independent of the schedule. Useful for tests and manual resets.
func (p *PeriodicTracker) Roll() Status {
	return p.rollLedger()
}

func (p *PeriodicTracker) scheduledRoll() {
	closed := p.rollLedger()
	p.logger.Info("budget period rolled",
		"spent", closed.Spent,
		"ceiling", closed.Ceiling,
		"entries", closed.Entries,
	)
}

func (p *PeriodicTracker) rollLedger() Status {
	p.mu.Lock()
	closed := p.current.Status()
	p.current = NewTracker(p.ceiling)
	p.mu.Unlock()

	if p.onRoll != nil {
		p.onRoll(closed)
	}
	return closed
}
