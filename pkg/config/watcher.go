package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"stars-end/tribune/pkg/costs"
)

const defaultDebounceInterval = 100 * time.Millisecond

// PricingWatcher watches the pricing table file for changes and atomically
// swaps the in-memory table on each successful reload. A file that fails to
// parse leaves the current table in place. Registry composition and
// priorities never change at runtime; rates are the one hot-reloadable
// piece of configuration.
type PricingWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	table    *costs.Table
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPricingWatcher creates a watcher for the pricing file feeding the
// given table. Start begins watching.
func NewPricingWatcher(path string, table *costs.Table, logger *slog.Logger) (*PricingWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("pricing file path is required")
	}
	if table == nil {
		return nil, fmt.Errorf("pricing table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &PricingWatcher{
		watcher:  watcher,
		path:     path,
		table:    table,
		logger:   logger.With("component", "config.pricing_watcher"),
		debounce: defaultDebounceInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic rename-style rewrites keep being seen.
func (w *PricingWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("pricing watcher already running")
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch pricing file directory: %w", err)
	}

	w.running = true
	go w.run()

	w.logger.Info("pricing file watcher started", "path", w.path)
	return nil
}

// Stop halts watching and waits for the event loop to exit. Idempotent.
func (w *PricingWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

// run is the event loop: relevant write/create events arm a debounce timer,
// and the timer firing triggers one reload for the whole burst.
func (w *PricingWatcher) run() {
	defer close(w.doneCh)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("pricing watcher error", "error", err)
		}
	}
}

// reload parses the file and swaps the table. Parse failures keep the
// current table.
func (w *PricingWatcher) reload() {
	models, fallback, err := LoadPricingFile(w.path)
	if err != nil {
		w.logger.Warn("pricing file reload failed, keeping current table", "error", err)
		return
	}

	w.table.Replace(models, fallback)
	w.logger.Info("pricing table reloaded", "models", len(models))
}
