package worker

import (
	"context"
	"sync"
	"time"

	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// HealthChecker is the probe the monitor runs each cycle
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// StoreHealthWorker periodically probes the vector store and tracks its
// availability. The HTTP health endpoint and the serve loop read the last
// observed state instead of probing on every request.
//
// Architecture assumptions:
// - Single server instance (no distributed coordination)
type StoreHealthWorker struct {
	checker  HealthChecker
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu           sync.RWMutex
	healthy      bool
	lastChecked  time.Time
	failureCount int
}

// NewStoreHealthWorker creates a worker probing the store at the interval
func NewStoreHealthWorker(checker HealthChecker, interval time.Duration) *StoreHealthWorker {
	return &StoreHealthWorker{
		checker:  checker,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		healthy:  true,
	}
}

// Start begins the background probe loop. It does not block server startup.
func (w *StoreHealthWorker) Start(ctx context.Context) error {
	logging.Default().Info("Store health worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *StoreHealthWorker) Stop() {
	logging.Default().Info("Store health worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Store health worker stopped")
}

// Ping satisfies the HTTP health probe from the last observed state
// without touching the store
func (w *StoreHealthWorker) Ping(ctx context.Context) error {
	if !w.Healthy() {
		return goerr.New("vector store unreachable")
	}
	return nil
}

// Healthy reports the last observed store state
func (w *StoreHealthWorker) Healthy() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.healthy
}

// LastChecked returns the time of the most recent probe
func (w *StoreHealthWorker) LastChecked() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastChecked
}

func (w *StoreHealthWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)

		case <-w.stopCh:
			logging.Default().Info("Store health worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Store health worker context cancelled")
			return
		}
	}
}

// probe performs one health check cycle and logs state transitions
func (w *StoreHealthWorker) probe(ctx context.Context) {
	err := w.checker.Ping(ctx)
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	wasHealthy := w.healthy
	w.lastChecked = now

	if err != nil {
		w.healthy = false
		w.failureCount++
		if wasHealthy {
			logging.Default().Error("Vector store became unreachable",
				"error", err.Error())
		} else {
			logging.Default().Warn("Vector store still unreachable",
				"consecutive_failures", w.failureCount,
				"error", err.Error())
		}
		return
	}

	w.healthy = true
	w.failureCount = 0
	if !wasHealthy {
		logging.Default().Info("Vector store recovered")
	}
}
