package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher is the refresh cycle the scheduler drives, implemented by the
// totals application service
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// TotalsRefresher periodically recomputes the ledger aggregates and rewrites
// the cache. Ticks are serialized: a tick that fires while the previous
// cycle is still in flight is skipped, so an older snapshot can never land
// on top of a newer one.
type TotalsRefresher struct {
	refresher Refresher
	interval  time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	inFlight  bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	lastRunAt   *time.Time
	skippedRuns int64
}

// NewTotalsRefresher creates a new TotalsRefresher
func NewTotalsRefresher(refresher Refresher, interval time.Duration, logger *zap.Logger) *TotalsRefresher {
	return &TotalsRefresher{
		refresher: refresher,
		interval:  interval,
		logger:    logger.Named("refresher"),
	}
}

// Start begins the periodic refresh loop. Calling Start on a running
// refresher is a no-op.
func (s *TotalsRefresher) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("totals refresher started", zap.Duration("interval", s.interval))
}

// Stop cancels the refresh loop and waits for an in-flight cycle to finish
func (s *TotalsRefresher) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.logger.Info("totals refresher stopped")
}

func (s *TotalsRefresher) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Prime the cache at startup rather than waiting a full interval
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes one refresh cycle unless one is already in flight
func (s *TotalsRefresher) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.inFlight {
		s.skippedRuns++
		s.mu.Unlock()
		s.logger.Warn("refresh tick skipped, previous cycle still running")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		now := time.Now()
		s.lastRunAt = &now
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.refresher.RefreshAll(ctx); err != nil {
		// A failed cycle leaves the previous snapshot in place
		s.logger.Warn("totals refresh cycle failed", zap.Error(err))
		return
	}
	s.logger.Debug("totals refresh cycle complete", zap.Duration("elapsed", time.Since(start)))
}

// TriggerManualRun runs a refresh cycle out of band, subject to the same
// single-flight rule as scheduled ticks
func (s *TotalsRefresher) TriggerManualRun(ctx context.Context) {
	s.runOnce(ctx)
}

// Status reports the refresher's operational state
func (s *TotalsRefresher) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"is_running":   s.isRunning,
		"in_flight":    s.inFlight,
		"interval":     s.interval.String(),
		"last_run_at":  s.lastRunAt,
		"skipped_runs": s.skippedRuns,
	}
}
