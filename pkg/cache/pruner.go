package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner sweeps expired cache entries on a cron schedule.
//
// The memory backend sweeps itself; the Pruner exists for the sqlite backend,
// where expired rows are merely ignored by reads and would otherwise
// accumulate on disk.
type Pruner struct {
	target   Prunable
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPruner creates a pruner for the given cache backend.
//
// Common schedules:
//   - "*/5 * * * *"  - every 5 minutes
//   - "0 * * * *"    - hourly
func NewPruner(target Prunable, schedule string) *Pruner {
	return &Pruner{
		target:   target,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "cache.pruner"),
	}
}

// Start begins scheduled pruning. If the schedule is empty, Start is a no-op.
// The pruner stops when ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping pruner")
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		p.runPrune(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule cache pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("cache pruner started", "schedule", p.schedule)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// runPrune executes a single pruning cycle.
func (p *Pruner) runPrune(ctx context.Context) {
	deleted, err := p.target.Prune(ctx, time.Now())
	if err != nil {
		p.logger.Error("scheduled cache pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		p.logger.Info("cache pruning completed", "deleted_count", deleted)
	} else {
		p.logger.Debug("cache pruning completed, nothing to delete")
	}
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil && p.running {
		ctx := p.cron.Stop()
		<-ctx.Done()
		p.running = false
		p.logger.Info("cache pruner stopped")
	}
}

// IsRunning returns true while the scheduler is active.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}
