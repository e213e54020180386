package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const defaultPaymentInterval = 5 * time.Minute

// PendingExpirer fails pending transactions that outlived their TTL and
// reports how many it changed.
type PendingExpirer interface {
	Execute(ctx context.Context) (int, error)
}

// PaymentScheduler runs the pending-transaction expirer on a fixed interval.
// The first pass runs immediately on Start.
type PaymentScheduler struct {
	expirer  PendingExpirer
	logger   logger.Interface
	stopChan chan struct{}
	stopOnce sync.Once      // Ensures Stop() is only called once
	wg       sync.WaitGroup // Tracks running goroutines for graceful shutdown
	interval time.Duration
}

func NewPaymentScheduler(expirer PendingExpirer, interval time.Duration, logger logger.Interface) *PaymentScheduler {
	if interval <= 0 {
		interval = defaultPaymentInterval
	}
	return &PaymentScheduler{
		expirer:  expirer,
		logger:   logger,
		stopChan: make(chan struct{}),
		interval: interval,
	}
}

// Start launches the loop and returns immediately.
func (s *PaymentScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting payment scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runExpireLoop(ctx)
	}()
}

// Stop stops the scheduler gracefully and waits for all goroutines to complete.
// Safe to call multiple times - only the first call will actually stop the scheduler.
func (s *PaymentScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping payment scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("payment scheduler stopped")
	})
}

func (s *PaymentScheduler) runExpireLoop(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("payment scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single expiry pass and returns the number of
// transactions failed.
func (s *PaymentScheduler) RunOnce(ctx context.Context) int {
	startTime := time.Now()

	count, err := s.expirer.Execute(ctx)
	if err != nil {
		s.logger.Errorw("failed to expire pending transactions",
			"error", err,
			"duration", time.Since(startTime),
		)
		return count
	}

	if count > 0 {
		s.logger.Infow("pending transactions expired",
			"count", count,
			"duration", time.Since(startTime),
		)
	}
	return count
}
