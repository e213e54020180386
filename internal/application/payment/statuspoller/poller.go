// Package statuspoller waits for a transaction to reach a terminal status by
// re-reading it at a fixed interval.
package statuspoller

import (
	"context"
	"fmt"
	"time"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// State is the poller's position in its lifecycle.
type State string

const (
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

func (s State) IsFinal() bool {
	return s != StatePolling
}

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 40
)

// Fetcher returns the current status of a transaction.
type Fetcher interface {
	FetchStatus(ctx context.Context, transactionID string) (vo.Status, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, transactionID string) (vo.Status, error)

func (f FetcherFunc) FetchStatus(ctx context.Context, transactionID string) (vo.Status, error) {
	return f(ctx, transactionID)
}

// Outcome is the result of Await. Status is the last status observed and is
// empty when no fetch succeeded.
type Outcome struct {
	State    State     `json:"state"`
	Status   vo.Status `json:"status,omitempty"`
	Attempts int       `json:"attempts"`
}

type Poller struct {
	fetcher     Fetcher
	interval    time.Duration
	maxAttempts int
	logger      logger.Interface
}

// New creates a poller. Non-positive interval or maxAttempts fall back to
// the defaults.
func New(fetcher Fetcher, interval time.Duration, maxAttempts int, log logger.Interface) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{
		fetcher:     fetcher,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Await polls until the transaction is terminal or maxAttempts fetches were
// made. The first fetch happens immediately. A failed fetch counts as an
// attempt. If ctx ends first, the partial outcome and ctx.Err() are returned.
func (p *Poller) Await(ctx context.Context, transactionID string) (Outcome, error) {
	out := Outcome{State: StatePolling}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-timer.C:
		}

		out.Attempts++
		status, err := p.fetcher.FetchStatus(ctx, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			p.logger.Warnw("transaction status fetch failed",
				"transaction_id", transactionID,
				"attempt", out.Attempts,
				"error", err,
			)
		} else {
			out.Status = status
			out.State = next(status)
		}

		if out.State.IsFinal() {
			return out, nil
		}
		if out.Attempts >= p.maxAttempts {
			out.State = StateTimedOut
			p.logger.Infow("gave up waiting for transaction",
				"transaction_id", transactionID,
				"attempts", out.Attempts,
				"last_status", out.Status,
			)
			return out, nil
		}
		timer.Reset(p.interval)
	}
}

func next(status vo.Status) State {
	switch {
	case status.IsSuccessful():
		return StateSucceeded
	case status == vo.StatusFailed:
		return StateFailed
	default:
		return StatePolling
	}
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s (status=%q, attempts=%d)", o.State, o.Status, o.Attempts)
}
