package statuspoller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// sequence returns statuses in order, repeating the last one.
func sequence(steps ...any) (FetcherFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context, id string) (vo.Status, error) {
		i := int(calls.Add(1)) - 1
		if i >= len(steps) {
			i = len(steps) - 1
		}
		switch v := steps[i].(type) {
		case error:
			return "", v
		default:
			return v.(vo.Status), nil
		}
	}, &calls
}

func TestAwait_Terminal(t *testing.T) {
	tests := []struct {
		name         string
		steps        []any
		wantState    State
		wantStatus   vo.Status
		wantAttempts int
	}{
		{"paid after pending", []any{vo.StatusPending, vo.StatusPending, vo.StatusPaid}, StateSucceeded, vo.StatusPaid, 3},
		{"webhook succeeded", []any{vo.StatusSucceeded}, StateSucceeded, vo.StatusSucceeded, 1},
		{"failed", []any{vo.StatusPending, vo.StatusFailed}, StateFailed, vo.StatusFailed, 2},
		{"recovers from fetch error", []any{errors.New("boom"), vo.StatusPaid}, StateSucceeded, vo.StatusPaid, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, _ := sequence(tt.steps...)
			p := New(fetch, time.Millisecond, 10, testLogger())

			out, err := p.Await(context.Background(), "tx-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantAttempts, out.Attempts)
		})
	}
}

func TestAwait_MaxAttempts(t *testing.T) {
	fetch, calls := sequence(vo.StatusPending)
	p := New(fetch, time.Millisecond, 5, testLogger())

	out, err := p.Await(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, out.State)
	assert.Equal(t, vo.StatusPending, out.Status)
	assert.Equal(t, 5, out.Attempts)
	assert.Equal(t, int32(5), calls.Load())
}

func TestAwait_ErrorsCountAsAttempts(t *testing.T) {
	fetch, _ := sequence(errors.New("unavailable"))
	p := New(fetch, time.Millisecond, 3, testLogger())

	out, err := p.Await(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, out.State)
	assert.Empty(t, out.Status)
	assert.Equal(t, 3, out.Attempts)
}

func TestAwait_ContextCanceled(t *testing.T) {
	fetch, _ := sequence(vo.StatusPending)
	p := New(fetch, time.Hour, 10, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var (
		out Outcome
		err error
	)
	go func() {
		defer close(done)
		out, err = p.Await(ctx, "tx-1")
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Await did not return after cancel")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePolling, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestNew_Defaults(t *testing.T) {
	p := New(FetcherFunc(nil), 0, 0, testLogger())
	assert.Equal(t, DefaultInterval, p.interval)
	assert.Equal(t, DefaultMaxAttempts, p.maxAttempts)
}
