package payments

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe-inc/tribe/internal/application/payment/statuspoller"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

func TestStatusClient_FetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/transactions/tx-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"tx-1","status":"paid","terminal":true}}`))
	}))
	defer srv.Close()

	client := NewStatusClient(srv.URL+"/", "tok", time.Second)

	status, err := client.FetchStatus(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.Equal(t, vo.StatusPaid, status)
}

func TestStatusClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Transaction not found"}}`))
	}))
	defer srv.Close()

	_, err := NewStatusClient(srv.URL, "tok", time.Second).FetchStatus(context.Background(), "tx-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_found")
}

func TestStatusClient_UnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"refunded"}}`))
	}))
	defer srv.Close()

	_, err := NewStatusClient(srv.URL, "tok", time.Second).FetchStatus(context.Background(), "tx-1")

	assert.Error(t, err)
}

func TestStatusClient_DrivesPoller(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "pending"
		if calls.Add(1) >= 3 {
			status = "succeeded"
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"` + status + `"}}`))
	}))
	defer srv.Close()

	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	poller := statuspoller.New(NewStatusClient(srv.URL, "tok", time.Second), time.Millisecond, 10, log)

	outcome, err := poller.Await(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.Equal(t, statuspoller.StateSucceeded, outcome.State)
	assert.Equal(t, 3, outcome.Attempts)
}
