package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe-inc/tribe/internal/application/payment/usecases"
	sharedConfig "github.com/tribe-inc/tribe/internal/shared/config"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *SettlementNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bot := NewBotService(sharedConfig.TelegramConfig{BotToken: "123:abc", APIBaseURL: srv.URL})
	require.NotNil(t, bot)
	return NewSettlementNotifier(bot, logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestNewBotService_DisabledWithoutToken(t *testing.T) {
	assert.Nil(t, NewBotService(sharedConfig.TelegramConfig{}))
}

func TestSettlementNotifier_Sends(t *testing.T) {
	var got map[string]any
	notifier := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	expires := time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)
	err := notifier.NotifyMembershipActivated(context.Background(), usecases.MembershipActivatedNotice{
		TelegramUserID: 777000,
		CommunityName:  "Makers <&>",
		TierName:       "Pro",
		Amount:         50000,
		Currency:       "RUB",
		ExpiresAt:      &expires,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(777000), got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	text := got["text"].(string)
	assert.Contains(t, text, "Makers &lt;&amp;&gt;")
	assert.Contains(t, text, "Pro")
	assert.Contains(t, text, "500")
	assert.Contains(t, text, "28.02.2025")
}

func TestSettlementNotifier_BlockedIsNotAnError(t *testing.T) {
	notifier := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	})

	err := notifier.NotifyMembershipActivated(context.Background(), usecases.MembershipActivatedNotice{TelegramUserID: 1})
	assert.NoError(t, err)
}

func TestSettlementNotifier_RateLimited(t *testing.T) {
	notifier := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":5}}`)
	})

	err := notifier.NotifyMembershipActivated(context.Background(), usecases.MembershipActivatedNotice{TelegramUserID: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 5, apiErr.RetryAfter)
}

func TestFormatAmount(t *testing.T) {
	n := NewSettlementNotifier(nil, logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.Contains(t, n.FormatAmount(50000, "RUB"), "500")
	assert.Contains(t, n.FormatAmount(199, "XXX1"), "XXX1")
}
