package telegram

import (
	"context"
	"fmt"
	"html"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tribe-inc/tribe/internal/application/payment/usecases"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// EscapeHTML escapes HTML special characters for safe Telegram message formatting
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

const msgMembershipActivated = "✅ <b>Subscription active</b>\n\n" +
	"Community: <b>%s</b>\n" +
	"Tier: <b>%s</b>\n" +
	"Paid: %s\n" +
	"Valid until: %s"

// SettlementNotifier tells a member their subscription was activated.
type SettlementNotifier struct {
	bot     *BotService
	printer *message.Printer
	logger  logger.Interface
}

func NewSettlementNotifier(bot *BotService, logger logger.Interface) *SettlementNotifier {
	return &SettlementNotifier{
		bot:     bot,
		printer: message.NewPrinter(language.Russian),
		logger:  logger,
	}
}

func (n *SettlementNotifier) NotifyMembershipActivated(ctx context.Context, notice usecases.MembershipActivatedNotice) error {
	text := n.formatActivated(notice)

	if err := n.bot.SendMessage(ctx, notice.TelegramUserID, text); err != nil {
		if IsBotBlocked(err) || IsChatNotFound(err) {
			n.logger.Infow("member cannot be messaged, skipping",
				"telegram_user_id", notice.TelegramUserID,
				"error", err)
			return nil
		}
		return fmt.Errorf("failed to send activation message: %w", err)
	}

	return nil
}

func (n *SettlementNotifier) formatActivated(notice usecases.MembershipActivatedNotice) string {
	validUntil := "-"
	if notice.ExpiresAt != nil {
		validUntil = notice.ExpiresAt.Format("02.01.2006")
	}

	return fmt.Sprintf(msgMembershipActivated,
		EscapeHTML(notice.CommunityName),
		EscapeHTML(notice.TierName),
		n.FormatAmount(notice.Amount, notice.Currency),
		validUntil,
	)
}

// FormatAmount renders minor units with the currency symbol using Russian
// number formatting. Unknown currency codes fall back to "<amount> <code>".
func (n *SettlementNotifier) FormatAmount(minor int64, code string) string {
	major := float64(minor) / 100

	unit, err := currency.ParseISO(code)
	if err != nil {
		return n.printer.Sprintf("%.2f %s", major, code)
	}
	return n.printer.Sprint(currency.Symbol(unit.Amount(major)))
}
