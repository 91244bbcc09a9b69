// Package notify pushes verdict changes to the parent over Telegram.
package notify

import (
	"fmt"
	"log/slog"

	"guardian/internal/policy"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends a message to the configured parent chat whenever
// the policy verdict changes. It is wired as a PolicyClock subscriber.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info("Telegram notifier enabled",
		"component", "notify",
		"bot", api.Self.UserName,
	)

	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// NotifyVerdict sends a message describing the new verdict. Send failures
// are logged and swallowed so a Telegram outage never affects enforcement.
func (n *TelegramNotifier) NotifyVerdict(verdict policy.Verdict) {
	msg := tgbotapi.NewMessage(n.chatID, formatVerdict(verdict))
	msg.ParseMode = "Markdown"

	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send verdict notification",
			"component", "notify",
			"verdict", verdict.Kind,
			"error", err,
		)
		return
	}

	n.logger.Info("Sent verdict notification",
		"component", "notify",
		"verdict", verdict.Kind,
	)
}

// formatVerdict renders a verdict as a parent-facing message
func formatVerdict(verdict policy.Verdict) string {
	switch verdict.Kind {
	case policy.VerdictTimeLimitExceeded:
		return "⏱ *Time limit reached*\nToday's screen-time allowance has been used up."
	case policy.VerdictBedtimeRestricted:
		if verdict.WindowEnd != "" {
			return fmt.Sprintf("🌙 *Bedtime*\nAccess is restricted until %s.", verdict.WindowEnd)
		}
		return "🌙 *Bedtime*\nAccess is restricted."
	default:
		if verdict.RemainingMinutes > 0 {
			return fmt.Sprintf("✅ *Access allowed*\n%d minutes remaining today.", verdict.RemainingMinutes)
		}
		return "✅ *Access allowed*"
	}
}
