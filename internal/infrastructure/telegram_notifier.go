package infrastructure

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// TelegramNotifier delivers operator alerts to an admin chat. It is
// fire-and-forget: every failure is logged and swallowed, never surfaced
// to the caller.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

// NewTelegramNotifier returns a disabled notifier (bot == nil) when the
// token or chat id is missing or invalid.
func NewTelegramNotifier(token, adminID string) *TelegramNotifier {
	if token == "" || adminID == "" {
		log.Info().Msg("telegram notifier disabled (token or admin id missing)")
		return &TelegramNotifier{}
	}

	chatID, err := strconv.ParseInt(adminID, 10, 64)
	if err != nil {
		log.Warn().Err(err).Msg("invalid TELEGRAM_ADMIN_ID, notifier disabled")
		return &TelegramNotifier{}
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Warn().Err(err).Msg("telegram bot init failed, notifier disabled")
		return &TelegramNotifier{}
	}

	return &TelegramNotifier{bot: bot, adminChatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, message string) {
	if n.bot == nil {
		log.Info().Str("alert", message).Msg("operator alert (notifier disabled)")
		return
	}

	msg := tgbotapi.NewMessage(n.adminChatID, "\U0001F916 NeoBot Admin\n\n"+message)
	if _, err := n.bot.Send(msg); err != nil {
		log.Warn().Err(err).Msg("operator alert delivery failed")
	}
}
