package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/jeju_points/pkg/logger"
)

// sender is the part of *tgbotapi.BotAPI the notifier uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier mirrors expiry notices into an operations chat.
type TelegramNotifier struct {
	api    sender
	chatID int64
}

// NewTelegramNotifier authorizes the bot token and targets chatID.
func NewTelegramNotifier(token string, chatID int64, debug bool) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug

	logger.Info("Authorized on account", "username", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

func (n *TelegramNotifier) BoxExpired(ctx context.Context, event BoxExpired) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("⏰ %s\nbox: %s", event.Message(), event.BoxID))
	msg.DisableNotification = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notice: %w", err)
	}
	return nil
}
