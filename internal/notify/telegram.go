package notify

import (
	"context"
	"fmt"

	"dumpster-quote/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a short lead summary to the staff channel.
type Telegram struct {
	bot       telegramSender
	channelID int64
	logger    *zap.Logger
}

func NewTelegram(token string, channelID int64, logger *zap.Logger) (*Telegram, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info("Telegram bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("channel_id", channelID))

	return newTelegram(botAPI, channelID, logger), nil
}

func newTelegram(bot telegramSender, channelID int64, logger *zap.Logger) *Telegram {
	return &Telegram{
		bot:       bot,
		channelID: channelID,
		logger:    logger,
	}
}

func (t *Telegram) NotifyLead(ctx context.Context, lead storage.Lead) {
	if t.channelID == 0 {
		t.logger.Warn("Channel notifications disabled - no channel ID configured")
		return
	}

	msg := tgbotapi.NewMessage(t.channelID, FormatLead(lead))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Failed to send channel notification",
			zap.Int64("lead_id", lead.ID),
			zap.String("session_id", lead.SessionID),
			zap.Error(err))
	}
}
