package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain/ports/adapter"
)

var _ adapter.TelegramSender = (*NoopBotSender)(nil)

// NoopBotSender logs messages instead of sending them, for local/dev runs.
type NoopBotSender struct {
	log *zerolog.Logger
}

func NewNoopBotSender(logger *zerolog.Logger) *NoopBotSender {
	l := logger.With().Str("component", "noop-telegram").Logger()
	return &NoopBotSender{log: &l}
}

func (b *NoopBotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("message")
	return nil
}
