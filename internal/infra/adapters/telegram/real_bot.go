package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pathtech-academy/internal/domain/ports/adapter"
)

var _ adapter.TelegramSender = (*RealBotSender)(nil)

// maxRetryAfter caps how long a flood-control wait may block a send.
const maxRetryAfter = 30 * time.Second

// botAPI is the part of *tgbotapi.BotAPI used for sending.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RealBotSender delivers plain-text messages through the Bot API.
type RealBotSender struct {
	bot botAPI
}

func NewRealBotSender(token string) (*RealBotSender, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &RealBotSender{bot: bot}, nil
}

// SendMessage sends text to chatID, waiting out one flood-control response.
func (s *RealBotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := s.bot.Send(msg)

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		wait := time.Duration(tgErr.RetryAfter) * time.Second
		if wait > maxRetryAfter {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		_, err = s.bot.Send(msg)
	}
	return err
}
