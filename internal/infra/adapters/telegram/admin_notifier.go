package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/infra/i18n"
)

var _ adapter.Notifier = (*AdminNotifier)(nil)

// AdminNotifier renders notifications with the translator and posts them to the
// configured admin chats.
type AdminNotifier struct {
	sender  adapter.TelegramSender
	chatIDs []int64
	tr      *i18n.Translator
	log     *zerolog.Logger
}

func NewAdminNotifier(sender adapter.TelegramSender, chatIDs []int64, tr *i18n.Translator, logger *zerolog.Logger) *AdminNotifier {
	l := logger.With().Str("component", "AdminNotifier").Logger()
	return &AdminNotifier{sender: sender, chatIDs: chatIDs, tr: tr, log: &l}
}

func (n *AdminNotifier) Notify(ctx context.Context, note adapter.Notification) error {
	if len(n.chatIDs) == 0 {
		return nil
	}
	text := Render(n.tr, note)

	var errs []error
	for _, id := range n.chatIDs {
		if err := n.sender.SendMessage(ctx, id, text); err != nil {
			n.log.Warn().Err(err).Int64("chat_id", id).Str("kind", string(note.Kind)).Msg("admin notification failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Render turns a notification into display text. A preset Message wins.
func Render(tr *i18n.Translator, note adapter.Notification) string {
	if note.Message != "" {
		return note.Message
	}
	text := tr.T(note.MessageKey(), note.Args...)
	if note.UserID != "" {
		text += "\nuser: " + note.UserID
	}
	return text
}
