package notify

import (
	"context"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/infra/i18n"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier writes rendered notifications to the log. Used when no Telegram
// token is configured.
type LogNotifier struct {
	tr  *i18n.Translator
	log *zerolog.Logger
}

func NewLogNotifier(tr *i18n.Translator, logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "notifier").Logger()
	return &LogNotifier{tr: tr, log: &l}
}

func (n *LogNotifier) Notify(ctx context.Context, note adapter.Notification) error {
	text := note.Message
	if text == "" {
		text = n.tr.T(note.MessageKey(), note.Args...)
	}
	ev := n.log.Info().Str("kind", string(note.Kind))
	if note.UserID != "" {
		ev = ev.Str("user_id", note.UserID)
	}
	if note.PaymentID != "" {
		ev = ev.Str("payment_id", note.PaymentID)
	}
	ev.Msg(text)
	return nil
}
