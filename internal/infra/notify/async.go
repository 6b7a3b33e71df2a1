package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/infra/worker"
)

var (
	_ adapter.Notifier       = (*AsyncNotifier)(nil)
	_ adapter.DirectNotifier = (*AsyncNotifier)(nil)
)

const defaultSendTimeout = 15 * time.Second

// AsyncNotifier hands notifications to the worker pool so callers never wait on
// the delivery channel. A full queue drops the notification with a warning.
type AsyncNotifier struct {
	inner   adapter.Notifier
	pool    *worker.Pool
	timeout time.Duration
	log     *zerolog.Logger
}

func NewAsyncNotifier(inner adapter.Notifier, pool *worker.Pool, timeout time.Duration, logger *zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	l := logger.With().Str("component", "async_notifier").Logger()
	return &AsyncNotifier{inner: inner, pool: pool, timeout: timeout, log: &l}
}

// Notify never returns a delivery error; failures are logged by the pool.
func (n *AsyncNotifier) Notify(_ context.Context, note adapter.Notification) error {
	err := n.pool.Submit(func(ctx context.Context) error {
		// detached from the request so a finished request does not cancel delivery
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		return n.inner.Notify(sendCtx, note)
	})
	if err != nil {
		n.log.Warn().Err(err).Str("kind", string(note.Kind)).Msg("notification dropped")
	}
	return nil
}

// Deliver bypasses the pool and returns the inner notifier's error.
func (n *AsyncNotifier) Deliver(ctx context.Context, note adapter.Notification) error {
	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.inner.Notify(sendCtx, note)
}
