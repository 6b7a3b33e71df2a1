package adapter

import "context"

// NotificationKind is the semantic outcome being reported.
type NotificationKind string

const (
	NotifyPaymentSubmitted NotificationKind = "payment_submitted"
	NotifyReceiptAttached  NotificationKind = "receipt_attached"
	NotifyPaymentApproved  NotificationKind = "payment_approved"
	NotifyPaymentRejected  NotificationKind = "payment_rejected"
	NotifyAccessExpiring   NotificationKind = "access_expiring"
	NotifySweepCompleted   NotificationKind = "sweep_completed"
)

// Notification is an informational outcome; presentation belongs to the notifier,
// which renders Key (Kind when empty) as a message key with Args unless Message is set.
type Notification struct {
	Kind      NotificationKind
	Key       string
	UserID    string
	PaymentID string
	Args      []any
	Message   string
}

// MessageKey is the translation key the notification renders with.
func (n Notification) MessageKey() string {
	if n.Key != "" {
		return n.Key
	}
	return string(n.Kind)
}

// Notifier is the toast/notification surface. Failures never affect the workflow.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// DirectNotifier is implemented by notifiers that queue by default but can also
// deliver in the caller's goroutine and report the delivery error.
type DirectNotifier interface {
	Deliver(ctx context.Context, n Notification) error
}

// TelegramSender is the slice of the Telegram Bot API the admin notifier needs.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
