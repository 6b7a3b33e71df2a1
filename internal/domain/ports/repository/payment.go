package repository

import (
	"context"
	"time"

	"pathtech-academy/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

// StatusChange describes an admin decision on a pending payment.
type StatusChange struct {
	Status      model.PaymentStatus
	ProcessedBy string
	ProcessedAt time.Time
	AdminNotes  *string
}

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// SetReceiptIfPending stores the receipt reference; false when the payment is no longer pending.
	SetReceiptIfPending(ctx context.Context, tx Tx, id, receiptRef string, at time.Time) (bool, error)
	// UpdateStatusIfPending applies ch only while status is still 'pending'.
	// false means another caller processed the payment first.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, ch StatusChange) (bool, error)
	// ListPending returns pending payments newest first.
	ListPending(ctx context.Context, tx Tx, limit int) ([]*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)
	HasPending(ctx context.Context, tx Tx, userID string, item model.ItemRef) (bool, error)
}
