package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
	"pathtech-academy/internal/infra/metrics"
)

// Compile-time check
var _ PaymentWorkflow = (*paymentUC)(nil)

type CreatePaymentInput struct {
	UserID   string
	Item     model.ItemRef
	PlanType model.PlanType
	Amount   decimal.Decimal
	Currency string
}

// PaymentWorkflow drives a payment from submission to an admin decision.
// pending -> approved | rejected; both are terminal.
type PaymentWorkflow interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*model.Payment, error)
	AttachReceipt(ctx context.Context, paymentID, receiptRef string) error
	// Approve marks the payment approved and grants access in one transaction.
	Approve(ctx context.Context, paymentID, adminUserID string) (*model.AccessRecord, error)
	Reject(ctx context.Context, paymentID, adminUserID string, reason *string) error
	ListPending(ctx context.Context, limit int) ([]*model.Payment, error)
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error)
}

// PaymentPolicy carries the tunables of the workflow.
type PaymentPolicy struct {
	RejectDuplicatePending bool
	CreateLimitPerHour     int
	PendingPageSize        int
}

type paymentUC struct {
	payments  repository.PaymentRepository
	records   repository.AccessRecordRepository
	summaries repository.UserSummaryRepository
	items     repository.ItemRepository
	tm        repository.TransactionManager
	notifier  adapter.Notifier
	limiter   adapter.RateLimiter // nil disables the creation limit
	clock     adapter.Clock
	policy    PaymentPolicy
	log       *zerolog.Logger
}

func NewPaymentWorkflow(
	payments repository.PaymentRepository,
	records repository.AccessRecordRepository,
	summaries repository.UserSummaryRepository,
	items repository.ItemRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	limiter adapter.RateLimiter,
	clock adapter.Clock,
	policy PaymentPolicy,
	logger *zerolog.Logger,
) *paymentUC {
	if clock == nil {
		clock = adapter.SystemClock()
	}
	if policy.PendingPageSize <= 0 {
		policy.PendingPageSize = 100
	}
	l := logger.With().Str("component", "payment_workflow").Logger()
	return &paymentUC{
		payments:  payments,
		records:   records,
		summaries: summaries,
		items:     items,
		tm:        tm,
		notifier:  notifier,
		limiter:   limiter,
		clock:     clock,
		policy:    policy,
		log:       &l,
	}
}

func paymentCreateKey(userID string) string {
	return fmt.Sprintf("rate_limit:%s:create_payment", userID)
}

func (u *paymentUC) CreatePayment(ctx context.Context, in CreatePaymentInput) (*model.Payment, error) {
	now := u.clock.Now()
	p, err := model.NewPayment(uuid.NewString(), in.UserID, in.Item, in.PlanType, in.Amount, in.Currency, now)
	if err != nil {
		return nil, err
	}

	item, err := u.items.FindByRef(ctx, repository.NoTX, in.Item)
	if err != nil {
		return nil, err
	}
	if item.IsFree {
		return nil, fmt.Errorf("%w: %s is free", domain.ErrValidation, in.Item.Key())
	}
	if price := item.PriceFor(p.PlanType); !p.Amount.Equal(price) || !strings.EqualFold(p.Currency, item.Currency) {
		return nil, fmt.Errorf("%w: %s %s costs %s %s", domain.ErrValidation,
			in.Item.Key(), p.PlanType, price.StringFixed(2), item.Currency)
	}

	// Charged only for submissions that passed validation.
	if u.limiter != nil && u.policy.CreateLimitPerHour > 0 {
		ok, err := u.limiter.Allow(ctx, paymentCreateKey(in.UserID), u.policy.CreateLimitPerHour, time.Hour)
		if err != nil {
			u.log.Warn().Err(err).Str("user_id", in.UserID).Msg("rate limiter unavailable; allowing payment")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	if u.policy.RejectDuplicatePending {
		pending, err := u.payments.HasPending(ctx, repository.NoTX, in.UserID, in.Item)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, fmt.Errorf("%w: a pending payment already exists for %s", domain.ErrConflict, in.Item.Key())
		}
	}

	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().
		Str("payment_id", p.ID).
		Str("user_id", p.UserID).
		Str("item", p.Item.Key()).
		Str("plan", string(p.PlanType)).
		Str("amount", p.Amount.StringFixed(2)).
		Str("currency", p.Currency).
		Msg("payment submitted")

	u.notify(ctx, adapter.Notification{
		Kind:      adapter.NotifyPaymentSubmitted,
		UserID:    p.UserID,
		PaymentID: p.ID,
		Args:      []any{p.PlanType, p.Amount.StringFixed(2), p.Currency, item.Title, p.ID},
	})
	return p, nil
}

func (u *paymentUC) AttachReceipt(ctx context.Context, paymentID, receiptRef string) error {
	if strings.TrimSpace(receiptRef) == "" {
		return fmt.Errorf("%w: receipt reference is required", domain.ErrValidation)
	}
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return err
	}
	if p.Status != model.PaymentStatusPending {
		return domain.ErrConflict
	}
	ok, err := u.payments.SetReceiptIfPending(ctx, repository.NoTX, paymentID, receiptRef, u.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConflict
	}
	u.notify(ctx, adapter.Notification{
		Kind:      adapter.NotifyReceiptAttached,
		UserID:    p.UserID,
		PaymentID: p.ID,
		Args:      []any{p.ID},
	})
	return nil
}

func (u *paymentUC) Approve(ctx context.Context, paymentID, adminUserID string) (*model.AccessRecord, error) {
	if strings.TrimSpace(adminUserID) == "" {
		return nil, fmt.Errorf("%w: admin user is required", domain.ErrValidation)
	}

	var (
		payment *model.Payment
		record  *model.AccessRecord
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status.IsTerminal() {
			return domain.ErrConflict
		}

		now := u.clock.Now()
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, repository.StatusChange{
			Status:      model.PaymentStatusApproved,
			ProcessedBy: adminUserID,
			ProcessedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}

		rec, err := model.NewAccessRecord(uuid.NewString(), p, now)
		if err != nil {
			return err
		}
		if err := u.records.Save(ctx, tx, rec); err != nil {
			return err
		}

		all, err := u.records.ListByUser(ctx, tx, p.UserID)
		if err != nil {
			return err
		}
		if err := u.summaries.Upsert(ctx, tx, model.DeriveSummary(p.UserID, all, now)); err != nil {
			return err
		}

		p.Status = model.PaymentStatusApproved
		p.ProcessedBy = &adminUserID
		p.ProcessedAt = &now
		p.UpdatedAt = now
		payment, record = p, rec
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			u.log.Info().Str("payment_id", paymentID).Str("admin", adminUserID).Msg("approve lost: payment already processed")
		} else if !errors.Is(err, domain.ErrNotFound) {
			u.log.Error().Err(err).Str("payment_id", paymentID).Msg("approve rolled back")
		}
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusApproved))
	metrics.AddPaymentRevenue(payment.Currency, payment.Amount)
	u.log.Info().
		Str("payment_id", payment.ID).
		Str("user_id", payment.UserID).
		Str("admin", adminUserID).
		Str("record_id", record.ID).
		Time("end_date", record.EndDate).
		Msg("payment approved")

	u.notify(ctx, adapter.Notification{
		Kind:      adapter.NotifyPaymentApproved,
		UserID:    payment.UserID,
		PaymentID: payment.ID,
		Args:      []any{payment.ID, payment.Item.Key(), record.EndDate.Format("2006-01-02")},
	})
	return record, nil
}

func (u *paymentUC) Reject(ctx context.Context, paymentID, adminUserID string, reason *string) error {
	if strings.TrimSpace(adminUserID) == "" {
		return fmt.Errorf("%w: admin user is required", domain.ErrValidation)
	}
	if reason != nil {
		r := strings.TrimSpace(*reason)
		if r == "" {
			reason = nil
		} else {
			reason = &r
		}
	}

	var payment *model.Payment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status.IsTerminal() {
			return domain.ErrConflict
		}
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, repository.StatusChange{
			Status:      model.PaymentStatusRejected,
			ProcessedBy: adminUserID,
			ProcessedAt: u.clock.Now(),
			AdminNotes:  reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}
		payment = p
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IncPayment(string(model.PaymentStatusRejected))
	u.log.Info().Str("payment_id", paymentID).Str("admin", adminUserID).Msg("payment rejected")

	n := adapter.Notification{
		Kind:      adapter.NotifyPaymentRejected,
		UserID:    payment.UserID,
		PaymentID: payment.ID,
		Args:      []any{payment.ID},
	}
	if reason != nil {
		n.Args = append(n.Args, *reason)
	} else {
		n.Key = "payment_rejected_no_reason"
	}
	u.notify(ctx, n)
	return nil
}

func (u *paymentUC) ListPending(ctx context.Context, limit int) ([]*model.Payment, error) {
	if limit <= 0 || limit > u.policy.PendingPageSize {
		limit = u.policy.PendingPageSize
	}
	return u.payments.ListPending(ctx, repository.NoTX, limit)
}

func (u *paymentUC) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, repository.NoTX, id)
}

func (u *paymentUC) ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, userID)
}

// notify never fails the workflow.
func (u *paymentUC) notify(ctx context.Context, n adapter.Notification) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, n); err != nil {
		u.log.Warn().Err(err).Str("kind", string(n.Kind)).Str("payment_id", n.PaymentID).Msg("notification failed")
	}
}
