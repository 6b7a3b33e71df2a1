package api

import (
	"time"

	"github.com/shopspring/decimal"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/usecase"
)

type itemRefDTO struct {
	Kind string `json:"kind" validate:"required,oneof=course pack"`
	ID   string `json:"id" validate:"required,max=128"`
}

func (d itemRefDTO) toModel() model.ItemRef {
	return model.ItemRef{Kind: model.ItemKind(d.Kind), ID: d.ID}
}

type bulkAccessRequest struct {
	Items []itemRefDTO `json:"items" validate:"required,min=1,max=200,dive"`
}

type createPaymentRequest struct {
	Item     itemRefDTO      `json:"item" validate:"required"`
	PlanType string          `json:"plan_type" validate:"required,oneof=monthly yearly"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3"`
}

type rejectRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=2000"`
}

type accessViewDTO struct {
	Item           itemRefDTO `json:"item"`
	HasAccess      bool       `json:"has_access"`
	CanAccess      bool       `json:"can_access"`
	AccessType     string     `json:"access_type"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	DaysRemaining  *int       `json:"days_remaining,omitempty"`
	IsExpiringSoon bool       `json:"is_expiring_soon"`
	IsExpired      bool       `json:"is_expired"`
	RemainingLabel string     `json:"remaining_label"`
}

func toAccessView(v usecase.AccessView) accessViewDTO {
	return accessViewDTO{
		Item:           itemRefDTO{Kind: string(v.Item.Kind), ID: v.Item.ID},
		HasAccess:      v.HasAccess,
		CanAccess:      v.CanAccess,
		AccessType:     string(v.AccessType),
		ExpiresAt:      v.ExpiresAt,
		DaysRemaining:  v.DaysRemaining,
		IsExpiringSoon: v.IsExpiringSoon,
		IsExpired:      v.IsExpired,
		RemainingLabel: v.RemainingLabel,
	}
}

type bulkAccessDTO struct {
	Configured bool                     `json:"configured"`
	Items      map[string]accessViewDTO `json:"items"`
}

type paymentDTO struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Item        itemRefDTO      `json:"item"`
	PlanType    string          `json:"plan_type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	HasReceipt  bool            `json:"has_receipt"`
	AdminNotes  *string         `json:"admin_notes,omitempty"`
	ProcessedBy *string         `json:"processed_by,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toPayment(p *model.Payment) paymentDTO {
	return paymentDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Item:        itemRefDTO{Kind: string(p.Item.Kind), ID: p.Item.ID},
		PlanType:    string(p.PlanType),
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      string(p.Status),
		HasReceipt:  p.ReceiptRef != nil,
		AdminNotes:  p.AdminNotes,
		ProcessedBy: p.ProcessedBy,
		ProcessedAt: p.ProcessedAt,
		CreatedAt:   p.CreatedAt,
	}
}

func toPayments(ps []*model.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPayment(p))
	}
	return out
}

type accessRecordDTO struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Item      itemRefDTO `json:"item"`
	PlanType  string     `json:"plan_type"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	IsActive  bool       `json:"is_active"`
	PaymentID *string    `json:"payment_id,omitempty"`
}

func toAccessRecord(r *model.AccessRecord) accessRecordDTO {
	return accessRecordDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		Item:      itemRefDTO{Kind: string(r.Item.Kind), ID: r.Item.ID},
		PlanType:  string(r.PlanType),
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		IsActive:  r.IsActive,
		PaymentID: r.PaymentID,
	}
}

type summaryDTO struct {
	UserID    string     `json:"user_id"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type sweepDTO struct {
	DeactivatedCount int  `json:"deactivated_count"`
	UsersReconciled  int  `json:"users_reconciled"`
	Skipped          bool `json:"skipped"`
}
