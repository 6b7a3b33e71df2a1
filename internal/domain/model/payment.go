package model

import (
	"fmt"
	"strings"
	"time"

	"pathtech-academy/internal/domain"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // submitted by the user, awaiting review
	PaymentStatusApproved PaymentStatus = "approved" // admin accepted the receipt; access granted
	PaymentStatusRejected PaymentStatus = "rejected" // admin refused; no access
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentStatusPending:
		return PaymentStatusPending, nil
	case PaymentStatusApproved:
		return PaymentStatusApproved, nil
	case PaymentStatusRejected:
		return PaymentStatusRejected, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, s)
}

// IsTerminal is true for approved and rejected: no transition leaves them.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// Payment is a user-submitted, admin-adjudicated request to purchase access.
type Payment struct {
	ID          string
	UserID      string
	Item        ItemRef
	PlanType    PlanType
	Amount      decimal.Decimal
	Currency    string
	ReceiptRef  *string // opaque blob store reference
	Status      PaymentStatus
	AdminNotes  *string
	ProcessedBy *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment validates the submission and returns a pending payment.
func NewPayment(id, userID string, item ItemRef, plan PlanType, amount decimal.Decimal, currency string, now time.Time) (*Payment, error) {
	if id == "" || strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	plan, err := ParsePlanType(string(plan))
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrValidation)
	}
	return &Payment{
		ID:        id,
		UserID:    userID,
		Item:      item,
		PlanType:  plan,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
