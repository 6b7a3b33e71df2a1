package model

import (
	"time"

	"pathtech-academy/internal/domain"
)

// AccessRecord is a time-bounded grant of access to an item for a user.
// Records are created on payment approval and only ever deactivated, never deleted.
type AccessRecord struct {
	ID        string
	UserID    string
	Item      ItemRef
	PlanType  PlanType
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	PaymentID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccessRecord builds the grant produced by approving p at now.
func NewAccessRecord(id string, p *Payment, now time.Time) (*AccessRecord, error) {
	if id == "" || p == nil || p.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParsePlanType(string(p.PlanType)); err != nil {
		return nil, err
	}
	pid := p.ID
	return &AccessRecord{
		ID:        id,
		UserID:    p.UserID,
		Item:      p.Item,
		PlanType:  p.PlanType,
		StartDate: now,
		EndDate:   now.Add(p.PlanType.Duration()),
		IsActive:  true,
		PaymentID: &pid,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidAt reports whether the record grants access at t. The end date is exclusive.
func (r *AccessRecord) ValidAt(t time.Time) bool {
	return r.IsActive && r.EndDate.After(t)
}

// DaysRemaining rounds the time left up to whole days, never below zero.
func (r *AccessRecord) DaysRemaining(now time.Time) int {
	left := r.EndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	n := left / day
	if left%day != 0 {
		n++
	}
	return int(n)
}
