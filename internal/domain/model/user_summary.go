package model

import (
	"fmt"
	"strings"
	"time"

	"pathtech-academy/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusFree    SubscriptionStatus = "free"
	SubscriptionStatusMonthly SubscriptionStatus = "monthly"
	SubscriptionStatusYearly  SubscriptionStatus = "yearly"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case SubscriptionStatusFree:
		return SubscriptionStatusFree, nil
	case SubscriptionStatusMonthly:
		return SubscriptionStatusMonthly, nil
	case SubscriptionStatusYearly:
		return SubscriptionStatusYearly, nil
	case SubscriptionStatusExpired:
		return SubscriptionStatusExpired, nil
	}
	return "", fmt.Errorf("%w: unknown subscription status %q", domain.ErrValidation, s)
}

// UserSubscriptionSummary is a display cache of the user's most significant grant.
// Access decisions never read it.
type UserSubscriptionSummary struct {
	UserID    string
	Status    SubscriptionStatus
	StartDate *time.Time
	EndDate   *time.Time
	UpdatedAt time.Time
}

// SummaryFromRecord mirrors a grant into the summary.
func SummaryFromRecord(r *AccessRecord, now time.Time) *UserSubscriptionSummary {
	start, end := r.StartDate, r.EndDate
	status := SubscriptionStatusMonthly
	if r.PlanType == PlanYearly {
		status = SubscriptionStatusYearly
	}
	return &UserSubscriptionSummary{
		UserID:    r.UserID,
		Status:    status,
		StartDate: &start,
		EndDate:   &end,
		UpdatedAt: now,
	}
}

// DeriveSummary rebuilds the summary from a user's records: the valid grant with
// the latest end date wins; with none left the user is expired if they ever held
// a grant, free otherwise.
func DeriveSummary(userID string, records []*AccessRecord, now time.Time) *UserSubscriptionSummary {
	var best, latest *AccessRecord
	for _, r := range records {
		if latest == nil || r.EndDate.After(latest.EndDate) {
			latest = r
		}
		if r.ValidAt(now) && (best == nil || r.EndDate.After(best.EndDate)) {
			best = r
		}
	}
	if best != nil {
		return SummaryFromRecord(best, now)
	}
	s := &UserSubscriptionSummary{UserID: userID, Status: SubscriptionStatusFree, UpdatedAt: now}
	if latest != nil {
		start, end := latest.StartDate, latest.EndDate
		s.Status = SubscriptionStatusExpired
		s.StartDate = &start
		s.EndDate = &end
	}
	return s
}
