package model

import (
	"fmt"
	"strings"
	"time"

	"pathtech-academy/internal/domain"
)

// PlanType is the billing period of a purchase.
type PlanType string

const (
	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"
)

const (
	MonthlyPlanDays = 30
	YearlyPlanDays  = 365
)

func ParsePlanType(s string) (PlanType, error) {
	switch PlanType(strings.ToLower(strings.TrimSpace(s))) {
	case PlanMonthly:
		return PlanMonthly, nil
	case PlanYearly:
		return PlanYearly, nil
	}
	return "", fmt.Errorf("%w: unknown plan type %q", domain.ErrValidation, s)
}

// Days is the fixed length of the plan in calendar days. Yearly is always
// 365 days, leap years included.
func (p PlanType) Days() int {
	if p == PlanYearly {
		return YearlyPlanDays
	}
	return MonthlyPlanDays
}

func (p PlanType) Duration() time.Duration {
	return time.Duration(p.Days()) * 24 * time.Hour
}
