package model

import "time"

// AccessType is the kind of access a decision grants or the reason it does not.
type AccessType string

const (
	AccessFree    AccessType = "free"
	AccessMonthly AccessType = "monthly"
	AccessYearly  AccessType = "yearly"
	AccessExpired AccessType = "expired" // a grant existed but is no longer valid
	AccessNone    AccessType = "none"    // never purchased, or the lookup failed
)

// AccessDecision is the evaluator's verdict for a (user, item) pair.
type AccessDecision struct {
	HasAccess     bool
	AccessType    AccessType
	ExpiresAt     *time.Time
	DaysRemaining *int
	CanAccess     bool
}

// NoAccess is the fail-closed default.
func NoAccess() AccessDecision {
	return AccessDecision{AccessType: AccessNone}
}

func FreeAccess() AccessDecision {
	return AccessDecision{HasAccess: true, AccessType: AccessFree, CanAccess: true}
}

// DecisionFromRecord turns the winning grant into a decision at now.
func DecisionFromRecord(r *AccessRecord, now time.Time) AccessDecision {
	days := r.DaysRemaining(now)
	end := r.EndDate
	d := AccessDecision{
		AccessType:    AccessType(r.PlanType),
		ExpiresAt:     &end,
		DaysRemaining: &days,
		CanAccess:     days > 0 && r.ValidAt(now),
	}
	if !d.CanAccess {
		d.AccessType = AccessExpired
		zero := 0
		d.DaysRemaining = &zero
	}
	d.HasAccess = d.CanAccess
	return d
}
