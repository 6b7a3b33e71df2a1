package model

import (
	"fmt"
	"strings"

	"pathtech-academy/internal/domain"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes the two purchasable catalog entities.
type ItemKind string

const (
	ItemKindCourse ItemKind = "course"
	ItemKindPack   ItemKind = "pack"
)

func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(strings.ToLower(strings.TrimSpace(s))) {
	case ItemKindCourse:
		return ItemKindCourse, nil
	case ItemKindPack:
		return ItemKindPack, nil
	}
	return "", fmt.Errorf("%w: unknown item kind %q", domain.ErrValidation, s)
}

// ItemRef identifies a course or a course pack.
type ItemRef struct {
	Kind ItemKind
	ID   string
}

func (r ItemRef) Key() string { return string(r.Kind) + ":" + r.ID }

func (r ItemRef) Validate() error {
	if _, err := ParseItemKind(string(r.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrValidation)
	}
	return nil
}

// PurchasableItem carries the catalog fields the access model needs.
// Prices are ignored when IsFree is set.
type PurchasableItem struct {
	Ref          ItemRef
	Title        string
	IsFree       bool
	MonthlyPrice decimal.Decimal
	YearlyPrice  decimal.Decimal
	Currency     string
}

// PriceFor returns the catalog price of the given plan.
func (i *PurchasableItem) PriceFor(plan PlanType) decimal.Decimal {
	if plan == PlanYearly {
		return i.YearlyPrice
	}
	return i.MonthlyPrice
}
