//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pathtech-academy/internal/domain/model"
)

var testCourse = model.ItemRef{Kind: model.ItemKindCourse, ID: "go-101"}

func seedCourse(t *testing.T, id string, free bool) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO courses (id, title, is_free, monthly_price, yearly_price, currency) VALUES ($1, $2, $3, 19.99, 199.00, 'USD')`,
		id, "Course "+id, free)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
}

func newPendingPayment(t *testing.T, userID string, now time.Time) *model.Payment {
	t.Helper()
	p, err := model.NewPayment(uuid.NewString(), userID, testCourse, model.PlanMonthly, decimal.RequireFromString("19.99"), "usd", now)
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	return p
}
