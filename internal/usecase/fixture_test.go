//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/usecase"
)

// fixture wires the real use cases over in-memory mocks with a fixed clock.
type fixture struct {
	clock     *adapter.FixedClock
	payments  *MockPaymentRepo
	records   *MockAccessRecordRepo
	summaries *MockUserSummaryRepo
	items     *MockItemRepo
	logs      *MockNotificationLogRepo
	notifier  *MockNotifier
	locker    *MockLocker
	limiter   *MockRateLimiter
	tm        *MockTxManager

	eval     usecase.AccessEvaluator
	gateway  usecase.AccessGateway
	workflow usecase.PaymentWorkflow
	sweeper  usecase.ExpirationSweeper
}

func newFixture(t *testing.T, policy usecase.PaymentPolicy) *fixture {
	t.Helper()
	f := &fixture{
		clock:     &adapter.FixedClock{T: jan1},
		payments:  NewMockPaymentRepo(),
		records:   NewMockAccessRecordRepo(),
		summaries: NewMockUserSummaryRepo(),
		items:     NewMockItemRepo(courseA(), freeCourse()),
		logs:      NewMockNotificationLogRepo(),
		notifier:  &MockNotifier{},
		locker:    NewMockLocker(),
		limiter:   NewMockRateLimiter(),
		tm:        NewMockTxManager(),
	}
	log := newTestLogger()
	f.eval = usecase.NewAccessEvaluator(f.records, f.items, f.clock, 0, log)
	f.gateway = usecase.NewAccessGateway(f.eval, newTestTranslator(), 7, 4, log)
	f.workflow = usecase.NewPaymentWorkflow(f.payments, f.records, f.summaries, f.items, f.tm, f.notifier, f.limiter, f.clock, policy, log)
	f.sweeper = usecase.NewExpirationSweeper(f.records, f.summaries, f.tm, f.locker, f.notifier, f.clock, 0, 7, log)
	return f
}

// submit creates a pending payment for course A on behalf of userID.
func (f *fixture) submit(t *testing.T, userID string, plan model.PlanType) *model.Payment {
	t.Helper()
	amount := decimal.NewFromInt(20)
	if plan == model.PlanYearly {
		amount = decimal.NewFromInt(200)
	}
	p, err := f.workflow.CreatePayment(context.Background(), usecase.CreatePaymentInput{
		UserID:   userID,
		Item:     courseA().Ref,
		PlanType: plan,
		Amount:   amount,
		Currency: "TND",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	return p
}

// grant submits and approves a payment at the current fixed time.
func (f *fixture) grant(t *testing.T, userID string, plan model.PlanType) *model.AccessRecord {
	t.Helper()
	p := f.submit(t, userID, plan)
	rec, err := f.workflow.Approve(context.Background(), p.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	return rec
}
