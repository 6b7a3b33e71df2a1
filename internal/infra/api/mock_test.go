//go:build !integration

package api

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/usecase"
)

const testSecret = "test-jwt-secret-please-change"

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// signToken mints an HS256 token; role goes under app_metadata.
func signToken(t *testing.T, secret, sub, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(ttl).Unix(),
	}
	if role != "" {
		claims["app_metadata"] = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// ---- gateway ----

type stubGateway struct {
	bulk    *usecase.BulkAccess
	bulkErr error
	lastRef model.ItemRef
}

func (g *stubGateway) Check(ctx context.Context, userID string, ref model.ItemRef) usecase.AccessView {
	g.lastRef = ref
	days := 5
	return usecase.AccessView{
		Item: ref,
		AccessDecision: model.AccessDecision{
			HasAccess: true, CanAccess: true, AccessType: model.AccessMonthly, DaysRemaining: &days,
		},
		IsExpiringSoon: true,
		RemainingLabel: "5 days left",
	}
}

func (g *stubGateway) BulkCheck(ctx context.Context, userID string, refs []model.ItemRef) (*usecase.BulkAccess, error) {
	return g.bulk, g.bulkErr
}

// ---- payments ----

type stubPayments struct {
	mu         sync.Mutex
	err        error
	created    []usecase.CreatePaymentInput
	approvedBy string
	reason     *string
	payment    *model.Payment
	pending    []*model.Payment
	limit      int
}

func (p *stubPayments) CreatePayment(ctx context.Context, in usecase.CreatePaymentInput) (*model.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.created = append(p.created, in)
	return &model.Payment{ID: "p-1", UserID: in.UserID, Item: in.Item, PlanType: in.PlanType,
		Amount: in.Amount, Currency: in.Currency, Status: model.PaymentStatusPending}, nil
}

func (p *stubPayments) AttachReceipt(ctx context.Context, paymentID, receiptRef string) error {
	return p.err
}

func (p *stubPayments) Approve(ctx context.Context, paymentID, adminUserID string) (*model.AccessRecord, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.approvedBy = adminUserID
	pid := paymentID
	return &model.AccessRecord{ID: "r-1", UserID: "U", PlanType: model.PlanMonthly, IsActive: true, PaymentID: &pid}, nil
}

func (p *stubPayments) Reject(ctx context.Context, paymentID, adminUserID string, reason *string) error {
	p.reason = reason
	return p.err
}

func (p *stubPayments) ListPending(ctx context.Context, limit int) ([]*model.Payment, error) {
	p.limit = limit
	return p.pending, p.err
}

func (p *stubPayments) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.payment, nil
}

func (p *stubPayments) ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error) {
	return p.pending, p.err
}

// ---- receipts ----

type stubReceipts struct {
	got  usecase.ReceiptUpload
	body string
	url  string
	blob string
}

func (r *stubReceipts) Upload(ctx context.Context, in usecase.ReceiptUpload) (string, error) {
	b, _ := io.ReadAll(in.Body)
	r.got, r.body = in, string(b)
	return "receipts/" + in.UserID + "/01HX.png", nil
}

func (r *stubReceipts) ReceiptURL(ctx context.Context, ref string) (string, error) {
	return r.url, nil
}

func (r *stubReceipts) OpenReceipt(ctx context.Context, ref string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(r.blob)), nil
}

// ---- sweeper ----

type stubSweeper struct {
	days int
}

func (s *stubSweeper) Sweep(ctx context.Context) (usecase.SweepResult, error) {
	return usecase.SweepResult{DeactivatedCount: 1, UsersReconciled: 1}, nil
}

func (s *stubSweeper) ListExpiringSoon(ctx context.Context, windowDays int) ([]*model.AccessRecord, error) {
	s.days = windowDays
	return []*model.AccessRecord{{ID: "r-1", UserID: "U", IsActive: true}}, nil
}

func (s *stubSweeper) RebuildSummary(ctx context.Context, userID string) (*model.UserSubscriptionSummary, error) {
	return &model.UserSubscriptionSummary{UserID: userID, Status: model.SubscriptionStatusExpired}, nil
}

func (s *stubSweeper) RunOnce(ctx context.Context) (usecase.SweepResult, error) {
	return s.Sweep(ctx)
}

var (
	_ usecase.AccessGateway     = (*stubGateway)(nil)
	_ usecase.PaymentWorkflow   = (*stubPayments)(nil)
	_ usecase.ReceiptService    = (*stubReceipts)(nil)
	_ usecase.ExpirationSweeper = (*stubSweeper)(nil)
	_ SweepRunner               = (*stubSweeper)(nil)
)
