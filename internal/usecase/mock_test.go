//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
	"pathtech-academy/internal/infra/i18n"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

func courseA() *model.PurchasableItem {
	return &model.PurchasableItem{
		Ref:          model.ItemRef{Kind: model.ItemKindCourse, ID: "A"},
		Title:        "Course A",
		MonthlyPrice: decimal.NewFromInt(20),
		YearlyPrice:  decimal.NewFromInt(200),
		Currency:     "TND",
	}
}

func freeCourse() *model.PurchasableItem {
	return &model.PurchasableItem{
		Ref:      model.ItemRef{Kind: model.ItemKindCourse, ID: "intro"},
		Title:    "Intro",
		IsFree:   true,
		Currency: "TND",
	}
}

// =============================
// Repositories
// =============================

// ---- MockPaymentRepo ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]model.Payment

	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]model.Payment{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = *p
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MockPaymentRepo) SetReceiptIfPending(ctx context.Context, tx repository.Tx, id, receiptRef string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.ReceiptRef = &receiptRef
	p.UpdatedAt = at
	r.data[id] = p
	return true, nil
}

func (r *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, ch repository.StatusChange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = ch.Status
	by, at := ch.ProcessedBy, ch.ProcessedAt
	p.ProcessedBy = &by
	p.ProcessedAt = &at
	if ch.AdminNotes != nil {
		notes := *ch.AdminNotes
		p.AdminNotes = &notes
	}
	p.UpdatedAt = at
	r.data[id] = p
	return true, nil
}

func (r *MockPaymentRepo) ListPending(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	out := r.filter(func(p model.Payment) bool { return p.Status == model.PaymentStatusPending })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	return r.filter(func(p model.Payment) bool { return p.UserID == userID }), nil
}

func (r *MockPaymentRepo) HasPending(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef) (bool, error) {
	list := r.filter(func(p model.Payment) bool {
		return p.UserID == userID && p.Item == item && p.Status == model.PaymentStatusPending
	})
	return len(list) > 0, nil
}

// filter returns matches newest first.
func (r *MockPaymentRepo) filter(keep func(model.Payment) bool) []*model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MockPaymentRepo) snapshot() map[string]model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]model.Payment, len(r.data))
	for k, v := range r.data {
		cp[k] = v
	}
	return cp
}

func (r *MockPaymentRepo) restore(s map[string]model.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = s
}

// ---- MockAccessRecordRepo ----

type MockAccessRecordRepo struct {
	mu   sync.Mutex
	data map[string]model.AccessRecord

	// Err, when set, is returned by every read.
	Err      error
	SaveFunc func(ctx context.Context, tx repository.Tx, r *model.AccessRecord) error
}

var _ repository.AccessRecordRepository = (*MockAccessRecordRepo)(nil)

func NewMockAccessRecordRepo() *MockAccessRecordRepo {
	return &MockAccessRecordRepo{data: map[string]model.AccessRecord{}}
}

func (m *MockAccessRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data {
		if rec.PaymentID != nil && r.PaymentID != nil && *r.PaymentID == *rec.PaymentID && r.ID != rec.ID {
			return fmt.Errorf("%w: access_records_payment_id_key", domain.ErrConflict)
		}
	}
	m.data[rec.ID] = *rec
	return nil
}

func (m *MockAccessRecordRepo) FindValid(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef, now time.Time) (*model.AccessRecord, error) {
	return m.latest(func(r model.AccessRecord) bool {
		return r.UserID == userID && r.Item == item && r.IsActive && r.EndDate.After(now)
	})
}

func (m *MockAccessRecordRepo) FindLatest(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef) (*model.AccessRecord, error) {
	return m.latest(func(r model.AccessRecord) bool { return r.UserID == userID && r.Item == item })
}

func (m *MockAccessRecordRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.AccessRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.filter(func(r model.AccessRecord) bool { return r.UserID == userID }), nil
}

func (m *MockAccessRecordRepo) FindExpiring(ctx context.Context, tx repository.Tx, now time.Time, within time.Duration) ([]*model.AccessRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.filter(func(r model.AccessRecord) bool {
		return r.IsActive && r.EndDate.After(now) && !r.EndDate.After(now.Add(within))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (m *MockAccessRecordRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.AccessRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessRecord
	for id, r := range m.data {
		if r.IsActive && r.EndDate.Before(now) {
			r.IsActive = false
			r.UpdatedAt = now
			m.data[id] = r
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *MockAccessRecordRepo) latest(keep func(model.AccessRecord) bool) (*model.AccessRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	list := m.filter(keep)
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return list[0], nil
}

// filter returns matches with the latest end date first.
func (m *MockAccessRecordRepo) filter(keep func(model.AccessRecord) bool) []*model.AccessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessRecord
	for _, r := range m.data {
		if keep(r) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	return out
}

func (m *MockAccessRecordRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MockAccessRecordRepo) get(id string) model.AccessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id]
}

func (m *MockAccessRecordRepo) put(r *model.AccessRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.ID] = *r
}

func (m *MockAccessRecordRepo) snapshot() map[string]model.AccessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]model.AccessRecord, len(m.data))
	for k, v := range m.data {
		cp[k] = v
	}
	return cp
}

func (m *MockAccessRecordRepo) restore(s map[string]model.AccessRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = s
}

// ---- MockUserSummaryRepo ----

type MockUserSummaryRepo struct {
	mu   sync.Mutex
	data map[string]model.UserSubscriptionSummary

	UpsertFunc func(ctx context.Context, tx repository.Tx, s *model.UserSubscriptionSummary) error
}

var _ repository.UserSummaryRepository = (*MockUserSummaryRepo)(nil)

func NewMockUserSummaryRepo() *MockUserSummaryRepo {
	return &MockUserSummaryRepo{data: map[string]model.UserSubscriptionSummary{}}
}

func (m *MockUserSummaryRepo) Get(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscriptionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MockUserSummaryRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.UserSubscriptionSummary) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.UserID] = *s
	return nil
}

// ---- MockItemRepo ----

type MockItemRepo struct {
	mu    sync.Mutex
	items map[string]model.PurchasableItem
	Err   error
}

var _ repository.ItemRepository = (*MockItemRepo)(nil)

func NewMockItemRepo(items ...*model.PurchasableItem) *MockItemRepo {
	m := &MockItemRepo{items: map[string]model.PurchasableItem{}}
	for _, it := range items {
		m.items[it.Ref.Key()] = *it
	}
	return m
}

func (m *MockItemRepo) FindByRef(ctx context.Context, tx repository.Tx, ref model.ItemRef) (*model.PurchasableItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[ref.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

// ---- MockNotificationLogRepo ----

// MockNotificationLogRepo mocks the repository for tracking sent reminders.
type MockNotificationLogRepo struct {
	mu sync.Mutex
	// The key is a composite: "recordID:kind:thresholdDays"
	entries map[string]struct{}
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func NewMockNotificationLogRepo() *MockNotificationLogRepo {
	return &MockNotificationLogRepo{entries: make(map[string]struct{})}
}

func (r *MockNotificationLogRepo) makeKey(recordID, kind string, thresholdDays int) string {
	return fmt.Sprintf("%s:%s:%d", recordID, kind, thresholdDays)
}

func (r *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, recordID, userID, kind string, thresholdDays int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.makeKey(recordID, kind, thresholdDays)
	if _, dup := r.entries[key]; dup {
		return domain.ErrConflict
	}
	r.entries[key] = struct{}{}
	return nil
}

func (r *MockNotificationLogRepo) Exists(ctx context.Context, tx repository.Tx, recordID, kind string, thresholdDays int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[r.makeKey(recordID, kind, thresholdDays)]
	return exists, nil
}

// ---- MockTxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// rollbackOnError snapshots the repos and restores them when fn fails.
func rollbackOnError(payments *MockPaymentRepo, records *MockAccessRecordRepo) func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	var mu sync.Mutex
	return func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
		mu.Lock()
		defer mu.Unlock()
		ps, rs := payments.snapshot(), records.snapshot()
		if err := fn(ctx, repository.NoTX); err != nil {
			payments.restore(ps)
			records.restore(rs)
			return err
		}
		return nil
	}
}

// =============================
// Adapters
// =============================

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if _, busy := l.held[key]; busy {
		return "", domain.ErrLockHeld
	}
	token := fmt.Sprintf("tok-%d", len(l.held)+1)
	l.held[key] = token
	return token, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// ---- MockRateLimiter ----

type MockRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

var _ adapter.RateLimiter = (*MockRateLimiter)(nil)

func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{counts: map[string]int{}}
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

// ---- MockNotifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []adapter.Notification
	Err  error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, n adapter.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, n)
	return nil
}

func (m *MockNotifier) kinds() []adapter.NotificationKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.NotificationKind, len(m.Sent))
	for i, n := range m.Sent {
		out[i] = n.Kind
	}
	return out
}

// ---- MockBlobStore ----

type MockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
	Puts  int
}

var _ adapter.BlobStore = (*MockBlobStore)(nil)

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	m.blobs[key] = b
	m.types[key] = contentType
	return key, nil
}

func (m *MockBlobStore) URL(ctx context.Context, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[ref]; !ok {
		return "", domain.ErrNotFound
	}
	return "https://files.test/" + ref, nil
}

func (m *MockBlobStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

var errStoreDown = errors.New("connection reset by peer")
