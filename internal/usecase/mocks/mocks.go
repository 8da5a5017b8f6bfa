package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
)

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment

	CreateFunc       func(ctx context.Context, payment *domain.Payment) error
	UpdateStatusFunc func(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// Count returns the number of stored payments.
func (m *MockPaymentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *payment
	m.payments[payment.ID] = &copied
	return nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.Status = status
		p.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var payments []*domain.Payment
	for _, p := range m.payments {
		copied := *p
		payments = append(payments, &copied)
	}
	return payments, nil
}

func (m *MockPaymentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var payments []*domain.Payment
	for _, p := range m.payments {
		if p.FromAccountID == accountID || p.ToAccountID == accountID {
			copied := *p
			payments = append(payments, &copied)
		}
	}
	return payments, nil
}

// MockEventPublisher is a mock implementation of EventPublisher.
type MockEventPublisher struct {
	mu        sync.Mutex
	Published []domain.PaymentEvent

	PublishFunc func(ctx context.Context, event domain.PaymentEvent) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.PaymentEvent) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, event)
	return nil
}

// Events returns a copy of the published events.
func (m *MockEventPublisher) Events() []domain.PaymentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PaymentEvent(nil), m.Published...)
}

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification

	CreateFunc func(ctx context.Context, tx usecase.Transaction, notification *domain.Notification) error
	ExistsFunc func(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error)
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]*domain.Notification),
	}
}

// Count returns the number of stored notifications.
func (m *MockNotificationRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

// Get returns the stored notification for a payment id.
func (m *MockNotificationRepository) Get(paymentID string) *domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[paymentID]
}

func (m *MockNotificationRepository) Create(ctx context.Context, tx usecase.Transaction, notification *domain.Notification) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, notification)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[notification.PaymentID]; ok {
		return domain.ErrDuplicateEvent
	}
	copied := *notification
	m.notifications[notification.PaymentID] = &copied
	return nil
}

func (m *MockNotificationRepository) Exists(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, tx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notifications[paymentID]
	return ok, nil
}

func (m *MockNotificationRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notifications []*domain.Notification
	for _, n := range m.notifications {
		if n.FromAccountID == accountID || n.ToAccountID == accountID {
			copied := *n
			notifications = append(notifications, &copied)
		}
	}
	return notifications, nil
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository.
// Aggregates are computed from the stored records.
type MockAnalyticsRepository struct {
	mu      sync.Mutex
	records map[string]*domain.PaymentRecord

	CreateFunc func(ctx context.Context, tx usecase.Transaction, record *domain.PaymentRecord) error
	ExistsFunc func(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error)
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{
		records: make(map[string]*domain.PaymentRecord),
	}
}

// CountRecords returns the number of stored records.
func (m *MockAnalyticsRepository) CountRecords() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MockAnalyticsRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.PaymentRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.PaymentID]; ok {
		return domain.ErrDuplicateEvent
	}
	copied := *record
	m.records[record.PaymentID] = &copied
	return nil
}

func (m *MockAnalyticsRepository) Exists(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, tx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[paymentID]
	return ok, nil
}

func (m *MockAnalyticsRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *MockAnalyticsRepository) CountByStatus(ctx context.Context, status domain.PaymentStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.records {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MockAnalyticsRepository) TotalVolume(ctx context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, r := range m.records {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (m *MockAnalyticsRepository) DailyVolume(ctx context.Context, from, to time.Time) ([]*domain.DailyVolume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := make(map[string]*domain.DailyVolume)
	for _, r := range m.records {
		if r.OccurredAt.Before(from) || !r.OccurredAt.Before(to) {
			continue
		}
		day := r.OccurredAt.Format("2006-01-02")
		dv, ok := byDay[day]
		if !ok {
			dv = &domain.DailyVolume{Day: day, TotalAmount: decimal.Zero}
			byDay[day] = dv
		}
		dv.Count++
		dv.TotalAmount = dv.TotalAmount.Add(r.Amount)
	}
	var volumes []*domain.DailyVolume
	for _, dv := range byDay {
		volumes = append(volumes, dv)
	}
	return volumes, nil
}

func (m *MockAnalyticsRepository) TopAccounts(ctx context.Context, limit int) ([]*domain.TopAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byAccount := make(map[string]decimal.Decimal)
	for _, r := range m.records {
		byAccount[r.FromAccountID] = byAccount[r.FromAccountID].Add(r.Amount)
		byAccount[r.ToAccountID] = byAccount[r.ToAccountID].Add(r.Amount)
	}
	var accounts []*domain.TopAccount
	for id, volume := range byAccount {
		accounts = append(accounts, &domain.TopAccount{AccountID: id, Volume: volume})
	}
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// MockSettlementMetrics is a mock implementation of SettlementMetrics.
type MockSettlementMetrics struct {
	mu            sync.Mutex
	Settlements   map[domain.PaymentStatus]int
	Rejections    map[string]int
	Compensations map[bool]int
	Publishes     map[bool]int
}

func NewMockSettlementMetrics() *MockSettlementMetrics {
	return &MockSettlementMetrics{
		Settlements:   make(map[domain.PaymentStatus]int),
		Rejections:    make(map[string]int),
		Compensations: make(map[bool]int),
		Publishes:     make(map[bool]int),
	}
}

func (m *MockSettlementMetrics) ObserveSettlement(status domain.PaymentStatus, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Settlements[status]++
}

func (m *MockSettlementMetrics) IncRejection(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejections[reason]++
}

func (m *MockSettlementMetrics) IncCompensation(confirmed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Compensations[confirmed]++
}

func (m *MockSettlementMetrics) ObservePublish(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Publishes[success]++
}

// MockCache is an in-memory mock implementation of Cache.
type MockCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
