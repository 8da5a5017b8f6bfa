package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// AccountLedger is the remote account service that owns balances and
// statuses. Both calls are single-attempt: settlement never retries a
// ledger RPC, a timeout is the same as a failure.
type AccountLedger interface {
	// GetAccount fetches the current account record.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// SetBalance writes a new balance. The full account record is required
	// because the ledger API takes a complete record, not a partial patch;
	// every other field is echoed back unchanged.
	SetBalance(ctx context.Context, account *domain.Account, newBalance decimal.Decimal) error
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Payment, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error)
}

// EventPublisher publishes payment events to the event log, keyed by
// payment id. Delivery is at-least-once.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.PaymentEvent) error
}

// NotificationRepository defines data access for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, tx Transaction, notification *domain.Notification) error
	Exists(ctx context.Context, tx Transaction, paymentID string) (bool, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Notification, error)
}

// AnalyticsRepository defines data access for payment event records.
type AnalyticsRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.PaymentRecord) error
	Exists(ctx context.Context, tx Transaction, paymentID string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.PaymentStatus) (int64, error)
	TotalVolume(ctx context.Context) (decimal.Decimal, error)
	DailyVolume(ctx context.Context, from, to time.Time) ([]*domain.DailyVolume, error)
	TopAccounts(ctx context.Context, limit int) ([]*domain.TopAccount, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// SettlementMetrics records settlement outcomes.
type SettlementMetrics interface {
	ObserveSettlement(status domain.PaymentStatus, duration time.Duration)
	IncRejection(reason string)
	IncCompensation(confirmed bool)
	ObservePublish(success bool)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
