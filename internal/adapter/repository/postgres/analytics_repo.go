package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
)

// AnalyticsRepository implements usecase.AnalyticsRepository over the
// payment_events projection table.
type AnalyticsRepository struct {
	pool querier
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return newAnalyticsRepositoryWithPool(pool)
}

func newAnalyticsRepositoryWithPool(pool querier) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

func (r *AnalyticsRepository) db(tx usecase.Transaction) querier {
	if t, ok := tx.(*Tx); ok && t != nil {
		return t.PgxTx()
	}
	return r.pool
}

// Create inserts a payment event record. payment_id is unique, a
// redelivered event returns domain.ErrDuplicateEvent.
func (r *AnalyticsRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.PaymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO payment_events (
			id, payment_id, from_account_id, to_account_id,
			amount, status, type, occurred_at, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db(tx).Exec(ctx, query,
		record.ID,
		record.PaymentID,
		record.FromAccountID,
		record.ToAccountID,
		record.Amount.String(),
		record.Status,
		record.Type,
		record.OccurredAt,
		record.RecordedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEvent
	}

	return err
}

// Exists reports whether an event for the payment was already recorded.
func (r *AnalyticsRepository) Exists(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payment_events WHERE payment_id = $1)`

	var exists bool
	err := r.db(tx).QueryRow(ctx, query, paymentID).Scan(&exists)

	return exists, err
}

// Count returns the total number of recorded events.
func (r *AnalyticsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_events`).Scan(&count)
	return count, err
}

// CountByStatus returns the number of recorded events with a status.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context, status domain.PaymentStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_events WHERE status = $1`, status).Scan(&count)
	return count, err
}

// TotalVolume returns the sum of all recorded amounts.
func (r *AnalyticsRepository) TotalVolume(ctx context.Context) (decimal.Decimal, error) {
	var volume string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM payment_events`).Scan(&volume)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(volume)
}

// DailyVolume aggregates count and volume per UTC calendar day over the
// half-open interval [from, to).
func (r *AnalyticsRepository) DailyVolume(ctx context.Context, from, to time.Time) ([]*domain.DailyVolume, error) {
	query := `
		SELECT to_char(occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       COUNT(*),
		       COALESCE(SUM(amount), 0)::text
		FROM payment_events
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	volumes := make([]*domain.DailyVolume, 0)
	for rows.Next() {
		var v domain.DailyVolume
		var amount string

		if err := rows.Scan(&v.Day, &v.Count, &amount); err != nil {
			return nil, err
		}
		if v.TotalAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}

		volumes = append(volumes, &v)
	}

	return volumes, rows.Err()
}

// TopAccounts ranks accounts by combined sent and received volume.
func (r *AnalyticsRepository) TopAccounts(ctx context.Context, limit int) ([]*domain.TopAccount, error) {
	query := `
		SELECT account_id, SUM(amount)::text AS volume
		FROM (
			SELECT from_account_id AS account_id, amount FROM payment_events
			UNION ALL
			SELECT to_account_id, amount FROM payment_events
		) flows
		GROUP BY account_id
		ORDER BY SUM(amount) DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.TopAccount, 0)
	for rows.Next() {
		var a domain.TopAccount
		var volume string

		if err := rows.Scan(&a.AccountID, &volume); err != nil {
			return nil, err
		}
		if a.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, err
		}

		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}
