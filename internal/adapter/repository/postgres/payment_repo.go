package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool querier
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return newPaymentRepositoryWithPool(pool)
}

func newPaymentRepositoryWithPool(pool querier) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, from_account_id, to_account_id, amount::text, status, type, description, created_at, updated_at`

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, from_account_id, to_account_id, amount,
			status, type, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		payment.ID,
		payment.FromAccountID,
		payment.ToAccountID,
		payment.Amount.String(),
		payment.Status,
		payment.Type,
		payment.Description,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	return err
}

// UpdateStatus moves a PENDING payment to a terminal status. A payment
// already in a terminal status is never changed again.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query, id, status, updatedAt, domain.PaymentPending)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var current domain.PaymentStatus
		err := r.pool.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrPaymentFinalized
	}

	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// List lists payments, newest first.
func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// ListByAccount lists payments where the account is sender or receiver.
func (r *PaymentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount string

	err := row.Scan(
		&p.ID,
		&p.FromAccountID,
		&p.ToAccountID,
		&amount,
		&p.Status,
		&p.Type,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}
