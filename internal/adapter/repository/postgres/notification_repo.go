package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NotificationRepository implements usecase.NotificationRepository.
type NotificationRepository struct {
	pool querier
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return newNotificationRepositoryWithPool(pool)
}

func newNotificationRepositoryWithPool(pool querier) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) db(tx usecase.Transaction) querier {
	if t, ok := tx.(*Tx); ok && t != nil {
		return t.PgxTx()
	}
	return r.pool
}

// Create inserts a notification. The payment_id column carries a unique
// constraint, a second insert for the same payment returns
// domain.ErrDuplicateEvent.
func (r *NotificationRepository) Create(ctx context.Context, tx usecase.Transaction, notification *domain.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (
			id, payment_id, from_account_id, to_account_id, type, message, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db(tx).Exec(ctx, query,
		notification.ID,
		notification.PaymentID,
		notification.FromAccountID,
		notification.ToAccountID,
		notification.Type,
		notification.Message,
		notification.SentAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEvent
	}

	return err
}

// Exists reports whether a notification for the payment already exists.
func (r *NotificationRepository) Exists(ctx context.Context, tx usecase.Transaction, paymentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM notifications WHERE payment_id = $1)`

	var exists bool
	err := r.db(tx).QueryRow(ctx, query, paymentID).Scan(&exists)

	return exists, err
}

// ListByAccount lists notifications addressed to an account, newest first.
func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Notification, error) {
	query := `
		SELECT id, payment_id, from_account_id, to_account_id, type, message, sent_at
		FROM notifications
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID,
			&n.PaymentID,
			&n.FromAccountID,
			&n.ToAccountID,
			&n.Type,
			&n.Message,
			&n.SentAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
