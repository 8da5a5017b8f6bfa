package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pmbank/settlement/internal/domain"
)

// NotificationUseCase is the notification projector. It consumes the payment
// event stream and writes one notification per payment id, no matter how many
// times the same event is delivered.
type NotificationUseCase struct {
	txManager TransactionManager
	repo      NotificationRepository
	retrier   Retrier
	logger    *slog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(
	txManager TransactionManager,
	repo NotificationRepository,
	retrier Retrier,
	logger *slog.Logger,
) *NotificationUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationUseCase{
		txManager: txManager,
		repo:      repo,
		retrier:   retrier,
		logger:    logger,
	}
}

// HandlePaymentEvent applies the notification side effect for one event.
// The dedup check and the insert run in one transaction, and the payment id
// carries a unique constraint, so a redelivered event can never produce a
// second notification. A returned error means the delivery attempt failed
// and the event must be redelivered, not dropped.
func (uc *NotificationUseCase) HandlePaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	notification := &domain.Notification{
		PaymentID:     event.PaymentID,
		FromAccountID: event.FromAccountID,
		ToAccountID:   event.ToAccountID,
		SentAt:        time.Now().UTC(),
	}

	switch event.Status {
	case string(domain.PaymentCompleted):
		notification.Type = domain.NotificationPaymentSuccess
		notification.Message = fmt.Sprintf(
			"Your payment of %s has been successfully sent from account %s to account %s.",
			event.Amount, event.FromAccountID, event.ToAccountID)
	case string(domain.PaymentFailed):
		notification.Type = domain.NotificationPaymentFailed
		notification.Message = fmt.Sprintf(
			"Your payment of %s from account %s could not be completed. Please check your balance and try again.",
			event.Amount, event.FromAccountID)
	default:
		uc.logger.Warn("unrecognised payment status",
			slog.String("payment_id", event.PaymentID),
			slog.String("status", event.Status))

		return nil
	}

	return uc.retrier.Retry(ctx, func() error {
		return uc.apply(ctx, notification)
	})
}

func (uc *NotificationUseCase) apply(ctx context.Context, notification *domain.Notification) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	exists, err := uc.repo.Exists(ctx, tx, notification.PaymentID)
	if err != nil {
		return err
	}

	if exists {
		uc.logger.Warn("duplicate event, skipping",
			slog.String("payment_id", notification.PaymentID))

		return nil
	}

	if err := uc.repo.Create(ctx, tx, notification); err != nil {
		// A concurrent delivery can win the race between the exists
		// check and the insert; the unique constraint turns that into
		// a duplicate, not a failure.
		if errors.Is(err, domain.ErrDuplicateEvent) {
			uc.logger.Warn("duplicate event, skipping",
				slog.String("payment_id", notification.PaymentID))

			return nil
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// In production this would also dispatch an email or SMS through a
	// provider; logging stands in for the dispatch.
	if notification.Type == domain.NotificationPaymentSuccess {
		uc.logger.Info("notification sent",
			slog.String("payment_id", notification.PaymentID),
			slog.String("type", string(notification.Type)))
	} else {
		uc.logger.Warn("notification sent",
			slog.String("payment_id", notification.PaymentID),
			slog.String("type", string(notification.Type)))
	}

	return nil
}

// ListNotificationsByAccount lists notifications where the account was
// sender or receiver.
func (uc *NotificationUseCase) ListNotificationsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	return uc.repo.ListByAccount(ctx, accountID, limit, offset)
}
