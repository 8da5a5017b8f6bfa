package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// AnalyticsUseCase is the analytics projector plus its query surface. It
// records every payment event exactly once and serves aggregates over the
// recorded history. It is fully independent of the notification projector:
// its own consumer group, its own dedup state.
type AnalyticsUseCase struct {
	txManager TransactionManager
	repo      AnalyticsRepository
	retrier   Retrier
	cache     Cache
	logger    *slog.Logger
}

// NewAnalyticsUseCase creates a new AnalyticsUseCase.
func NewAnalyticsUseCase(
	txManager TransactionManager,
	repo AnalyticsRepository,
	retrier Retrier,
	cache Cache,
	logger *slog.Logger,
) *AnalyticsUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalyticsUseCase{
		txManager: txManager,
		repo:      repo,
		retrier:   retrier,
		cache:     cache,
		logger:    logger,
	}
}

// RecordEvent applies the analytics side effect for one event. Dedup check
// and insert share a transaction; the unique payment id constraint closes
// the race with concurrent deliveries. A malformed event is logged and
// skipped rather than redelivered forever.
func (uc *AnalyticsUseCase) RecordEvent(ctx context.Context, event domain.PaymentEvent) error {
	amount, err := decimal.NewFromString(event.Amount)
	if err != nil {
		uc.logger.Warn("event with unparseable amount, skipping",
			slog.String("payment_id", event.PaymentID),
			slog.String("amount", event.Amount))

		return nil
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, event.OccurredAt)
	if err != nil {
		uc.logger.Warn("event with unparseable timestamp, skipping",
			slog.String("payment_id", event.PaymentID),
			slog.String("occurred_at", event.OccurredAt))

		return nil
	}

	record := &domain.PaymentRecord{
		PaymentID:     event.PaymentID,
		FromAccountID: event.FromAccountID,
		ToAccountID:   event.ToAccountID,
		Amount:        amount,
		Status:        domain.PaymentStatus(event.Status),
		Type:          domain.PaymentType(event.Type),
		OccurredAt:    occurredAt,
		RecordedAt:    time.Now().UTC(),
	}

	return uc.retrier.Retry(ctx, func() error {
		return uc.apply(ctx, record)
	})
}

func (uc *AnalyticsUseCase) apply(ctx context.Context, record *domain.PaymentRecord) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	exists, err := uc.repo.Exists(ctx, tx, record.PaymentID)
	if err != nil {
		return err
	}

	if exists {
		uc.logger.Warn("duplicate event, skipping",
			slog.String("payment_id", record.PaymentID))

		return nil
	}

	if err := uc.repo.Create(ctx, tx, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			uc.logger.Warn("duplicate event, skipping",
				slog.String("payment_id", record.PaymentID))

			return nil
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// Recorded history changed, so the cached summary is stale.
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, summaryCacheKey)
	}

	uc.logger.Info("recorded payment event",
		slog.String("payment_id", record.PaymentID),
		slog.String("status", string(record.Status)),
		slog.String("amount", record.Amount.String()))

	return nil
}

// GetSummary aggregates the whole recorded history.
func (uc *AnalyticsUseCase) GetSummary(ctx context.Context) (*domain.Summary, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, summaryCacheKey); err == nil && cached != nil {
			var summary domain.Summary
			if err := json.Unmarshal(cached, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := uc.repo.CountByStatus(ctx, domain.PaymentCompleted)
	if err != nil {
		return nil, err
	}

	failed, err := uc.repo.CountByStatus(ctx, domain.PaymentFailed)
	if err != nil {
		return nil, err
	}

	volume, err := uc.repo.TotalVolume(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		TotalPayments:     total,
		CompletedPayments: completed,
		FailedPayments:    failed,
		TotalVolume:       volume,
	}

	if total > 0 {
		summary.SuccessRate = float64(completed) * 100 / float64(total)
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = uc.cache.Set(ctx, summaryCacheKey, data, summaryCacheTTL)
		}
	}

	return summary, nil
}

// GetDailyVolume returns per-day counts and volumes for an inclusive date
// range.
func (uc *AnalyticsUseCase) GetDailyVolume(ctx context.Context, from, to time.Time) ([]*domain.DailyVolume, error) {
	if from.After(to) {
		return nil, domain.ErrInvalidDateRange
	}

	// Push the upper bound to the next midnight so the end date is fully
	// included.
	fromDt := from.Truncate(24 * time.Hour)
	toDt := to.Truncate(24 * time.Hour).Add(24 * time.Hour)

	return uc.repo.DailyVolume(ctx, fromDt, toDt)
}

// GetTopAccounts ranks accounts by combined sent and received volume.
func (uc *AnalyticsUseCase) GetTopAccounts(ctx context.Context, limit int) ([]*domain.TopAccount, error) {
	if limit <= 0 {
		limit = defaultTopAccounts
	}

	return uc.repo.TopAccounts(ctx, limit)
}
