package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

func TestAnalyticsRepositoryCreateDuplicate(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectExec("INSERT INTO payment_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	repo := newAnalyticsRepositoryWithPool(mockPool)
	err := repo.Create(context.Background(), nil, &domain.PaymentRecord{
		PaymentID:  "pay-1",
		Amount:     decimal.NewFromInt(100),
		OccurredAt: time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}
}

func TestAnalyticsRepositoryTotalVolume(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectQuery("SELECT COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow("825.50"))

	repo := newAnalyticsRepositoryWithPool(mockPool)
	volume, err := repo.TotalVolume(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !volume.Equal(decimal.RequireFromString("825.5")) {
		t.Errorf("unexpected volume %s", volume)
	}
}

func TestAnalyticsRepositoryDailyVolume(t *testing.T) {
	mockPool := newMockPool(t)
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("FROM payment_events").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count", "coalesce"}).
			AddRow("2025-01-15", int64(2), "150").
			AddRow("2025-01-16", int64(1), "200"))

	repo := newAnalyticsRepositoryWithPool(mockPool)
	volumes, err := repo.DailyVolume(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(volumes) != 2 {
		t.Fatalf("expected 2 days, got %d", len(volumes))
	}
	if volumes[0].Day != "2025-01-15" || volumes[0].Count != 2 {
		t.Errorf("unexpected first day: %+v", volumes[0])
	}
	if !volumes[1].TotalAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected second day amount: %s", volumes[1].TotalAmount)
	}
}

func TestAnalyticsRepositoryTopAccounts(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectQuery("GROUP BY account_id").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "volume"}).
			AddRow("acc-a", "500").
			AddRow("acc-b", "300"))

	repo := newAnalyticsRepositoryWithPool(mockPool)
	accounts, err := repo.TopAccounts(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].AccountID != "acc-a" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
	if !accounts[0].Volume.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected volume %s", accounts[0].Volume)
	}
}

func TestAnalyticsRepositoryCountByStatus(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectQuery("SELECT COUNT").
		WithArgs(domain.PaymentCompleted).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	repo := newAnalyticsRepositoryWithPool(mockPool)
	count, err := repo.CountByStatus(context.Background(), domain.PaymentCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}
