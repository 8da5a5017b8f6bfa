package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is the analytics projector's copy of a payment event.
// PaymentID is unique in storage and deduplicates redeliveries.
type PaymentRecord struct {
	ID            string
	PaymentID     string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Status        PaymentStatus
	Type          PaymentType
	OccurredAt    time.Time
	RecordedAt    time.Time
}

// Summary aggregates the whole event history.
type Summary struct {
	TotalPayments     int64
	CompletedPayments int64
	FailedPayments    int64
	TotalVolume       decimal.Decimal
	SuccessRate       float64
}

// DailyVolume is the payment count and volume for one calendar day.
type DailyVolume struct {
	Day         string
	Count       int64
	TotalAmount decimal.Decimal
}

// TopAccount is an account ranked by combined sent and received volume.
type TopAccount struct {
	AccountID string
	Volume    decimal.Decimal
}
