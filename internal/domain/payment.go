package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentType classifies a payment. It is informational only and does not
// change how settlement runs.
type PaymentType string

const (
	PaymentTypeTransfer   PaymentType = "TRANSFER"
	PaymentTypeDeposit    PaymentType = "DEPOSIT"
	PaymentTypeWithdrawal PaymentType = "WITHDRAWAL"
)

// Payment is the durable record of one settlement attempt. It is persisted
// as PENDING before any ledger mutation so every attempt leaves an audit row.
type Payment struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Status        PaymentStatus
	Type          PaymentType
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates a payment request before settlement starts.
func (p *Payment) Validate() error {
	if p.FromAccountID == "" || p.ToAccountID == "" {
		return ErrMissingAccountID
	}

	if p.FromAccountID == p.ToAccountID {
		return ErrSameAccount
	}

	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}

	switch p.Type {
	case PaymentTypeTransfer, PaymentTypeDeposit, PaymentTypeWithdrawal:
	default:
		return ErrInvalidPaymentType
	}

	return nil
}

// IsTerminal reports whether the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

// MarkCompleted transitions a pending payment to COMPLETED.
// Terminal states are final: transitioning twice is a programming error.
func (p *Payment) MarkCompleted(now time.Time) error {
	return p.finalize(PaymentCompleted, now)
}

// MarkFailed transitions a pending payment to FAILED.
func (p *Payment) MarkFailed(now time.Time) error {
	return p.finalize(PaymentFailed, now)
}

func (p *Payment) finalize(status PaymentStatus, now time.Time) error {
	if p.Status != PaymentPending {
		return ErrPaymentFinalized
	}

	p.Status = status
	p.UpdatedAt = now

	return nil
}
