package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// SettlementUseCase orchestrates one transfer attempt end-to-end: validate,
// debit, credit, compensate on failure, finalize, publish. The two ledgers
// are independently owned, so there is no shared transaction; the durable
// Payment row is the source of truth for what happened.
type SettlementUseCase struct {
	ledger      AccountLedger
	paymentRepo PaymentRepository
	publisher   EventPublisher
	idGen       IDGenerator
	metrics     SettlementMetrics
	logger      *slog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	ledger AccountLedger,
	paymentRepo PaymentRepository,
	publisher EventPublisher,
	idGen IDGenerator,
	metrics SettlementMetrics,
	logger *slog.Logger,
) *SettlementUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &SettlementUseCase{
		ledger:      ledger,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger,
	}
}

// SettleInput represents a settlement request.
type SettleInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Type          domain.PaymentType
	Description   string
}

// Settle runs the settlement saga for one payment. Steps are strictly
// sequential and never retried: the debit must be confirmed or failed
// before the credit is attempted.
//
// Rejections before the PENDING row is written (unavailable ledger,
// inactive account, insufficient funds) return an error and leave no
// payment row. Once the PENDING row exists every outcome is durable:
// a failed ledger update yields one best-effort compensating call and a
// FAILED payment, returned with a nil error. The saga itself terminated
// cleanly, and retrying the same payment would be wrong.
func (uc *SettlementUseCase) Settle(ctx context.Context, input SettleInput) (*domain.Payment, error) {
	start := time.Now()

	payment := &domain.Payment{
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Status:        domain.PaymentPending,
		Type:          input.Type,
		Description:   input.Description,
	}

	if err := payment.Validate(); err != nil {
		uc.metrics.IncRejection("invalid_request")
		return nil, err
	}

	// Step 1: fetch both accounts. Any failure here aborts before any
	// durable write: the transfer was never attempted.
	fromAccount, err := uc.ledger.GetAccount(ctx, input.FromAccountID)
	if err != nil {
		uc.metrics.IncRejection("account_unavailable")
		return nil, err
	}

	toAccount, err := uc.ledger.GetAccount(ctx, input.ToAccountID)
	if err != nil {
		uc.metrics.IncRejection("account_unavailable")
		return nil, err
	}

	// Step 2: both accounts must be ACTIVE.
	if !fromAccount.IsActive() {
		uc.metrics.IncRejection("account_not_active")
		return nil, fmt.Errorf("%w: source account %s is %s",
			domain.ErrAccountNotActive, fromAccount.ID, fromAccount.Status)
	}

	if !toAccount.IsActive() {
		uc.metrics.IncRejection("account_not_active")
		return nil, fmt.Errorf("%w: destination account %s is %s",
			domain.ErrAccountNotActive, toAccount.ID, toAccount.Status)
	}

	// Step 3: the source balance must cover the amount.
	if !fromAccount.CanCover(payment.Amount) {
		uc.metrics.IncRejection("insufficient_funds")
		return nil, fmt.Errorf("%w: available %s, required %s",
			domain.ErrInsufficientFunds, fromAccount.Balance, payment.Amount)
	}

	// Step 4: durability checkpoint. From here every outcome is recorded.
	now := time.Now().UTC()
	payment.ID = uc.idGen.Generate()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if err := uc.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	uc.logger.Info("payment saved as PENDING",
		slog.String("payment_id", payment.ID),
		slog.String("from", payment.FromAccountID),
		slog.String("to", payment.ToAccountID),
		slog.String("amount", payment.Amount.String()))

	// Steps 5-6: debit then credit, strictly in that order.
	err = uc.ledger.SetBalance(ctx, fromAccount, fromAccount.Balance.Sub(payment.Amount))
	if err == nil {
		err = uc.ledger.SetBalance(ctx, toAccount, toAccount.Balance.Add(payment.Amount))
	}

	if err != nil {
		// Step 8: one compensating call restoring the original source
		// balance, best-effort. Its own failure never changes this
		// payment's outcome; the FAILED row is the permanent record
		// that a reversal was, or was not, confirmed.
		uc.logger.Error("payment failed during ledger update",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()))

		uc.compensate(ctx, payment.ID, fromAccount)

		if err := uc.finalize(ctx, payment, domain.PaymentFailed); err != nil {
			return nil, err
		}

		uc.metrics.ObserveSettlement(domain.PaymentFailed, time.Since(start))
		uc.publishOutcome(ctx, payment)

		return payment, nil
	}

	// Step 7: both ledger updates confirmed.
	if err := uc.finalize(ctx, payment, domain.PaymentCompleted); err != nil {
		return nil, err
	}

	uc.logger.Info("payment completed", slog.String("payment_id", payment.ID))
	uc.metrics.ObserveSettlement(domain.PaymentCompleted, time.Since(start))
	uc.publishOutcome(ctx, payment)

	return payment, nil
}

// compensate attempts exactly one reversal of the debit by restoring the
// pre-transfer source balance.
func (uc *SettlementUseCase) compensate(ctx context.Context, paymentID string, fromAccount *domain.Account) {
	if err := uc.ledger.SetBalance(ctx, fromAccount, fromAccount.Balance); err != nil {
		uc.logger.Error("CRITICAL: could not reverse debit, manual intervention required",
			slog.String("payment_id", paymentID),
			slog.String("account_id", fromAccount.ID),
			slog.String("restore_balance", fromAccount.Balance.String()),
			slog.String("error", err.Error()))
		uc.metrics.IncCompensation(false)

		return
	}

	uc.logger.Info("debit reversed", slog.String("payment_id", paymentID))
	uc.metrics.IncCompensation(true)
}

// finalize persists the terminal status. The status machine is monotonic:
// PENDING is the only state this can be called from.
func (uc *SettlementUseCase) finalize(ctx context.Context, payment *domain.Payment, status domain.PaymentStatus) error {
	now := time.Now().UTC()

	var err error
	if status == domain.PaymentCompleted {
		err = payment.MarkCompleted(now)
	} else {
		err = payment.MarkFailed(now)
	}
	if err != nil {
		return err
	}

	if err := uc.paymentRepo.UpdateStatus(ctx, payment.ID, payment.Status, payment.UpdatedAt); err != nil {
		return fmt.Errorf("failed to persist terminal status: %w", err)
	}

	return nil
}

// publishOutcome emits the payment event for a terminal payment. Publishing
// is fire-and-forget: the event stream is a notification side-channel, and a
// transport failure must never be confused with a failed transaction.
func (uc *SettlementUseCase) publishOutcome(ctx context.Context, payment *domain.Payment) {
	event := domain.NewPaymentEvent(payment, payment.UpdatedAt)

	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("failed to publish payment event",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()))
		uc.metrics.ObservePublish(false)

		return
	}

	uc.metrics.ObservePublish(true)
	uc.logger.Info("published payment event",
		slog.String("payment_id", payment.ID),
		slog.String("status", event.Status))
}

// GetPayment retrieves a payment by ID.
func (uc *SettlementUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

// ListPaymentsInput represents input for listing payments.
type ListPaymentsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListPayments lists payments, optionally filtered to those where the
// account was sender or receiver.
func (uc *SettlementUseCase) ListPayments(ctx context.Context, input ListPaymentsInput) ([]*domain.Payment, error) {
	if input.Limit <= 0 {
		input.Limit = defaultPageSize
	}

	if input.Limit > maxPageSize {
		input.Limit = maxPageSize
	}

	if input.AccountID != "" {
		return uc.paymentRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
	}

	return uc.paymentRepo.List(ctx, input.Limit, input.Offset)
}
