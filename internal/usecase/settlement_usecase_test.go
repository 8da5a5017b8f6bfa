package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
	"github.com/pmbank/settlement/internal/usecase/mocks"
)

// fakeLedger is an in-memory account service with failure injection by
// SetBalance call index (1 = debit, 2 = credit, 3 = compensation when the
// credit failed; 2 = compensation when the debit failed).
type fakeLedger struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	writes     int
	failOnCall map[int]error
	getErr     map[string]error
}

func newFakeLedger(accounts ...*domain.Account) *fakeLedger {
	l := &fakeLedger{
		accounts:   make(map[string]*domain.Account),
		failOnCall: make(map[int]error),
		getErr:     make(map[string]error),
	}
	for _, a := range accounts {
		copied := *a
		l.accounts[a.ID] = &copied
	}
	return l
}

func (l *fakeLedger) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.getErr[id]; err != nil {
		return nil, err
	}
	acc, ok := l.accounts[id]
	if !ok {
		return nil, domain.ErrAccountUnavailable
	}
	copied := *acc
	return &copied, nil
}

func (l *fakeLedger) SetBalance(ctx context.Context, account *domain.Account, newBalance decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes++
	if err := l.failOnCall[l.writes]; err != nil {
		return err
	}
	l.accounts[account.ID].Balance = newBalance
	return nil
}

func (l *fakeLedger) balance(id string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[id].Balance
}

func activeAccount(id string, balance int64) *domain.Account {
	return &domain.Account{
		ID:      id,
		Name:    "acct " + id,
		Type:    "CHECKING",
		Status:  domain.AccountActive,
		Balance: decimal.NewFromInt(balance),
	}
}

func transferInput(amount int64) usecase.SettleInput {
	return usecase.SettleInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(amount),
		Type:          domain.PaymentTypeTransfer,
	}
}

func newSettlementFixture(ledger *fakeLedger) (*usecase.SettlementUseCase, *mocks.MockPaymentRepository, *mocks.MockEventPublisher, *mocks.MockSettlementMetrics) {
	repo := mocks.NewMockPaymentRepository()
	publisher := mocks.NewMockEventPublisher()
	metrics := mocks.NewMockSettlementMetrics()
	uc := usecase.NewSettlementUseCase(ledger, repo, publisher, mocks.NewMockIDGenerator(), metrics, nil)
	return uc, repo, publisher, metrics
}

func TestSettle_Completed(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	uc, repo, publisher, metrics := newSettlementFixture(ledger)

	payment, err := uc.Settle(context.Background(), transferInput(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentCompleted {
		t.Errorf("expected COMPLETED, got %s", payment.Status)
	}

	// Conservation of funds: A loses exactly 100, B gains exactly 100.
	if got := ledger.balance("acc-a"); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected source balance 400, got %s", got)
	}
	if got := ledger.balance("acc-b"); !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected destination balance 200, got %s", got)
	}

	stored, err := repo.GetByID(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("payment row not persisted: %v", err)
	}
	if stored.Status != domain.PaymentCompleted {
		t.Errorf("stored status %s, want COMPLETED", stored.Status)
	}

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Status != "COMPLETED" || events[0].PaymentID != payment.ID || events[0].Amount != "100" {
		t.Errorf("unexpected event: %+v", events[0])
	}

	if metrics.Settlements[domain.PaymentCompleted] != 1 {
		t.Error("expected one completed settlement observation")
	}
}

func TestSettle_PreCommitRejections(t *testing.T) {
	tests := []struct {
		name    string
		ledger  *fakeLedger
		input   usecase.SettleInput
		wantErr error
	}{
		{
			name:    "insufficient funds",
			ledger:  newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100)),
			input:   transferInput(600),
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "source account frozen",
			ledger: newFakeLedger(
				&domain.Account{ID: "acc-a", Status: domain.AccountFrozen, Balance: decimal.NewFromInt(500)},
				activeAccount("acc-b", 100),
			),
			input:   transferInput(100),
			wantErr: domain.ErrAccountNotActive,
		},
		{
			name: "destination account closed",
			ledger: newFakeLedger(
				activeAccount("acc-a", 500),
				&domain.Account{ID: "acc-b", Status: domain.AccountClosed, Balance: decimal.NewFromInt(100)},
			),
			input:   transferInput(100),
			wantErr: domain.ErrAccountNotActive,
		},
		{
			name: "ledger unavailable",
			ledger: func() *fakeLedger {
				l := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
				l.getErr["acc-b"] = domain.ErrAccountUnavailable
				return l
			}(),
			input:   transferInput(100),
			wantErr: domain.ErrAccountUnavailable,
		},
		{
			name:   "self transfer",
			ledger: newFakeLedger(activeAccount("acc-a", 500)),
			input: usecase.SettleInput{
				FromAccountID: "acc-a",
				ToAccountID:   "acc-a",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.PaymentTypeTransfer,
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "negative amount",
			ledger:  newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100)),
			input:   transferInput(-1),
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, publisher, _ := newSettlementFixture(tt.ledger)

			_, err := uc.Settle(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}

			// Rejected before the durability checkpoint: no payment row,
			// no event, no balance change.
			if repo.Count() != 0 {
				t.Error("expected no payment row for a pre-commit rejection")
			}
			if len(publisher.Events()) != 0 {
				t.Error("expected no event for a pre-commit rejection")
			}
			if tt.ledger.writes != 0 {
				t.Errorf("expected no balance writes, got %d", tt.ledger.writes)
			}
		})
	}
}

func TestSettle_CreditFailsDebitReversed(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	ledger.failOnCall[2] = errors.New("rpc: connection reset")
	uc, repo, publisher, metrics := newSettlementFixture(ledger)

	payment, err := uc.Settle(context.Background(), transferInput(100))
	if err != nil {
		t.Fatalf("a failed settlement is a clean saga outcome, got error: %v", err)
	}

	if payment.Status != domain.PaymentFailed {
		t.Errorf("expected FAILED, got %s", payment.Status)
	}

	// Debit happened, then the compensating call restored it.
	if got := ledger.balance("acc-a"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected source restored to 500, got %s", got)
	}
	if got := ledger.balance("acc-b"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected destination unchanged at 100, got %s", got)
	}
	if ledger.writes != 3 {
		t.Errorf("expected debit, credit, compensation (3 writes), got %d", ledger.writes)
	}

	stored, err := repo.GetByID(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("attempted transfer must leave an audit row: %v", err)
	}
	if stored.Status != domain.PaymentFailed {
		t.Errorf("stored status %s, want FAILED", stored.Status)
	}

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Status != "FAILED" {
		t.Errorf("expected FAILED event, got %s", events[0].Status)
	}

	if metrics.Compensations[true] != 1 {
		t.Error("expected one confirmed compensation")
	}
}

func TestSettle_CompensationUnconfirmed(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	ledger.failOnCall[2] = errors.New("rpc: connection reset")
	ledger.failOnCall[3] = errors.New("rpc: connection reset")
	uc, repo, publisher, metrics := newSettlementFixture(ledger)

	payment, err := uc.Settle(context.Background(), transferInput(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The reversal failed: the debit sticks, the FAILED row is the
	// permanent record that the reversal was not confirmed.
	if payment.Status != domain.PaymentFailed {
		t.Errorf("expected FAILED, got %s", payment.Status)
	}
	if got := ledger.balance("acc-a"); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected source left at 400, got %s", got)
	}
	if metrics.Compensations[false] != 1 {
		t.Error("expected one unconfirmed compensation")
	}
	if repo.Count() != 1 {
		t.Error("expected the FAILED payment row to exist")
	}
	if len(publisher.Events()) != 1 {
		t.Error("expected the FAILED event to still publish")
	}
}

func TestSettle_DebitFails(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	ledger.failOnCall[1] = errors.New("rpc: deadline exceeded")
	uc, repo, publisher, _ := newSettlementFixture(ledger)

	payment, err := uc.Settle(context.Background(), transferInput(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentFailed {
		t.Errorf("expected FAILED, got %s", payment.Status)
	}
	if got := ledger.balance("acc-a"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected source unchanged at 500, got %s", got)
	}
	if got := ledger.balance("acc-b"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected destination unchanged at 100, got %s", got)
	}
	if repo.Count() != 1 {
		t.Error("expected the PENDING checkpoint row to survive as FAILED")
	}
	if len(publisher.Events()) != 1 {
		t.Error("expected one FAILED event")
	}
}

func TestSettle_ZeroAmount(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	uc, _, _, _ := newSettlementFixture(ledger)

	payment, err := uc.Settle(context.Background(), transferInput(0))
	if err != nil {
		t.Fatalf("zero amount must be allowed: %v", err)
	}
	if payment.Status != domain.PaymentCompleted {
		t.Errorf("expected COMPLETED, got %s", payment.Status)
	}
	if got := ledger.balance("acc-a"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected source unchanged, got %s", got)
	}
}

func TestSettle_PublishFailureDoesNotChangeOutcome(t *testing.T) {
	ledger := newFakeLedger(activeAccount("acc-a", 500), activeAccount("acc-b", 100))
	repo := mocks.NewMockPaymentRepository()
	publisher := mocks.NewMockEventPublisher()
	publisher.PublishFunc = func(ctx context.Context, event domain.PaymentEvent) error {
		return errors.New("kafka: broker unreachable")
	}

	uc := usecase.NewSettlementUseCase(ledger, repo, publisher,
		mocks.NewMockIDGenerator(), mocks.NewMockSettlementMetrics(), nil)

	payment, err := uc.Settle(context.Background(), transferInput(100))
	if err != nil {
		t.Fatalf("publish failure must not surface: %v", err)
	}
	if payment.Status != domain.PaymentCompleted {
		t.Errorf("expected COMPLETED, got %s", payment.Status)
	}

	stored, err := repo.GetByID(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.PaymentCompleted {
		t.Error("a lost event must never be confused with a lost transaction")
	}
}

func TestSettle_SingleAttemptPerLedgerCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockAccountLedger(ctrl)
	// Exactly one fetch: the saga never retries a failed remote call.
	ledger.EXPECT().GetAccount(gomock.Any(), "acc-a").
		Return(nil, domain.ErrAccountUnavailable).Times(1)

	uc := usecase.NewSettlementUseCase(ledger, mocks.NewMockPaymentRepository(),
		mocks.NewMockEventPublisher(), mocks.NewMockIDGenerator(),
		mocks.NewMockSettlementMetrics(), nil)

	_, err := uc.Settle(context.Background(), transferInput(100))
	if !errors.Is(err, domain.ErrAccountUnavailable) {
		t.Fatalf("expected ErrAccountUnavailable, got %v", err)
	}
}

func TestGetPayment(t *testing.T) {
	repo := mocks.NewMockPaymentRepository()
	repo.Create(context.Background(), &domain.Payment{
		ID:            "pay-1",
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(100),
		Status:        domain.PaymentCompleted,
	})

	uc := usecase.NewSettlementUseCase(nil, repo, nil, nil, mocks.NewMockSettlementMetrics(), nil)

	t.Run("existing payment", func(t *testing.T) {
		p, err := uc.GetPayment(context.Background(), "pay-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "pay-1" {
			t.Errorf("expected pay-1, got %s", p.ID)
		}
	})

	t.Run("missing payment", func(t *testing.T) {
		_, err := uc.GetPayment(context.Background(), "nope")
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			t.Errorf("expected ErrPaymentNotFound, got %v", err)
		}
	})
}

func TestListPayments(t *testing.T) {
	repo := mocks.NewMockPaymentRepository()
	for _, p := range []*domain.Payment{
		{ID: "pay-1", FromAccountID: "acc-a", ToAccountID: "acc-b"},
		{ID: "pay-2", FromAccountID: "acc-c", ToAccountID: "acc-a"},
		{ID: "pay-3", FromAccountID: "acc-c", ToAccountID: "acc-d"},
	} {
		repo.Create(context.Background(), p)
	}

	uc := usecase.NewSettlementUseCase(nil, repo, nil, nil, mocks.NewMockSettlementMetrics(), nil)

	t.Run("all payments", func(t *testing.T) {
		payments, err := uc.ListPayments(context.Background(), usecase.ListPaymentsInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(payments) != 3 {
			t.Errorf("expected 3 payments, got %d", len(payments))
		}
	})

	t.Run("by account matches sender or receiver", func(t *testing.T) {
		payments, err := uc.ListPayments(context.Background(), usecase.ListPaymentsInput{AccountID: "acc-a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(payments) != 2 {
			t.Errorf("expected 2 payments for acc-a, got %d", len(payments))
		}
	})
}
