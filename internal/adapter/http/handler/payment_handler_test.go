package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/pmbank/settlement/internal/adapter/http/dto"
	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
	"github.com/pmbank/settlement/internal/usecase/mocks"
)

func newPaymentHandler(t *testing.T, balance int64) (*PaymentHandler, *mocks.MockPaymentRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockAccountLedger(ctrl)
	ledger.EXPECT().
		GetAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*domain.Account, error) {
			return &domain.Account{
				ID:      id,
				Status:  domain.AccountActive,
				Balance: decimal.NewFromInt(balance),
			}, nil
		}).
		AnyTimes()
	ledger.EXPECT().
		SetBalance(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	repo := mocks.NewMockPaymentRepository()
	uc := usecase.NewSettlementUseCase(
		ledger,
		repo,
		mocks.NewMockEventPublisher(),
		mocks.NewMockIDGenerator(),
		mocks.NewMockSettlementMetrics(),
		nil,
	)

	return NewPaymentHandler(uc), repo
}

func TestPaymentHandlerCreate(t *testing.T) {
	h, _ := newPaymentHandler(t, 1000)

	body := `{"fromAccountId":"acc-a","toAccountId":"acc-b","amount":"100.50","type":"TRANSFER","description":"rent"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(domain.PaymentCompleted) {
		t.Errorf("expected COMPLETED, got %s", resp.Status)
	}
	if resp.ID == "" {
		t.Error("expected a payment id")
	}
}

func TestPaymentHandlerCreateRejections(t *testing.T) {
	testCases := []struct {
		name     string
		balance  int64
		body     string
		expected int
	}{
		{
			name:     "malformed body",
			balance:  1000,
			body:     `{not json`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "unparseable amount",
			balance:  1000,
			body:     `{"fromAccountId":"acc-a","toAccountId":"acc-b","amount":"lots"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "same account",
			balance:  1000,
			body:     `{"fromAccountId":"acc-a","toAccountId":"acc-a","amount":"10"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "insufficient funds",
			balance:  5,
			body:     `{"fromAccountId":"acc-a","toAccountId":"acc-b","amount":"100"}`,
			expected: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newPaymentHandler(t, tc.balance)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != tc.expected {
				t.Fatalf("expected %d, got %d: %s", tc.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPaymentHandlerGetNotFound(t *testing.T) {
	h, _ := newPaymentHandler(t, 1000)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "pay-missing")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/pay-missing", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPaymentHandlerList(t *testing.T) {
	h, _ := newPaymentHandler(t, 1000)

	// Settle one payment so the list is non-empty.
	createBody := `{"fromAccountId":"acc-a","toAccountId":"acc-b","amount":"10"}`
	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/payments/", strings.NewReader(createBody))
	h.Create(httptest.NewRecorder(), createReq)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/?limit=10", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []*dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(resp))
	}
}
