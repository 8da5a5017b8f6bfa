package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmbank/settlement/internal/adapter/http/dto"
	"github.com/pmbank/settlement/internal/usecase"
)

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	settlementUC *usecase.SettlementUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementUC *usecase.SettlementUseCase) *PaymentHandler {
	return &PaymentHandler{settlementUC: settlementUC}
}

// Create submits a payment for settlement. A payment that settles as
// FAILED is still a created resource: the saga ran to completion and
// recorded its outcome.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	payment, err := h.settlementUC.Settle(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "payment rejected", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// Get retrieves a payment by ID.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing payment ID", "")
		return
	}

	payment, err := h.settlementUC.GetPayment(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get payment", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// List lists payments, optionally filtered by account.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.settlementUC.ListPayments(r.Context(), usecase.ListPaymentsInput{
		AccountID: r.URL.Query().Get("accountId"),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}

// ListByAccount lists payments where the account was sender or receiver.
func (h *PaymentHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	payments, err := h.settlementUC.ListPayments(r.Context(), usecase.ListPaymentsInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}
