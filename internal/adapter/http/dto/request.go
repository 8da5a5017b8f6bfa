package dto

import (
	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/usecase"
)

// CreatePaymentRequest is the payload for submitting a payment.
type CreatePaymentRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Description   string `json:"description,omitempty"`
}

// ToUseCaseInput converts the request to use case input.
func (r CreatePaymentRequest) ToUseCaseInput() (usecase.SettleInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.SettleInput{}, err
	}

	paymentType := domain.PaymentType(r.Type)
	if r.Type == "" {
		paymentType = domain.PaymentTypeTransfer
	}

	return usecase.SettleInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
		Type:          paymentType,
		Description:   r.Description,
	}, nil
}
