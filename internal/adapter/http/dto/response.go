package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Type          string          `json:"type"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		FromAccountID: p.FromAccountID,
		ToAccountID:   p.ToAccountID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		Type:          string(p.Type),
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"paymentId"`
	FromAccountID string    `json:"fromAccountId"`
	ToAccountID   string    `json:"toAccountId"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	SentAt        time.Time `json:"sentAt"`
}

// NotificationsFromDomain converts domain notifications to responses.
func NotificationsFromDomain(notifications []*domain.Notification) []*NotificationResponse {
	result := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		result[i] = &NotificationResponse{
			ID:            n.ID,
			PaymentID:     n.PaymentID,
			FromAccountID: n.FromAccountID,
			ToAccountID:   n.ToAccountID,
			Type:          string(n.Type),
			Message:       n.Message,
			SentAt:        n.SentAt,
		}
	}
	return result
}

// SummaryResponse represents aggregate payment statistics.
type SummaryResponse struct {
	TotalPayments     int64           `json:"totalPayments"`
	CompletedPayments int64           `json:"completedPayments"`
	FailedPayments    int64           `json:"failedPayments"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
	SuccessRate       float64         `json:"successRate"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s *domain.Summary) *SummaryResponse {
	return &SummaryResponse{
		TotalPayments:     s.TotalPayments,
		CompletedPayments: s.CompletedPayments,
		FailedPayments:    s.FailedPayments,
		TotalVolume:       s.TotalVolume,
		SuccessRate:       s.SuccessRate,
	}
}

// DailyVolumeResponse is the volume for one calendar day.
type DailyVolumeResponse struct {
	Day         string          `json:"day"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// DailyVolumesFromDomain converts domain daily volumes to responses.
func DailyVolumesFromDomain(volumes []*domain.DailyVolume) []*DailyVolumeResponse {
	result := make([]*DailyVolumeResponse, len(volumes))
	for i, v := range volumes {
		result[i] = &DailyVolumeResponse{
			Day:         v.Day,
			Count:       v.Count,
			TotalAmount: v.TotalAmount,
		}
	}
	return result
}

// TopAccountResponse is an account ranked by payment volume.
type TopAccountResponse struct {
	AccountID string          `json:"accountId"`
	Volume    decimal.Decimal `json:"volume"`
}

// TopAccountsFromDomain converts domain top accounts to responses.
func TopAccountsFromDomain(accounts []*domain.TopAccount) []*TopAccountResponse {
	result := make([]*TopAccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = &TopAccountResponse{
			AccountID: a.AccountID,
			Volume:    a.Volume,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
