package domain

import "time"

// Topic and consumer group names for the payment event stream.
const (
	TopicPaymentProcessed = "payment-processed"

	ConsumerGroupNotification = "notification-group"
	ConsumerGroupAnalytics    = "analytics-group"
)

// PaymentEvent is the externally observable outcome of a settlement, derived
// 1:1 from a terminal payment. All fields are strings so consumers need no
// type configuration to decode it. The payment id doubles as the partition
// key: every event for one payment lands in the same ordered partition.
type PaymentEvent struct {
	PaymentID     string `json:"paymentId"`
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	OccurredAt    string `json:"occurredAt"`
}

// NewPaymentEvent builds the event for a terminal payment.
func NewPaymentEvent(p *Payment, occurredAt time.Time) PaymentEvent {
	return PaymentEvent{
		PaymentID:     p.ID,
		FromAccountID: p.FromAccountID,
		ToAccountID:   p.ToAccountID,
		Amount:        p.Amount.String(),
		Status:        string(p.Status),
		Type:          string(p.Type),
		OccurredAt:    occurredAt.UTC().Format(time.RFC3339Nano),
	}
}
