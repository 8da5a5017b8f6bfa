package domain

import "time"

// NotificationType is the outcome a notification reports.
type NotificationType string

const (
	NotificationPaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
)

// Notification is the record the notification projector writes once per
// payment. PaymentID carries a unique constraint in storage and is the
// deduplication key against redelivered events.
type Notification struct {
	ID            string
	PaymentID     string
	FromAccountID string
	ToAccountID   string
	Type          NotificationType
	Message       string
	SentAt        time.Time
}
