package domain

import (
	"github.com/shopspring/decimal"
)

// AccountStatus is the state of an account at the ledger.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// Account is a snapshot of a ledger account. The account service owns the
// record; this service never caches a snapshot beyond one settlement attempt.
type Account struct {
	ID      string
	Name    string
	Type    string
	Status  AccountStatus
	Balance decimal.Decimal
}

// IsActive reports whether the account can send or receive payments.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// CanCover reports whether the balance covers amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
