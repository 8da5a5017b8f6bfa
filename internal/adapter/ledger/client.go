package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

// Client talks to the account ledger service over HTTP JSON. It
// implements usecase.AccountLedger.
//
// Every error, transport or HTTP status alike, wraps
// domain.ErrAccountUnavailable: callers treat the ledger as a single
// opaque dependency that either answered or did not.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ledger client. The timeout applies per call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type accountPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Balance string `json:"balance"`
}

// GetAccount fetches the current record for an account.
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	url := c.baseURL + "/accounts/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrAccountUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get account %s: %v", domain.ErrAccountUnavailable, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get account %s: status %d", domain.ErrAccountUnavailable, id, resp.StatusCode)
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode account %s: %v", domain.ErrAccountUnavailable, id, err)
	}

	balance, err := decimal.NewFromString(payload.Balance)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s balance %q: %v", domain.ErrAccountUnavailable, id, payload.Balance, err)
	}

	return &domain.Account{
		ID:      payload.ID,
		Name:    payload.Name,
		Type:    payload.Type,
		Status:  domain.AccountStatus(payload.Status),
		Balance: balance,
	}, nil
}

// SetBalance writes a new balance for an account. The ledger update
// endpoint replaces the whole record, so the previously fetched fields
// are echoed back unchanged alongside the new balance.
func (c *Client) SetBalance(ctx context.Context, account *domain.Account, newBalance decimal.Decimal) error {
	payload := accountPayload{
		ID:      account.ID,
		Name:    account.Name,
		Type:    account.Type,
		Status:  string(account.Status),
		Balance: newBalance.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal account %s: %v", domain.ErrAccountUnavailable, account.ID, err)
	}

	url := c.baseURL + "/accounts/" + account.ID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrAccountUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: update account %s: %v", domain.ErrAccountUnavailable, account.ID, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: update account %s: status %d", domain.ErrAccountUnavailable, account.ID, resp.StatusCode)
	}

	return nil
}
