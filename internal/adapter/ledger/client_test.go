package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pmbank/settlement/internal/domain"
)

func TestGetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/accounts/acc-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"acc-1","name":"Alice","type":"CHECKING","status":"ACTIVE","balance":"500.25"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	account, err := client.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID != "acc-1" || account.Name != "Alice" {
		t.Errorf("unexpected account: %+v", account)
	}
	if account.Status != domain.AccountActive {
		t.Errorf("expected ACTIVE, got %s", account.Status)
	}
	if !account.Balance.Equal(decimal.RequireFromString("500.25")) {
		t.Errorf("unexpected balance %s", account.Balance)
	}
}

func TestGetAccountErrorsWrapUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "unparseable balance",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"acc-1","balance":"lots"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			_, err := client.GetAccount(context.Background(), "acc-1")
			if !errors.Is(err, domain.ErrAccountUnavailable) {
				t.Fatalf("expected ErrAccountUnavailable, got %v", err)
			}
		})
	}
}

func TestGetAccountConnectionRefused(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetAccount(context.Background(), "acc-1")
	if !errors.Is(err, domain.ErrAccountUnavailable) {
		t.Fatalf("expected ErrAccountUnavailable, got %v", err)
	}
}

func TestSetBalanceEchoesFullRecord(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/accounts/acc-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	account := &domain.Account{
		ID:      "acc-1",
		Name:    "Alice",
		Type:    "CHECKING",
		Status:  domain.AccountActive,
		Balance: decimal.RequireFromString("500.25"),
	}

	client := NewClient(srv.URL, time.Second)
	if err := client.SetBalance(context.Background(), account, decimal.RequireFromString("400.25")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"id":      "acc-1",
		"name":    "Alice",
		"type":    "CHECKING",
		"status":  "ACTIVE",
		"balance": "400.25",
	}
	for k, v := range want {
		if received[k] != v {
			t.Errorf("field %s: expected %q, got %q", k, v, received[k])
		}
	}
}

func TestSetBalanceNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	account := &domain.Account{ID: "acc-1", Status: domain.AccountActive, Balance: decimal.Zero}

	client := NewClient(srv.URL, time.Second)
	err := client.SetBalance(context.Background(), account, decimal.NewFromInt(10))
	if !errors.Is(err, domain.ErrAccountUnavailable) {
		t.Fatalf("expected ErrAccountUnavailable, got %v", err)
	}
}
