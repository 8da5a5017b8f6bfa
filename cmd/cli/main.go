package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "settlement-cli",
		Short: "Settlement CLI tool",
		Long:  `A command line interface for interacting with the payment settlement API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the settlement API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	paymentCmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment operations",
	}
	paymentCmd.AddCommand(payCmd(), getPaymentCmd(), listPaymentsCmd())

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account views",
	}
	accountCmd.AddCommand(accountPaymentsCmd(), accountNotificationsCmd())

	analyticsCmd := &cobra.Command{
		Use:   "analytics",
		Short: "Analytics queries",
	}
	analyticsCmd.AddCommand(summaryCmd(), dailyVolumeCmd(), topAccountsCmd())

	rootCmd.AddCommand(paymentCmd, accountCmd, analyticsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func payCmd() *cobra.Command {
	var (
		paymentType    string
		description    string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "pay <from-account> <to-account> <amount>",
		Short: "Submit a payment for settlement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"fromAccountId": args[0],
				"toAccountId":   args[1],
				"amount":        args[2],
			}
			if paymentType != "" {
				body["type"] = paymentType
			}
			if description != "" {
				body["description"] = description
			}
			return postJSON("/api/v1/payments/", body, idempotencyKey)
		},
	}

	cmd.Flags().StringVar(&paymentType, "type", "", "Payment type (TRANSFER, DEPOSIT, WITHDRAWAL)")
	cmd.Flags().StringVar(&description, "description", "", "Free-form payment description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value for safe retries")

	return cmd
}

func getPaymentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <payment-id>",
		Short: "Fetch a payment by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/payments/" + args[0])
		},
	}
}

func listPaymentsCmd() *cobra.Command {
	var (
		accountID string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/payments/?limit=%d&offset=%d", limit, offset)
			if accountID != "" {
				path += "&accountId=" + accountID
			}
			return getJSON(path)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Filter by account id (sender or receiver)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of payments to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of payments to skip")

	return cmd
}

func accountPaymentsCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "payments <account-id>",
		Short: "List an account's payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/accounts/%s/payments?limit=%d&offset=%d", args[0], limit, offset))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of payments to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of payments to skip")

	return cmd
}

func accountNotificationsCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "notifications <account-id>",
		Short: "List an account's notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/accounts/%s/notifications?limit=%d&offset=%d", args[0], limit, offset))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of notifications to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of notifications to skip")

	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show aggregate payment counts and volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/analytics/summary")
		},
	}
}

func dailyVolumeCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Show per-day settled volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/analytics/volume/daily?from=%s&to=%s", from, to))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End day, exclusive (YYYY-MM-DD)")

	return cmd
}

func topAccountsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show accounts ranked by settled volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/analytics/accounts/top?limit=%d", limit))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of accounts to return")

	return cmd
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return printResponse(resp)
}

func postJSON(path string, body any, idempotencyKey string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		fmt.Println(truncate(string(body), 500))
	} else {
		printJSON(decoded)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
