// Package ynab implements the YNAB API client: account snapshots for one
// budget plus transaction creation for sync runs.
package ynab

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agentstation/utc"

	"github.com/akahusync/akahusync/internal/transport"
	"github.com/akahusync/akahusync/pkg/accounts"
)

// DefaultBaseURL is the YNAB API endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

// Client talks to the YNAB API scoped to one budget.
type Client struct {
	http     *transport.Client
	budgetID string
}

// New creates a YNAB client for the given budget.
func New(baseURL, bearerToken, budgetID string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:     transport.New(accounts.PlatformYNAB.String(), baseURL, &transport.BearerAuth{Token: bearerToken}, opts...),
		budgetID: budgetID,
	}
}

// BudgetID returns the budget this client is scoped to.
func (c *Client) BudgetID() string {
	return c.budgetID
}

type wireAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	OnBudget bool   `json:"on_budget"`
	Closed   bool   `json:"closed"`
	Deleted  bool   `json:"deleted"`
	Balance  int64  `json:"balance"` // milliunits
}

type accountsResponse struct {
	Data struct {
		Accounts []wireAccount `json:"accounts"`
	} `json:"data"`
}

// Accounts fetches the budget's account snapshot. Closed and deleted
// accounts are excluded: they cannot receive transactions.
func (c *Client) Accounts(ctx context.Context) (accounts.Catalog, error) {
	var resp accountsResponse
	path := fmt.Sprintf("/budgets/%s/accounts", url.PathEscape(c.budgetID))
	if err := c.http.Get(ctx, path, &resp); err != nil {
		return nil, err
	}

	now := utc.Now()
	catalog := make(accounts.Catalog, len(resp.Data.Accounts))
	for _, item := range resp.Data.Accounts {
		if item.Closed || item.Deleted {
			continue
		}
		catalog[item.ID] = accounts.Record{
			ID:        item.ID,
			Name:      item.Name,
			Type:      accounts.ParseType(item.Type),
			Balance:   milliToMinor(item.Balance),
			FetchedAt: &now,
			Raw: map[string]any{
				"type":      item.Type,
				"on_budget": item.OnBudget,
			},
		}
	}
	return catalog, nil
}

// Transaction is one transaction to create, in YNAB's wire shape. Amounts
// are milliunits; ImportID makes retried posts idempotent on YNAB's side.
type Transaction struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name,omitempty"`
	Memo      string `json:"memo,omitempty"`
	Cleared   string `json:"cleared,omitempty"`
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id,omitempty"`
}

type transactionsPayload struct {
	Transactions []Transaction `json:"transactions"`
}

type transactionsResponse struct {
	Data struct {
		DuplicateImportIDs []string `json:"duplicate_import_ids"`
	} `json:"data"`
}

// CreateTransactions posts a batch of transactions and returns how many were
// actually created, net of import-id duplicates.
func (c *Client) CreateTransactions(ctx context.Context, txs []Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	var resp transactionsResponse
	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(c.budgetID))
	if err := c.http.Post(ctx, path, transactionsPayload{Transactions: txs}, &resp); err != nil {
		return 0, err
	}
	return len(txs) - len(resp.Data.DuplicateImportIDs), nil
}

// MinorToMilli converts cent amounts to YNAB milliunits.
func MinorToMilli(minor int64) int64 {
	return minor * 10
}

func milliToMinor(milli int64) int64 {
	// Round half away from zero on the stray unit digit.
	if milli >= 0 {
		return (milli + 5) / 10
	}
	return (milli - 5) / 10
}
