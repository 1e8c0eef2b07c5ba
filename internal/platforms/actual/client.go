// Package actual implements the Actual Budget client. Actual's first-party
// protocol ships the whole budget file to the client; this client instead
// targets the REST bridge deployed next to the server, which exposes
// accounts and transactions per budget sync id.
package actual

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agentstation/utc"

	"github.com/akahusync/akahusync/internal/transport"
	"github.com/akahusync/akahusync/pkg/accounts"
)

// Client talks to an Actual Budget REST bridge scoped to one budget file.
type Client struct {
	http   *transport.Client
	syncID string
}

// New creates an Actual client. The server password doubles as the bridge
// API key.
func New(serverURL, password, syncID string, opts ...transport.Option) *Client {
	auth := &transport.HeaderAuth{Header: "X-Api-Key", Value: password}
	return &Client{
		http:   transport.New(accounts.PlatformActual.String(), serverURL, auth, opts...),
		syncID: syncID,
	}
}

// SyncID returns the budget file id this client is scoped to.
func (c *Client) SyncID() string {
	return c.syncID
}

type wireAccount struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OffBudget bool   `json:"offbudget"`
	Closed    bool   `json:"closed"`
	Balance   int64  `json:"balance"` // minor units
}

type accountsResponse struct {
	Data []wireAccount `json:"data"`
}

// Accounts fetches the budget's account snapshot. Closed accounts are
// excluded: they cannot receive transactions.
func (c *Client) Accounts(ctx context.Context) (accounts.Catalog, error) {
	var resp accountsResponse
	path := fmt.Sprintf("/v1/budgets/%s/accounts", url.PathEscape(c.syncID))
	if err := c.http.Get(ctx, path, &resp); err != nil {
		return nil, err
	}

	now := utc.Now()
	catalog := make(accounts.Catalog, len(resp.Data))
	for _, item := range resp.Data {
		if item.Closed {
			continue
		}
		// Actual has no account type field; off-budget roughly means a
		// tracking account.
		accType := accounts.TypeChecking
		if item.OffBudget {
			accType = accounts.TypeOther
		}
		catalog[item.ID] = accounts.Record{
			ID:        item.ID,
			Name:      item.Name,
			Type:      accType,
			Balance:   item.Balance,
			FetchedAt: &now,
			Raw: map[string]any{
				"offbudget": item.OffBudget,
			},
		}
	}
	return catalog, nil
}

// Transaction is one transaction to create, in the bridge's wire shape.
// Amounts are minor units; ImportedID makes retried posts idempotent.
type Transaction struct {
	Account    string `json:"account"`
	Date       string `json:"date"` // YYYY-MM-DD
	Amount     int64  `json:"amount"`
	PayeeName  string `json:"payee_name,omitempty"`
	Notes      string `json:"notes,omitempty"`
	ImportedID string `json:"imported_id,omitempty"`
	Cleared    bool   `json:"cleared"`
}

type transactionsPayload struct {
	Transactions []Transaction `json:"transactions"`
}

type transactionsResponse struct {
	Data struct {
		Added   []string `json:"added"`
		Updated []string `json:"updated"`
	} `json:"data"`
}

// CreateTransactions posts a batch of transactions for one account and
// returns how many were newly added.
func (c *Client) CreateTransactions(ctx context.Context, accountID string, txs []Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	var resp transactionsResponse
	path := fmt.Sprintf("/v1/budgets/%s/accounts/%s/transactions",
		url.PathEscape(c.syncID), url.PathEscape(accountID))
	if err := c.http.Post(ctx, path, transactionsPayload{Transactions: txs}, &resp); err != nil {
		return 0, err
	}
	return len(resp.Data.Added), nil
}
