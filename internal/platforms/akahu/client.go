// Package akahu implements the read-only Akahu API client: account snapshots
// for mapping runs and transaction listings for sync runs.
package akahu

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"

	"github.com/akahusync/akahusync/internal/transport"
	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
)

// DefaultBaseURL is the Akahu API endpoint.
const DefaultBaseURL = "https://api.akahu.io/v1"

// Client talks to the Akahu API on behalf of one user.
type Client struct {
	http *transport.Client
}

// New creates an Akahu client. Akahu authenticates every request with the
// user token as a bearer plus the registered app token in X-Akahu-ID.
func New(baseURL, userToken, appToken string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	auth := &transport.AkahuAuth{UserToken: userToken, AppToken: appToken}
	return &Client{
		http: transport.New(accounts.PlatformAkahu.String(), baseURL, auth, opts...),
	}
}

type wireAccount struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`

	Balance struct {
		Current  decimal.Decimal `json:"current"`
		Currency string          `json:"currency"`
	} `json:"balance"`

	Connection struct {
		Name string `json:"name"`
	} `json:"connection"`
}

type accountsResponse struct {
	Success bool          `json:"success"`
	Items   []wireAccount `json:"items"`
	Message string        `json:"message"`
}

// Accounts fetches the current account snapshot.
func (c *Client) Accounts(ctx context.Context) (accounts.Catalog, error) {
	var resp accountsResponse
	if err := c.http.Get(ctx, "/accounts", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.NewAPIError(accounts.PlatformAkahu.String(), 0, resp.Message)
	}

	now := utc.Now()
	catalog := make(accounts.Catalog, len(resp.Items))
	for _, item := range resp.Items {
		catalog[item.ID] = accounts.Record{
			ID:        item.ID,
			Name:      item.Name,
			Type:      accounts.ParseType(item.Type),
			Balance:   accounts.MinorUnits(item.Balance.Current),
			FetchedAt: &now,
			Raw: map[string]any{
				"status":     item.Status,
				"currency":   item.Balance.Currency,
				"connection": item.Connection.Name,
			},
		}
	}
	return catalog, nil
}

// Transaction is one settled Akahu transaction.
type Transaction struct {
	ID          string          `json:"_id"`
	AccountID   string          `json:"_account"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`

	Merchant *struct {
		Name string `json:"name"`
	} `json:"merchant"`
}

// Payee returns the best available counterparty name.
func (t Transaction) Payee() string {
	if t.Merchant != nil && t.Merchant.Name != "" {
		return t.Merchant.Name
	}
	return t.Description
}

type transactionsResponse struct {
	Success bool          `json:"success"`
	Items   []Transaction `json:"items"`
	Message string        `json:"message"`

	Cursor struct {
		Next string `json:"next"`
	} `json:"cursor"`
}

// Transactions lists settled transactions for one account since the given
// time, following the cursor until exhausted.
func (c *Client) Transactions(ctx context.Context, accountID string, since time.Time) ([]Transaction, error) {
	var out []Transaction
	cursor := ""
	for {
		query := url.Values{}
		query.Set("start", since.UTC().Format(time.RFC3339))
		if cursor != "" {
			query.Set("cursor", cursor)
		}
		path := fmt.Sprintf("/accounts/%s/transactions?%s", url.PathEscape(accountID), query.Encode())

		var resp transactionsResponse
		if err := c.http.Get(ctx, path, &resp); err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, errors.NewAPIError(accounts.PlatformAkahu.String(), 0, resp.Message)
		}

		out = append(out, resp.Items...)
		if resp.Cursor.Next == "" {
			return out, nil
		}
		cursor = resp.Cursor.Next
	}
}
