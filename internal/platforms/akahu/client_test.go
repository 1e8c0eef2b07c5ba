package akahu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/pkg/accounts"
)

func TestAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "app-token", r.Header.Get("X-Akahu-ID"))

		_, _ = w.Write([]byte(`{
			"success": true,
			"items": [
				{
					"_id": "acc_1",
					"name": "Everyday",
					"type": "CHECKING",
					"status": "ACTIVE",
					"balance": {"current": 1234.56, "currency": "NZD"},
					"connection": {"name": "ANZ"}
				},
				{
					"_id": "acc_2",
					"name": "Visa",
					"type": "CREDIT",
					"status": "ACTIVE",
					"balance": {"current": -89.95, "currency": "NZD"},
					"connection": {"name": "ANZ"}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "user-token", "app-token")
	catalog, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	everyday := catalog["acc_1"]
	assert.Equal(t, "Everyday", everyday.Name)
	assert.Equal(t, accounts.TypeChecking, everyday.Type)
	assert.Equal(t, int64(123456), everyday.Balance)
	assert.Equal(t, "ANZ", everyday.Raw["connection"])
	require.NotNil(t, everyday.FetchedAt)

	visa := catalog["acc_2"]
	assert.Equal(t, accounts.TypeCredit, visa.Type)
	assert.Equal(t, int64(-8995), visa.Balance)
}

func TestAccountsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "token revoked"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "a")
	_, err := c.Accounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token revoked")
}

func TestTransactionsFollowsCursor(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc_1/transactions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("start"))

		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		if cursor == "" {
			_, _ = w.Write([]byte(`{
				"success": true,
				"items": [{"_id": "tx_1", "_account": "acc_1", "date": "2026-08-20T10:00:00Z", "description": "Coffee", "amount": -4.50}],
				"cursor": {"next": "page2"}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"success": true,
			"items": [{"_id": "tx_2", "_account": "acc_1", "date": "2026-08-21T10:00:00Z", "description": "Groceries", "amount": -87.20, "merchant": {"name": "Countdown"}}],
			"cursor": {"next": ""}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "a")
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	txs, err := c.Transactions(context.Background(), "acc_1", since)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "page2"}, cursors)
	require.Len(t, txs, 2)
	assert.Equal(t, "tx_1", txs[0].ID)
	assert.Equal(t, "Coffee", txs[0].Payee(), "description used when merchant missing")
	assert.Equal(t, "Countdown", txs[1].Payee())
	assert.Equal(t, "-4.5", txs[0].Amount.String())
}
