package ynab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/pkg/accounts"
)

func TestAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/budgets/budget-1/accounts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"data": {
				"accounts": [
					{"id": "yn_1", "name": "Everyday", "type": "checking", "on_budget": true, "balance": 1234560},
					{"id": "yn_2", "name": "Old", "type": "checking", "closed": true, "balance": 0},
					{"id": "yn_3", "name": "Gone", "type": "checking", "deleted": true, "balance": 0}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "budget-1")
	catalog, err := c.Accounts(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog, 1, "closed and deleted accounts are excluded")
	assert.Equal(t, int64(123456), catalog["yn_1"].Balance, "milliunits convert to minor units")
	assert.Equal(t, accounts.TypeChecking, catalog["yn_1"].Type)
}

func TestCreateTransactions(t *testing.T) {
	var body transactionsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/budgets/budget-1/transactions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"data": {"duplicate_import_ids": ["tx_dup"]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "budget-1")
	created, err := c.CreateTransactions(context.Background(), []Transaction{
		{AccountID: "yn_1", Date: "2026-08-20", Amount: -45000, ImportID: "tx_1"},
		{AccountID: "yn_1", Date: "2026-08-21", Amount: -87200, ImportID: "tx_dup"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, created, "duplicates do not count as created")
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, "tx_1", body.Transactions[0].ImportID)
}

func TestCreateTransactionsEmptyBatch(t *testing.T) {
	c := New("http://unused.invalid", "tok", "budget-1")
	created, err := c.CreateTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, int64(-45000), MinorToMilli(-4500))
	assert.Equal(t, int64(123456), milliToMinor(1234560))
	assert.Equal(t, int64(-123456), milliToMinor(-1234560))
	assert.Equal(t, int64(1), milliToMinor(6))
	assert.Equal(t, int64(0), milliToMinor(4))
}
