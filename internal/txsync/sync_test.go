package txsync

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/internal/platforms/actual"
	"github.com/akahusync/akahusync/internal/platforms/akahu"
	"github.com/akahusync/akahusync/internal/platforms/ynab"
	"github.com/akahusync/akahusync/pkg/accounts"
	apperrors "github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/mapping"
)

type fakeSource struct {
	txs    map[string][]akahu.Transaction
	err    error
	called []string
}

func (f *fakeSource) Transactions(_ context.Context, accountID string, _ time.Time) ([]akahu.Transaction, error) {
	f.called = append(f.called, accountID)
	if f.err != nil {
		return nil, f.err
	}
	return f.txs[accountID], nil
}

type fakeActual struct {
	batches map[string][]actual.Transaction
}

func (f *fakeActual) CreateTransactions(_ context.Context, accountID string, txs []actual.Transaction) (int, error) {
	if f.batches == nil {
		f.batches = map[string][]actual.Transaction{}
	}
	f.batches[accountID] = append(f.batches[accountID], txs...)
	return len(txs), nil
}

type fakeYNAB struct {
	batches [][]ynab.Transaction
}

func (f *fakeYNAB) CreateTransactions(_ context.Context, txs []ynab.Transaction) (int, error) {
	f.batches = append(f.batches, txs)
	return len(txs), nil
}

func tx(id, desc string, amount float64) akahu.Transaction {
	return akahu.Transaction{
		ID:          id,
		AccountID:   "acc_1",
		Date:        time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func testDoc() *mapping.Document {
	doc := mapping.NewDocument()
	doc.AkahuAccounts = accounts.Catalog{
		"acc_1": {ID: "acc_1", Name: "Everyday"},
		"acc_2": {ID: "acc_2", Name: "Unmapped"},
		"acc_3": {ID: "acc_3", Name: "Closed", Removed: true},
	}
	doc.Mapping = map[string]*mapping.Entry{
		"acc_1": {
			AkahuAccountID:  "acc_1",
			AkahuName:       "Everyday",
			ActualAccountID: "ab_1",
			YNABAccountID:   "yn_1",
		},
		"acc_2": {AkahuAccountID: "acc_2", AkahuName: "Unmapped"},
		"acc_3": {AkahuAccountID: "acc_3", AkahuName: "Closed", YNABAccountID: "yn_3"},
	}
	return doc
}

func TestSyncCopiesToBothTargets(t *testing.T) {
	source := &fakeSource{txs: map[string][]akahu.Transaction{
		"acc_1": {tx("tx_1", "Coffee", -4.50)},
	}}
	toActual := &fakeActual{}
	toYNAB := &fakeYNAB{}

	s := New(source, WithActual(toActual), WithYNAB(toYNAB))
	totals, err := s.Sync(context.Background(), testDoc(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Accounts)
	assert.Equal(t, 1, totals.Fetched)
	assert.Equal(t, 1, totals.ActualCreated)
	assert.Equal(t, 1, totals.YNABCreated)

	require.Len(t, toActual.batches["ab_1"], 1)
	got := toActual.batches["ab_1"][0]
	assert.Equal(t, int64(-450), got.Amount)
	assert.Equal(t, "2026-08-20", got.Date)
	assert.Equal(t, "tx_1", got.ImportedID)

	require.Len(t, toYNAB.batches, 1)
	assert.Equal(t, int64(-4500), toYNAB.batches[0][0].Amount, "ynab amounts are milliunits")
	assert.Equal(t, "yn_1", toYNAB.batches[0][0].AccountID)
}

func TestSyncSkipsUnmappedAndRemovedAccounts(t *testing.T) {
	source := &fakeSource{}
	s := New(source, WithYNAB(&fakeYNAB{}))

	totals, err := s.Sync(context.Background(), testDoc(), time.Time{})
	require.NoError(t, err)

	// acc_2 has no target, acc_3 is soft-removed: only acc_1 is visited.
	assert.Equal(t, []string{"acc_1"}, source.called)
	assert.Equal(t, 1, totals.Accounts)
}

func TestSyncAccountFilter(t *testing.T) {
	source := &fakeSource{}
	s := New(source, WithYNAB(&fakeYNAB{}), WithAccounts([]string{"acc_none"}))

	totals, err := s.Sync(context.Background(), testDoc(), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, totals.Accounts)
	assert.Empty(t, source.called)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	source := &fakeSource{txs: map[string][]akahu.Transaction{
		"acc_1": {tx("tx_1", "Coffee", -4.50)},
	}}
	toYNAB := &fakeYNAB{}

	s := New(source, WithYNAB(toYNAB), WithDryRun(true))
	totals, err := s.Sync(context.Background(), testDoc(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Fetched)
	assert.Empty(t, toYNAB.batches)
	assert.Zero(t, totals.YNABCreated)
}

func TestSyncFetchFailureCollected(t *testing.T) {
	source := &fakeSource{err: apperrors.NewAPIError("akahu", 500, "down")}

	s := New(source, WithYNAB(&fakeYNAB{}))
	totals, err := s.Sync(context.Background(), testDoc(), time.Time{})

	require.Error(t, err)
	assert.Equal(t, []string{"acc_1"}, totals.Failed)
	var syncErr *apperrors.SyncError
	assert.ErrorAs(t, err, &syncErr)
}
