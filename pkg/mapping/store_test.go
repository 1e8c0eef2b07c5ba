package mapping

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/pkg/accounts"
	apperrors "github.com/akahusync/akahusync/pkg/errors"
)

func testDocument() *Document {
	doc := NewDocument()
	doc.AkahuAccounts = accounts.Catalog{
		"acc_1": {ID: "acc_1", Name: "Everyday", Type: accounts.TypeChecking, Balance: 1050},
	}
	doc.YNABAccounts = accounts.Catalog{
		"yn_1": {ID: "yn_1", Name: "Everyday", Type: accounts.TypeChecking, Balance: 1050},
	}
	doc.EnsureStubs()
	return doc
}

func TestStoreLoadBootstrap(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "mapping.json"))

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.AkahuAccounts)
	assert.Empty(t, doc.Mapping)
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mapping.json")
	store := NewStore(path)

	doc := testDocument()
	require.NoError(t, doc.Mapping["acc_1"].SetTarget(accounts.PlatformYNAB, "yn_1", "budget-1", MatchMethodManual))
	require.NoError(t, store.Save(doc))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "yn_1", loaded.Mapping["acc_1"].YNABAccountID)
	assert.Equal(t, "budget-1", loaded.Mapping["acc_1"].YNABBudgetID)
	assert.Equal(t, MatchMethodManual, loaded.Mapping["acc_1"].YNABMatchedBy)
	assert.Equal(t, int64(1050), loaded.AkahuAccounts["acc_1"].Balance)
}

func TestStoreLoadMalformedFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	require.Error(t, err)
	var storeErr *apperrors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "load", storeErr.Operation)
}

func TestStoreLoadOlderDocumentWithMissingMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"akahu_accounts": {}}`), 0o644))

	doc, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.NotNil(t, doc.Mapping)
	assert.NotNil(t, doc.YNABAccounts)
}

func TestStoreSaveStripsSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	store := NewStore(path)

	doc := testDocument()
	rec := doc.AkahuAccounts["acc_1"]
	rec.Raw = map[string]any{"seq": 42, "connection": "ANZ"}
	doc.AkahuAccounts["acc_1"] = rec
	require.NoError(t, store.Save(doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"seq"`)
	assert.Contains(t, string(data), `"connection"`)
}

func TestStoreSaveRejectsDuplicateTargets(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "mapping.json"))

	doc := NewDocument()
	doc.AkahuAccounts = accounts.Catalog{
		"acc_1": {ID: "acc_1", Name: "One"},
		"acc_2": {ID: "acc_2", Name: "Two"},
	}
	doc.EnsureStubs()
	doc.Mapping["acc_1"].YNABAccountID = "yn_1"
	doc.Mapping["acc_2"].YNABAccountID = "yn_1"

	err := store.Save(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStoreSaveAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	store := NewStore(path)

	require.NoError(t, store.Save(testDocument()))

	doc := testDocument()
	doc.AkahuAccounts["acc_2"] = accounts.Record{ID: "acc_2", Name: "Savings"}
	doc.EnsureStubs()
	require.NoError(t, store.Save(doc))

	// No temp files left behind, and the document is valid JSON.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
}
