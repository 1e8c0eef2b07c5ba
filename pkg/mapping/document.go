package mapping

import (
	"github.com/agentstation/utc"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
)

// Document is the unit of persistence: three account catalogs plus the
// mapping table, all keyed by stable platform-assigned ids. It is the single
// source of truth for what the operator has already confirmed.
type Document struct {
	AkahuAccounts  accounts.Catalog  `json:"akahu_accounts"`
	ActualAccounts accounts.Catalog  `json:"actual_accounts"`
	YNABAccounts   accounts.Catalog  `json:"ynab_accounts"`
	Mapping        map[string]*Entry `json:"mapping"`
}

// NewDocument returns an empty document suitable for first-run bootstrap.
func NewDocument() *Document {
	return &Document{
		AkahuAccounts:  accounts.Catalog{},
		ActualAccounts: accounts.Catalog{},
		YNABAccounts:   accounts.Catalog{},
		Mapping:        map[string]*Entry{},
	}
}

// Catalog returns the persisted catalog for the given platform.
func (d *Document) Catalog(platform accounts.Platform) accounts.Catalog {
	switch platform {
	case accounts.PlatformAkahu:
		return d.AkahuAccounts
	case accounts.PlatformActual:
		return d.ActualAccounts
	case accounts.PlatformYNAB:
		return d.YNABAccounts
	}
	return nil
}

// SetCatalog replaces the persisted catalog for the given platform.
func (d *Document) SetCatalog(platform accounts.Platform, c accounts.Catalog) {
	switch platform {
	case accounts.PlatformAkahu:
		d.AkahuAccounts = c
	case accounts.PlatformActual:
		d.ActualAccounts = c
	case accounts.PlatformYNAB:
		d.YNABAccounts = c
	}
}

// EnsureStubs creates a pending mapping entry for every active Akahu account
// that has none, so the matcher and the operator always see the full account
// list. Existing entries are left untouched.
func (d *Document) EnsureStubs() int {
	created := 0
	for id, rec := range d.AkahuAccounts {
		if rec.Removed {
			continue
		}
		if _, ok := d.Mapping[id]; ok {
			continue
		}
		d.Mapping[id] = &Entry{
			AkahuAccountID: id,
			AkahuName:      rec.Name,
			CreatedAt:      utc.Now(),
		}
		created++
	}
	return created
}

// BoundTargets returns the set of target account ids already bound on the
// given platform. Used to keep a target account from being matched twice.
func (d *Document) BoundTargets(platform accounts.Platform) map[string]string {
	bound := make(map[string]string)
	for akahuID, entry := range d.Mapping {
		if id := entry.TargetID(platform); id != "" {
			bound[id] = akahuID
		}
	}
	return bound
}

// BackfillBudgetIDs fills in missing budget/workspace id fields on entries
// that already carry the corresponding target account id. This is the
// schema-migration path for documents written before budget ids existed; it
// never changes an account id.
func (d *Document) BackfillBudgetIDs(actualBudgetID, ynabBudgetID string) int {
	filled := 0
	for _, entry := range d.Mapping {
		if entry.ActualAccountID != "" && entry.ActualBudgetID == "" && actualBudgetID != "" {
			entry.ActualBudgetID = actualBudgetID
			filled++
		}
		if entry.YNABAccountID != "" && entry.YNABBudgetID == "" && ynabBudgetID != "" {
			entry.YNABBudgetID = ynabBudgetID
			filled++
		}
	}
	return filled
}

// Validate checks the document invariants: every mapping entry references an
// Akahu account present in the catalog, and no target account id is bound by
// two entries on the same platform.
func (d *Document) Validate() error {
	for akahuID, entry := range d.Mapping {
		if entry.AkahuAccountID != akahuID {
			return &errors.ValidationError{
				Field:   "mapping",
				Value:   akahuID,
				Message: "entry key does not match akahu_account_id " + entry.AkahuAccountID,
			}
		}
		if _, ok := d.AkahuAccounts[akahuID]; !ok {
			return &errors.ValidationError{
				Field:   "mapping",
				Value:   akahuID,
				Message: "entry references unknown akahu account",
			}
		}
	}
	for _, platform := range []accounts.Platform{accounts.PlatformActual, accounts.PlatformYNAB} {
		seen := make(map[string]string)
		for akahuID, entry := range d.Mapping {
			target := entry.TargetID(platform)
			if target == "" {
				continue
			}
			if other, dup := seen[target]; dup {
				return &errors.ValidationError{
					Field:   string(platform) + "_account_id",
					Value:   target,
					Message: "bound by both " + other + " and " + akahuID,
				}
			}
			seen[target] = akahuID
		}
	}
	return nil
}

// stripSeq removes run-local sequence/cursor fields from catalog metadata so
// pagination state never gets committed to durable state.
func (d *Document) stripSeq() {
	for _, catalog := range []accounts.Catalog{d.AkahuAccounts, d.ActualAccounts, d.YNABAccounts} {
		for id, rec := range catalog {
			if rec.Raw == nil {
				continue
			}
			if _, ok := rec.Raw["seq"]; ok {
				delete(rec.Raw, "seq")
				catalog[id] = rec
			}
		}
	}
}
