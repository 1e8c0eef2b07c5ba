// Package mapping owns the durable mapping document: the three persisted
// account catalogs plus the cross-platform mapping table keyed by Akahu
// account id. The Store is the only component permitted to touch the on-disk
// document; everything else works on in-memory copies within a single run.
package mapping

import (
	"github.com/agentstation/utc"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
)

// MatchMethod records how a target account was bound to an entry.
type MatchMethod string

// Match methods, in decreasing order of human involvement.
const (
	MatchMethodManual MatchMethod = "manual"
	MatchMethodAI     MatchMethod = "ai"
	MatchMethodAuto   MatchMethod = "auto"
)

// Entry binds one Akahu account to its counterpart accounts on the
// budgeting platforms. An entry with a target id set is confirmed for that
// platform and is never overwritten by a later automated match; only the
// budget-id fields may be backfilled after the fact.
type Entry struct {
	AkahuAccountID string `json:"akahu_account_id"`
	AkahuName      string `json:"akahu_name"`

	ActualAccountID string      `json:"actual_account_id,omitempty"`
	ActualBudgetID  string      `json:"actual_budget_id,omitempty"`
	ActualMatchedBy MatchMethod `json:"actual_matched_by,omitempty"`
	ActualDoNotMap  bool        `json:"actual_do_not_map,omitempty"`
	YNABAccountID   string      `json:"ynab_account_id,omitempty"`
	YNABBudgetID    string      `json:"ynab_budget_id,omitempty"`
	YNABMatchedBy   MatchMethod `json:"ynab_matched_by,omitempty"`
	YNABDoNotMap    bool        `json:"ynab_do_not_map,omitempty"`

	CreatedAt       utc.Time  `json:"created_at"`
	LastConfirmedAt *utc.Time `json:"last_confirmed_at,omitempty"`
}

// TargetID returns the bound account id for the given platform, or "".
func (e *Entry) TargetID(platform accounts.Platform) string {
	switch platform {
	case accounts.PlatformActual:
		return e.ActualAccountID
	case accounts.PlatformYNAB:
		return e.YNABAccountID
	}
	return ""
}

// HasTarget reports whether the entry is bound for the given platform.
func (e *Entry) HasTarget(platform accounts.Platform) bool {
	return e.TargetID(platform) != ""
}

// Skipped reports whether the operator declined to map this account on the
// given platform. A skipped account is a terminal outcome, distinct from
// unmapped, and is never re-prompted.
func (e *Entry) Skipped(platform accounts.Platform) bool {
	switch platform {
	case accounts.PlatformActual:
		return e.ActualDoNotMap
	case accounts.PlatformYNAB:
		return e.YNABDoNotMap
	}
	return false
}

// SetTarget binds a target account for the given platform. It refuses to
// overwrite an existing binding: confirmed mappings require explicit
// re-confirmation, which means clearing the field out of band first.
func (e *Entry) SetTarget(platform accounts.Platform, accountID, budgetID string, method MatchMethod) error {
	if e.HasTarget(platform) && e.TargetID(platform) != accountID {
		return &errors.ValidationError{
			Field:   string(platform) + "_account_id",
			Value:   accountID,
			Message: "entry already bound to " + e.TargetID(platform),
		}
	}
	now := utc.Now()
	switch platform {
	case accounts.PlatformActual:
		e.ActualAccountID = accountID
		e.ActualBudgetID = budgetID
		e.ActualMatchedBy = method
		e.ActualDoNotMap = false
	case accounts.PlatformYNAB:
		e.YNABAccountID = accountID
		e.YNABBudgetID = budgetID
		e.YNABMatchedBy = method
		e.YNABDoNotMap = false
	default:
		return &errors.ValidationError{
			Field:   "platform",
			Value:   platform,
			Message: "not a mapping target",
		}
	}
	e.LastConfirmedAt = &now
	return nil
}

// MarkSkip records the explicit "no match" decision for a platform.
func (e *Entry) MarkSkip(platform accounts.Platform) {
	switch platform {
	case accounts.PlatformActual:
		e.ActualDoNotMap = true
	case accounts.PlatformYNAB:
		e.YNABDoNotMap = true
	}
}
