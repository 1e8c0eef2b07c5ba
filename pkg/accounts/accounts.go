// Package accounts defines the account types shared by every platform
// integration. A platform's snapshot fetcher returns a Catalog of Records
// keyed by the platform-assigned account id; ids are immutable for the
// lifetime of the account while names are not.
package accounts

import (
	"sort"
	"strings"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
)

// Platform identifies one of the three synced financial platforms.
type Platform string

// Known platforms.
const (
	PlatformAkahu  Platform = "akahu"
	PlatformActual Platform = "actual"
	PlatformYNAB   Platform = "ynab"
)

// String returns the platform tag.
func (p Platform) String() string { return string(p) }

// Type classifies an account.
type Type string

// Account types.
const (
	TypeChecking Type = "checking"
	TypeSavings  Type = "savings"
	TypeCredit   Type = "credit"
	TypeOther    Type = "other"
)

// ParseType maps a platform-reported account type onto one of the four
// shared types. Unrecognized values collapse to TypeOther.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checking", "transaction", "everyday", "depository":
		return TypeChecking
	case "savings", "saving":
		return TypeSavings
	case "credit", "creditcard", "credit_card", "loan":
		return TypeCredit
	default:
		return TypeOther
	}
}

// Record is one account as reported by a platform.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    Type   `json:"type,omitempty"`
	Balance int64  `json:"balance"` // minor units (cents)

	// Removed marks an account that disappeared from a fetch. Removed
	// records stay in the catalog so historical mapping entries remain
	// inspectable, but they are excluded from match candidates.
	Removed bool `json:"removed,omitempty"`

	FetchedAt *utc.Time `json:"fetched_at,omitempty"`

	// Raw carries platform metadata verbatim. Run-local cursor fields
	// ("seq") are stripped before the catalog is persisted.
	Raw map[string]any `json:"raw,omitempty"`
}

// Catalog is a platform's account snapshot keyed by account id.
type Catalog map[string]Record

// Active returns the records not marked removed.
func (c Catalog) Active() []Record {
	out := make([]Record, 0, len(c))
	for _, rec := range c {
		if !rec.Removed {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// IDs returns all account ids in the catalog, sorted.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for id, rec := range c {
		if rec.Raw != nil {
			raw := make(map[string]any, len(rec.Raw))
			for k, v := range rec.Raw {
				raw[k] = v
			}
			rec.Raw = raw
		}
		out[id] = rec
	}
	return out
}

// MinorUnits converts a decimal dollar amount reported by a platform API
// into int64 minor units, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MinorUnitsFromFloat converts a float dollar amount into minor units via
// decimal to avoid binary float drift on values like 34.59.
func MinorUnitsFromFloat(amount float64) int64 {
	return MinorUnits(decimal.NewFromFloat(amount))
}

// FormatBalance renders minor units as a dollar string for prompts and logs.
func FormatBalance(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
