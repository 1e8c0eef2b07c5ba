// Package reconciler folds freshly fetched account snapshots into the
// persisted mapping document. It detects added, removed and renamed accounts
// per platform, soft-removes accounts that disappeared, and leaves existing
// mapping entries untouched apart from the additive budget-id backfill.
package reconciler

import (
	"github.com/agentstation/utc"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
)

// Snapshots carries one freshly fetched catalog per platform. A nil catalog
// means the platform was not fetched this run (target disabled) and its
// persisted state is carried forward unchanged.
type Snapshots struct {
	Akahu  accounts.Catalog
	Actual accounts.Catalog
	YNAB   accounts.Catalog
}

// PlatformStats counts the outcome of merging one platform's snapshot.
type PlatformStats struct {
	Added     int
	Removed   int
	Refreshed int
	Renamed   int
}

// Stats summarizes a merge.
type Stats struct {
	Platforms    map[accounts.Platform]PlatformStats
	StubsCreated int
	BudgetIDsSet int
}

// Reconciler merges fetched snapshots into the persisted document.
type Reconciler interface {
	// Merge folds the fresh snapshots into doc in place and returns what
	// happened. The updated catalogs become the persisted snapshots for
	// the next cycle.
	Merge(doc *mapping.Document, fresh Snapshots) Stats
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	actualBudgetID string
	ynabBudgetID   string
	now            func() utc.Time
}

// Option configures a Reconciler.
type Option func(*reconciler)

// WithActualBudgetID sets the Actual Budget sync id used for backfill.
func WithActualBudgetID(id string) Option {
	return func(r *reconciler) { r.actualBudgetID = id }
}

// WithYNABBudgetID sets the YNAB budget id used for backfill.
func WithYNABBudgetID(id string) Option {
	return func(r *reconciler) { r.ynabBudgetID = id }
}

// withClock overrides the timestamp source in tests.
func withClock(now func() utc.Time) Option {
	return func(r *reconciler) { r.now = now }
}

// New creates a Reconciler.
func New(opts ...Option) Reconciler {
	r := &reconciler{now: utc.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Merge implements Reconciler.
func (r *reconciler) Merge(doc *mapping.Document, fresh Snapshots) Stats {
	stats := Stats{Platforms: map[accounts.Platform]PlatformStats{}}

	for platform, snapshot := range map[accounts.Platform]accounts.Catalog{
		accounts.PlatformAkahu:  fresh.Akahu,
		accounts.PlatformActual: fresh.Actual,
		accounts.PlatformYNAB:   fresh.YNAB,
	} {
		if snapshot == nil {
			continue
		}
		merged, ps := r.mergeCatalog(doc.Catalog(platform), snapshot)
		doc.SetCatalog(platform, merged)
		stats.Platforms[platform] = ps

		logging.Debug().
			Str("platform", string(platform)).
			Int("added", ps.Added).
			Int("removed", ps.Removed).
			Int("renamed", ps.Renamed).
			Msg("Merged platform snapshot")
	}

	// Keep cached display names on entries in step with Akahu renames.
	for id, entry := range doc.Mapping {
		if rec, ok := doc.AkahuAccounts[id]; ok && !rec.Removed && rec.Name != entry.AkahuName {
			entry.AkahuName = rec.Name
		}
	}

	stats.StubsCreated = doc.EnsureStubs()
	stats.BudgetIDsSet = doc.BackfillBudgetIDs(r.actualBudgetID, r.ynabBudgetID)

	return stats
}

// mergeCatalog unions the existing catalog with a fresh snapshot. Accounts
// present in both are refreshed from the snapshot; accounts only in the
// snapshot are added; accounts only in the existing catalog are retained
// with the removed marker so mapping entries referencing them stay
// inspectable.
func (r *reconciler) mergeCatalog(existing, fresh accounts.Catalog) (accounts.Catalog, PlatformStats) {
	var stats PlatformStats
	now := r.now()
	merged := make(accounts.Catalog, len(fresh)+len(existing))

	for id, rec := range fresh {
		rec.Removed = false
		rec.FetchedAt = &now
		if prev, ok := existing[id]; ok {
			if prev.Name != rec.Name {
				stats.Renamed++
			}
			if prev.Removed {
				// Account came back after a soft removal.
				stats.Added++
			} else {
				stats.Refreshed++
			}
		} else {
			stats.Added++
		}
		merged[id] = rec
	}

	for id, rec := range existing {
		if _, ok := fresh[id]; ok {
			continue
		}
		if !rec.Removed {
			stats.Removed++
			logging.Warn().
				Str("account_id", id).
				Str("name", rec.Name).
				Msg("Account absent from fetch, marking removed")
		}
		rec.Removed = true
		merged[id] = rec
	}

	return merged, stats
}
