// Package detector compares a freshly fetched account snapshot against the
// previously persisted one. Its only job is to decide, exhaustively, whether
// anything observable changed: a false "unchanged" would let the matcher be
// skipped incorrectly, so every business-relevant field is compared.
package detector

import (
	"sort"

	"github.com/akahusync/akahusync/pkg/accounts"
)

// Result describes what changed for one platform between the persisted
// snapshot and a fresh fetch.
type Result struct {
	Platform  accounts.Platform
	Unchanged bool
	Added     []string // account ids present only in the fresh snapshot
	Removed   []string // account ids absent from the fresh snapshot
	Changed   []string // account ids whose name, type or balance changed
}

// Compare diffs the persisted catalog against a fresh snapshot. Records the
// previous run soft-removed are not expected in the fresh snapshot, so they
// count as present only if they reappear. Platform metadata in Raw is
// excluded: aggregator payloads carry cursor noise that would defeat the
// change-skip optimization without being observable account state.
func Compare(platform accounts.Platform, old, fresh accounts.Catalog) Result {
	result := Result{Platform: platform}

	for id, rec := range fresh {
		existing, ok := activeRecord(old, id)
		if !ok {
			result.Added = append(result.Added, id)
			continue
		}
		if existing.Name != rec.Name || existing.Type != rec.Type || existing.Balance != rec.Balance {
			result.Changed = append(result.Changed, id)
		}
	}

	for id, rec := range old {
		if rec.Removed {
			continue
		}
		if _, ok := fresh[id]; !ok {
			result.Removed = append(result.Removed, id)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Changed)

	result.Unchanged = len(result.Added) == 0 && len(result.Removed) == 0 && len(result.Changed) == 0
	return result
}

// activeRecord looks up a non-removed record in a catalog.
func activeRecord(c accounts.Catalog, id string) (accounts.Record, bool) {
	rec, ok := c[id]
	if !ok || rec.Removed {
		return accounts.Record{}, false
	}
	return rec, true
}

// AllUnchanged reports whether every platform result is unchanged. When true
// the matcher is skipped entirely for the run.
func AllUnchanged(results ...Result) bool {
	for _, r := range results {
		if !r.Unchanged {
			return false
		}
	}
	return true
}
