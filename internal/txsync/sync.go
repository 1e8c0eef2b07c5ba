// Package txsync copies settled Akahu transactions to the targets of
// confirmed mapping entries. It is deliberately a thin copier: amount, date
// and payee only, deduplicated by the Akahu transaction id carried as the
// target's import id.
package txsync

import (
	"context"
	"sort"
	"time"

	"github.com/akahusync/akahusync/internal/platforms/actual"
	"github.com/akahusync/akahusync/internal/platforms/akahu"
	"github.com/akahusync/akahusync/internal/platforms/ynab"
	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
)

// DefaultLookback bounds how far back a sync reaches when no explicit since
// time is given. Import-id dedup makes overlap harmless.
const DefaultLookback = 7 * 24 * time.Hour

const dateLayout = "2006-01-02"

// TransactionSource lists settled transactions for one Akahu account.
type TransactionSource interface {
	Transactions(ctx context.Context, accountID string, since time.Time) ([]akahu.Transaction, error)
}

// ActualTarget creates transactions in one Actual Budget account.
type ActualTarget interface {
	CreateTransactions(ctx context.Context, accountID string, txs []actual.Transaction) (int, error)
}

// YNABTarget creates transactions in a YNAB budget.
type YNABTarget interface {
	CreateTransactions(ctx context.Context, txs []ynab.Transaction) (int, error)
}

// Totals summarizes one sync pass.
type Totals struct {
	Accounts      int // mapped accounts visited
	Fetched       int // Akahu transactions fetched
	ActualCreated int
	YNABCreated   int
	Failed        []string // akahu account ids whose sync failed
}

// Syncer copies transactions for confirmed mappings.
type Syncer struct {
	source TransactionSource
	actual ActualTarget
	ynab   YNABTarget
	filter map[string]bool
	dryRun bool
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithActual enables copying to Actual Budget.
func WithActual(target ActualTarget) Option {
	return func(s *Syncer) { s.actual = target }
}

// WithYNAB enables copying to YNAB.
func WithYNAB(target YNABTarget) Option {
	return func(s *Syncer) { s.ynab = target }
}

// WithAccounts restricts the sync to the given Akahu account ids.
func WithAccounts(ids []string) Option {
	return func(s *Syncer) {
		if len(ids) == 0 {
			return
		}
		s.filter = make(map[string]bool, len(ids))
		for _, id := range ids {
			s.filter[id] = true
		}
	}
}

// WithDryRun makes the pass fetch and report without writing to targets.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) { s.dryRun = dryRun }
}

// New creates a Syncer.
func New(source TransactionSource, opts ...Option) *Syncer {
	s := &Syncer{source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync copies transactions since the given time for every confirmed mapping
// entry. A zero since falls back to DefaultLookback. Per-account failures
// are logged and collected; the rest of the accounts still sync.
func (s *Syncer) Sync(ctx context.Context, doc *mapping.Document, since time.Time) (*Totals, error) {
	if since.IsZero() {
		since = time.Now().Add(-DefaultLookback)
	}

	ids := make([]string, 0, len(doc.Mapping))
	for id := range doc.Mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	totals := &Totals{}
	for _, id := range ids {
		entry := doc.Mapping[id]
		if s.filter != nil && !s.filter[id] {
			continue
		}
		if rec, ok := doc.AkahuAccounts[id]; !ok || rec.Removed {
			continue
		}

		toActual := s.actual != nil && entry.HasTarget(accounts.PlatformActual)
		toYNAB := s.ynab != nil && entry.HasTarget(accounts.PlatformYNAB)
		if !toActual && !toYNAB {
			continue
		}
		totals.Accounts++

		if err := s.syncAccount(ctx, entry, since, toActual, toYNAB, totals); err != nil {
			totals.Failed = append(totals.Failed, id)
			logging.Ctx(ctx).Error().
				Err(err).
				Str("akahu_account", entry.AkahuName).
				Msg("Account sync failed")
		}
	}

	if len(totals.Failed) > 0 {
		return totals, &errors.SyncError{
			Platform: "akahu",
			Accounts: totals.Failed,
			Err:      errors.New("one or more accounts failed to sync"),
		}
	}
	return totals, nil
}

func (s *Syncer) syncAccount(ctx context.Context, entry *mapping.Entry, since time.Time, toActual, toYNAB bool, totals *Totals) error {
	txs, err := s.source.Transactions(ctx, entry.AkahuAccountID, since)
	if err != nil {
		return err
	}
	totals.Fetched += len(txs)
	if len(txs) == 0 {
		return nil
	}

	log := logging.Ctx(ctx)
	if s.dryRun {
		log.Info().
			Str("akahu_account", entry.AkahuName).
			Int("transactions", len(txs)).
			Msg("Dry run, not writing transactions")
		return nil
	}

	if toActual {
		batch := make([]actual.Transaction, len(txs))
		for i, t := range txs {
			batch[i] = actual.Transaction{
				Account:    entry.ActualAccountID,
				Date:       t.Date.Format(dateLayout),
				Amount:     accounts.MinorUnits(t.Amount),
				PayeeName:  t.Payee(),
				Notes:      t.Description,
				ImportedID: t.ID,
				Cleared:    true,
			}
		}
		created, err := s.actual.CreateTransactions(ctx, entry.ActualAccountID, batch)
		if err != nil {
			return err
		}
		totals.ActualCreated += created
	}

	if toYNAB {
		batch := make([]ynab.Transaction, len(txs))
		for i, t := range txs {
			batch[i] = ynab.Transaction{
				AccountID: entry.YNABAccountID,
				Date:      t.Date.Format(dateLayout),
				Amount:    ynab.MinorToMilli(accounts.MinorUnits(t.Amount)),
				PayeeName: t.Payee(),
				Memo:      t.Description,
				Cleared:   "cleared",
				Approved:  false,
				ImportID:  t.ID,
			}
		}
		created, err := s.ynab.CreateTransactions(ctx, batch)
		if err != nil {
			return err
		}
		totals.YNABCreated += created
	}

	return nil
}
