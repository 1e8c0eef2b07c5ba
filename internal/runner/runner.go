// Package runner orchestrates one mapping cycle: fetch snapshots from every
// enabled platform, detect changes, merge into the persisted document, match
// unmapped accounts and save. At most one cycle executes at a time; triggers
// arriving mid-cycle coalesce into a single follow-up cycle.
package runner

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/detector"
	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
	"github.com/akahusync/akahusync/pkg/matcher"
	"github.com/akahusync/akahusync/pkg/reconciler"
)

// AccountSource fetches a platform's current account snapshot. A fetch
// failure aborts the cycle: merging a partial snapshot would soft-remove
// accounts that still exist.
type AccountSource interface {
	Accounts(ctx context.Context) (accounts.Catalog, error)
}

// Summary reports what one cycle did.
type Summary struct {
	RunID   string
	Changed bool
	DryRun  bool

	MergeStats reconciler.Stats
	Results    map[accounts.Platform]*matcher.Result
}

// Count totals one outcome across all platforms.
func (s *Summary) Count(outcome matcher.Outcome) int {
	n := 0
	for _, r := range s.Results {
		n += r.Count(outcome)
	}
	return n
}

// Runner executes mapping cycles.
type Runner struct {
	store   *mapping.Store
	akahu   AccountSource
	actual  AccountSource
	ynab    AccountSource
	rec     reconciler.Reconciler
	matcher matcher.Matcher
	dryRun  bool

	mu      sync.Mutex
	running bool
	pending bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithActual enables the Actual Budget target.
func WithActual(source AccountSource) Option {
	return func(r *Runner) { r.actual = source }
}

// WithYNAB enables the YNAB target.
func WithYNAB(source AccountSource) Option {
	return func(r *Runner) { r.ynab = source }
}

// WithDryRun makes cycles report without persisting.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// New creates a Runner. At least one of WithActual/WithYNAB must be set;
// config validation guarantees that before the runner is built.
func New(store *mapping.Store, akahu AccountSource, rec reconciler.Reconciler, m matcher.Matcher, opts ...Option) *Runner {
	r := &Runner{
		store:   store,
		akahu:   akahu,
		rec:     rec,
		matcher: m,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one mapping cycle. If a cycle is already executing the
// trigger is queued onto it and ErrRunInProgress is returned; the executing
// Run call picks the queued trigger up and runs one more cycle before
// returning.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return nil, errors.ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.pending = false
		r.mu.Unlock()
	}()

	for {
		summary, err := r.runOnce(ctx)

		r.mu.Lock()
		again := r.pending && err == nil && ctx.Err() == nil
		r.pending = false
		r.mu.Unlock()

		if !again {
			return summary, err
		}
		logging.Info().Msg("Coalesced trigger queued during run, running again")
	}
}

func (r *Runner) runOnce(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.Ctx(ctx)
	log.Info().Msg("Starting mapping run")

	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	fresh, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	results := []detector.Result{
		detector.Compare(accounts.PlatformAkahu, doc.AkahuAccounts, fresh.Akahu),
	}
	if fresh.Actual != nil {
		results = append(results, detector.Compare(accounts.PlatformActual, doc.ActualAccounts, fresh.Actual))
	}
	if fresh.YNAB != nil {
		results = append(results, detector.Compare(accounts.PlatformYNAB, doc.YNABAccounts, fresh.YNAB))
	}

	summary := &Summary{
		RunID:   runID,
		Changed: !detector.AllUnchanged(results...),
		DryRun:  r.dryRun,
		Results: map[accounts.Platform]*matcher.Result{},
	}

	summary.MergeStats = r.rec.Merge(doc, fresh)

	if summary.Changed || summary.MergeStats.StubsCreated > 0 {
		if err := r.match(ctx, doc, summary); err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("No account changes detected, skipping match")
	}

	if r.dryRun {
		log.Info().Msg("Dry run, not saving mapping document")
		return summary, nil
	}

	if err := r.store.Save(doc); err != nil {
		return nil, err
	}

	log.Info().
		Bool("changed", summary.Changed).
		Int("auto", summary.Count(matcher.OutcomeAuto)).
		Int("ai", summary.Count(matcher.OutcomeAI)).
		Int("manual", summary.Count(matcher.OutcomeManual)).
		Int("skipped", summary.Count(matcher.OutcomeSkipped)).
		Int("unmapped", summary.Count(matcher.OutcomeUnmapped)).
		Msg("Mapping run complete")

	return summary, nil
}

// fetch pulls fresh snapshots from Akahu and every enabled target. Any
// failure aborts the run.
func (r *Runner) fetch(ctx context.Context) (reconciler.Snapshots, error) {
	var fresh reconciler.Snapshots
	var err error

	if fresh.Akahu, err = r.akahu.Accounts(ctx); err != nil {
		return fresh, err
	}
	logging.Ctx(ctx).Info().Int("count", len(fresh.Akahu)).Msg("Fetched Akahu accounts")

	if r.actual != nil {
		if fresh.Actual, err = r.actual.Accounts(ctx); err != nil {
			return fresh, err
		}
		logging.Ctx(ctx).Info().Int("count", len(fresh.Actual)).Msg("Fetched Actual Budget accounts")
	}
	if r.ynab != nil {
		if fresh.YNAB, err = r.ynab.Accounts(ctx); err != nil {
			return fresh, err
		}
		logging.Ctx(ctx).Info().Int("count", len(fresh.YNAB)).Msg("Fetched YNAB accounts")
	}

	return fresh, nil
}

func (r *Runner) match(ctx context.Context, doc *mapping.Document, summary *Summary) error {
	if r.ynab != nil {
		res, err := r.matcher.Match(ctx, doc, accounts.PlatformYNAB)
		if err != nil {
			return err
		}
		summary.Results[accounts.PlatformYNAB] = res
	}
	if r.actual != nil {
		res, err := r.matcher.Match(ctx, doc, accounts.PlatformActual)
		if err != nil {
			return err
		}
		summary.Results[accounts.PlatformActual] = res
	}
	return nil
}
