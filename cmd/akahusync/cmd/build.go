package cmd

import (
	"github.com/akahusync/akahusync/internal/ai"
	"github.com/akahusync/akahusync/internal/config"
	"github.com/akahusync/akahusync/internal/platforms/actual"
	"github.com/akahusync/akahusync/internal/platforms/akahu"
	"github.com/akahusync/akahusync/internal/platforms/ynab"
	"github.com/akahusync/akahusync/internal/runner"
	"github.com/akahusync/akahusync/internal/txsync"
	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/mapping"
	"github.com/akahusync/akahusync/pkg/matcher"
	"github.com/akahusync/akahusync/pkg/reconciler"
)

// runnerOptions controls how a mapping runner is assembled.
type runnerOptions struct {
	noAI           bool
	nonInteractive bool
	dryRun         bool
}

// buildRunner wires the full mapping pipeline from configuration: platform
// clients, matcher, reconciler and store.
func buildRunner(cfg *config.Config, opts runnerOptions) (*runner.Runner, *mapping.Store, error) {
	store := mapping.NewStore(cfg.MappingFile)
	akahuClient := akahu.New(cfg.Akahu.BaseURL, cfg.Akahu.UserToken, cfg.Akahu.AppToken)

	rules, err := matcher.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}

	matchOpts := []matcher.Option{matcher.WithRules(rules)}
	if !opts.nonInteractive {
		matchOpts = append(matchOpts, matcher.WithPrompter(matcher.NewTerminalPrompter()))
	}
	if !opts.noAI && cfg.AIEnabled() {
		var aiOpts []ai.Option
		if cfg.Gemini.Model != "" {
			aiOpts = append(aiOpts, ai.WithModel(cfg.Gemini.Model))
		}
		matchOpts = append(matchOpts, matcher.WithAssistant(ai.NewGemini(cfg.Gemini.APIKey, aiOpts...)))
	}

	var recOpts []reconciler.Option
	runnerOpts := []runner.Option{runner.WithDryRun(opts.dryRun)}

	if cfg.Actual.Enabled {
		client := actual.New(cfg.Actual.ServerURL, cfg.Actual.Password, cfg.Actual.SyncID)
		runnerOpts = append(runnerOpts, runner.WithActual(client))
		recOpts = append(recOpts, reconciler.WithActualBudgetID(cfg.Actual.SyncID))
		matchOpts = append(matchOpts, matcher.WithBudgetID(accounts.PlatformActual, cfg.Actual.SyncID))
	}
	if cfg.YNAB.Enabled {
		client := ynab.New(cfg.YNAB.BaseURL, cfg.YNAB.BearerToken, cfg.YNAB.BudgetID)
		runnerOpts = append(runnerOpts, runner.WithYNAB(client))
		recOpts = append(recOpts, reconciler.WithYNABBudgetID(cfg.YNAB.BudgetID))
		matchOpts = append(matchOpts, matcher.WithBudgetID(accounts.PlatformYNAB, cfg.YNAB.BudgetID))
	}

	run := runner.New(store, akahuClient,
		reconciler.New(recOpts...),
		matcher.New(matchOpts...),
		runnerOpts...)
	return run, store, nil
}

// buildSyncer wires the transaction copier for the enabled targets.
func buildSyncer(cfg *config.Config, accountIDs []string, dryRun bool) *txsync.Syncer {
	akahuClient := akahu.New(cfg.Akahu.BaseURL, cfg.Akahu.UserToken, cfg.Akahu.AppToken)

	syncOpts := []txsync.Option{
		txsync.WithAccounts(accountIDs),
		txsync.WithDryRun(dryRun),
	}
	if cfg.Actual.Enabled {
		syncOpts = append(syncOpts, txsync.WithActual(actual.New(cfg.Actual.ServerURL, cfg.Actual.Password, cfg.Actual.SyncID)))
	}
	if cfg.YNAB.Enabled {
		syncOpts = append(syncOpts, txsync.WithYNAB(ynab.New(cfg.YNAB.BaseURL, cfg.YNAB.BearerToken, cfg.YNAB.BudgetID)))
	}
	return txsync.New(akahuClient, syncOpts...)
}
