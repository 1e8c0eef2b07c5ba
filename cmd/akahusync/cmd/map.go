package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/matcher"
)

var (
	mapNoAI           bool
	mapNonInteractive bool
	mapDryRun         bool
)

// mapCmd runs one account-mapping reconciliation cycle.
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Reconcile account mappings against fresh platform snapshots",
	Long: `Fetch the current account lists from Akahu and every enabled target,
fold them into the mapping document, and propose mappings for any Akahu
account that has none yet. Exact name matches are accepted automatically;
ambiguous ones go to the assistant and then to you.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		run, _, err := buildRunner(cfg, runnerOptions{
			noAI:           mapNoAI,
			nonInteractive: mapNonInteractive,
			dryRun:         mapDryRun,
		})
		if err != nil {
			return err
		}

		summary, err := run.Run(cmd.Context())
		if err != nil {
			logging.Error().Err(err).Msg("Mapping run failed")
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s complete\n", summary.RunID)
		if !summary.Changed {
			fmt.Fprintln(out, "No account changes detected.")
		}
		for _, platform := range []accounts.Platform{accounts.PlatformYNAB, accounts.PlatformActual} {
			res, ok := summary.Results[platform]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%s: %d auto, %d ai, %d manual, %d skipped, %d unmapped\n",
				platform,
				res.Count(matcher.OutcomeAuto),
				res.Count(matcher.OutcomeAI),
				res.Count(matcher.OutcomeManual),
				res.Count(matcher.OutcomeSkipped),
				res.Count(matcher.OutcomeUnmapped))
		}
		if summary.DryRun {
			fmt.Fprintln(out, "Dry run: nothing was saved.")
		}
		return nil
	},
}

func init() {
	mapCmd.Flags().BoolVar(&mapNoAI, "no-ai", false, "disable the disambiguation assistant")
	mapCmd.Flags().BoolVar(&mapNonInteractive, "non-interactive", false, "never prompt; leave ambiguous accounts unmapped")
	mapCmd.Flags().BoolVar(&mapDryRun, "dry-run", false, "report what would change without saving")
	rootCmd.AddCommand(mapCmd)
}
