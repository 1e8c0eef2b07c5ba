package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
)

var (
	syncAccounts string
	syncSince    string
	syncDryRun   bool
)

// syncCmd copies transactions for confirmed mappings.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy settled Akahu transactions to the mapped budget accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var since time.Time
		if syncSince != "" {
			since, err = parseSince(syncSince)
			if err != nil {
				return err
			}
		}

		var accountIDs []string
		if syncAccounts != "" {
			for _, id := range strings.Split(syncAccounts, ",") {
				if id = strings.TrimSpace(id); id != "" {
					accountIDs = append(accountIDs, id)
				}
			}
		}

		store := mapping.NewStore(cfg.MappingFile)
		doc, err := store.Load()
		if err != nil {
			return err
		}

		syncer := buildSyncer(cfg, accountIDs, syncDryRun)
		totals, err := syncer.Sync(cmd.Context(), doc, since)
		if totals != nil {
			fmt.Fprintf(cmd.OutOrStdout(),
				"Synced %d accounts: %d transactions fetched, %d created in Actual, %d created in YNAB\n",
				totals.Accounts, totals.Fetched, totals.ActualCreated, totals.YNABCreated)
		}
		if err != nil {
			logging.Error().Err(err).Msg("Transaction sync finished with failures")
			return err
		}
		return nil
	},
}

// parseSince accepts a date or an RFC 3339 timestamp.
func parseSince(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &errors.ValidationError{
		Field:   "since",
		Value:   s,
		Message: "expected YYYY-MM-DD or RFC 3339",
	}
}

func init() {
	syncCmd.Flags().StringVar(&syncAccounts, "accounts", "", "comma-separated Akahu account ids to sync (default: all mapped)")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "sync transactions on or after this date")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and report without writing to targets")
	rootCmd.AddCommand(syncCmd)
}
