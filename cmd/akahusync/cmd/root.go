// Package cmd implements the akahusync command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akahusync/akahusync/internal/config"
)

var (
	verbose     bool
	mappingFile string
	rulesFile   string

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "akahusync",
	Short: "Keep Akahu, Actual Budget and YNAB accounts in sync",
	Long: `Akahusync keeps one household's bank accounts consistent across three
platforms: Akahu (the read-only bank aggregator), Actual Budget and YNAB.

It maintains a durable mapping document binding each Akahu account to its
counterpart budget accounts, reconciles that document against fresh account
snapshots, and copies settled transactions to the mapped accounts.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and runs it with a
// signal-aware context so in-flight mapping saves finish before exit.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&mappingFile, "mapping-file", "", "path of the mapping document (default from MAPPING_FILE)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules-file", "", "path of the matcher rules YAML (default from MATCH_RULES_FILE)")

	rootCmd.SilenceUsage = true
}

// loadConfig loads the validated configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if mappingFile != "" {
		cfg.MappingFile = mappingFile
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	return cfg, nil
}
