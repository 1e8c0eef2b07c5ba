package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/akahusync/akahusync/internal/server"
)

var serveListen string

// serveCmd runs the webhook/trigger daemon. Serve mode is always
// non-interactive: ambiguous accounts stay unmapped until an operator runs
// the map command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP daemon for webhooks and manual sync triggers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.ListenAddr = serveListen
		}

		run, store, err := buildRunner(cfg, runnerOptions{nonInteractive: true})
		if err != nil {
			return err
		}
		syncer := buildSyncer(cfg, nil, false)

		srv := server.New(cfg.ListenAddr, run, store, server.WithSyncer(syncer))
		if err := srv.Serve(cmd.Context()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "bind address (default from LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
