// Package server is the daemon shell: a small HTTP surface for triggering
// runs, receiving Akahu webhooks and inspecting the mapping document.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akahusync/akahusync/internal/runner"
	"github.com/akahusync/akahusync/internal/txsync"
	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests. Saves
// to the mapping store are not interrupted; they finish inside the handler.
const shutdownTimeout = 15 * time.Second

// Server serves the daemon HTTP surface.
type Server struct {
	runner *runner.Runner
	syncer *txsync.Syncer
	store  *mapping.Store
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithSyncer enables transaction sync after each triggered run.
func WithSyncer(s *txsync.Syncer) Option {
	return func(srv *Server) { srv.syncer = s }
}

// New creates a Server bound to the given address.
func New(addr string, run *runner.Runner, store *mapping.Store, opts ...Option) *Server {
	srv := &Server{
		runner: run,
		store:  store,
	}
	for _, opt := range opts {
		opt(srv)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	mux.HandleFunc("GET /mapping", srv.handleMapping)
	mux.HandleFunc("POST /sync", srv.handleSync)
	mux.HandleFunc("POST /webhook", srv.handleWebhook)

	srv.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	logging.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logging.Info().Msg("Shutting down HTTP server")
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load mapping document")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load mapping document"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleSync triggers a full run synchronously and reports its summary.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.trigger(r.Context())
	switch {
	case errors.IsRunInProgress(err):
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case err != nil:
		logging.Error().Err(err).Msg("Triggered run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"run_id": summary.RunID,
		})
	}
}

// webhookPayload is the subset of Akahu's webhook body the handler cares
// about. Signature verification is out of scope; the payload shape is
// validated and everything else is treated as an opaque trigger.
type webhookPayload struct {
	WebhookType string `json:"webhook_type"`
	Type        string `json:"type"`
	ItemID      string `json:"item_id"`
}

// handleWebhook acknowledges immediately and runs in the background; Akahu
// retries webhooks that do not answer quickly.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.WebhookType == "" && payload.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing webhook type"})
		return
	}

	requestID := uuid.NewString()
	logging.Info().
		Str("request_id", requestID).
		Str("webhook_type", payload.WebhookType).
		Str("item_id", payload.ItemID).
		Msg("Webhook received")

	go func() {
		ctx := logging.WithRunID(context.Background(), requestID)
		if _, err := s.trigger(ctx); err != nil && !errors.IsRunInProgress(err) {
			logging.Error().Err(err).Str("request_id", requestID).Msg("Webhook-triggered run failed")
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted", "request_id": requestID})
}

// trigger runs one mapping cycle and, when configured, a transaction sync
// on the saved document.
func (s *Server) trigger(ctx context.Context) (*runner.Summary, error) {
	summary, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	if s.syncer != nil {
		doc, err := s.store.Load()
		if err != nil {
			return summary, err
		}
		totals, err := s.syncer.Sync(ctx, doc, time.Time{})
		if err != nil {
			// Partial sync failures are reported but do not fail the
			// trigger; the mapping run itself succeeded.
			logging.Warn().Err(err).Msg("Transaction sync finished with failures")
		}
		if totals != nil {
			logging.Info().
				Int("accounts", totals.Accounts).
				Int("actual_created", totals.ActualCreated).
				Int("ynab_created", totals.YNABCreated).
				Msg("Transaction sync complete")
		}
	}

	return summary, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("Failed to encode response")
	}
}
