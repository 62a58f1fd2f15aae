package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/draft-ledger/internal/api"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/config"
)

var listenAddr string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review/approval HTTP API",
	Long: `Serve the draft review workflow over HTTP.

Endpoints cover draft creation, suggestion selection, approval, export,
dictionary corrections and the audit history of every entity.

Example:
  draft-ledger serve
  draft-ledger serve --listen :9090`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides LEDGER_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}

	svc, err := buildServices(cfg)
	exitOnError(err, "failed to initialize services")
	defer svc.Close()

	deps := api.Deps{
		Lifecycle:  svc.lifecycle,
		Learning:   svc.learning,
		Engine:     svc.engine,
		Drafts:     svc.drafts,
		Dictionary: svc.dictionary,
	}
	// Deps.Extractor must stay a nil interface when no extraction service
	// is configured, not an interface holding a nil client.
	if svc.extractor != nil {
		deps.Extractor = svc.extractor
	}
	router := api.NewRouter(deps)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", cfg.Server.Addr, "backend", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
}
