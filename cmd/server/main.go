package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/tablegest/internal/api"
	"github.com/dgallion1/tablegest/internal/cleanup"
	"github.com/dgallion1/tablegest/internal/config"
	"github.com/dgallion1/tablegest/internal/parser"
	"github.com/dgallion1/tablegest/internal/pathstore"
	"github.com/dgallion1/tablegest/internal/pipeline"
	"github.com/dgallion1/tablegest/internal/store"
	"github.com/dgallion1/tablegest/internal/tables"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage and the cleanup backend.
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open result store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	backend, err := cleanup.NewBackend(cleanup.Options{
		Provider: cfg.CleanupProvider,
		URL:      cfg.CleanupURL,
		Model:    cfg.CleanupModel,
		APIKey:   cfg.CleanupAPIKey,
	})
	if err != nil {
		log.Error("invalid cleanup backend", "error", err)
		os.Exit(1)
	}
	cleaner := cleanup.NewAdapter(backend, cfg.CleanupTimeout, cleanup.NewLLMStats(time.Hour), log.With("component", "cleanup")).
		WithBatchTokens(cfg.CleanupBatchTokens)

	// Initialize pipeline.
	extractor := tables.NewExtractor(tables.Config{
		IntersectionTolerance: cfg.IntersectionTolerance,
		SnapTolerance:         cfg.SnapTolerance,
		TextTolerance:         cfg.TextTolerance,
		MinTextRows:           cfg.MinTextRows,
		PageWorkers:           cfg.PageWorkers,
	}, log.With("component", "tables"))
	proc := pipeline.NewProcessor(parser.Options{LineTolerance: cfg.TextTolerance}, extractor, cleaner, st, log)
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:       cfg.WorkerCount,
		MaxQueueSize:      cfg.MaxQueueSize,
		MaxConcurrentDocs: cfg.MaxConcurrentDocs,
		JobTTL:            cfg.JobTTL,
	}, proc, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, st, cleaner, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		st.Close()
	}()

	provider := "none"
	if cleaner.Enabled() {
		provider = backend.Name()
	}
	log.Info("starting tablegest", "port", cfg.Port, "store", cfg.StoreBackend, "cleanup", provider)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	case "pathstore":
		return store.NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
