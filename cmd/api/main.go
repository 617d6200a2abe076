package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"foyer/internal/config"
	"foyer/internal/exporter"
	transporthttp "foyer/internal/http"
	"foyer/internal/idp"
	"foyer/internal/lifecycle"
	"foyer/internal/metrics"
	"foyer/internal/platform/database"
	"foyer/internal/platform/logging"
	"foyer/internal/platform/migrate"
	"foyer/internal/prefs"
	"foyer/internal/session"
	"foyer/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	storage, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	idpClient := idp.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey)
	prefsService := prefs.NewService(storage.prefs)
	tasksService := tasks.NewService(storage.tasks)
	processor := lifecycle.NewProcessor(prefsService, tasksService, storage.ledger, logger)
	hub := session.NewHub()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	cookies := transporthttp.NewCookieConfig(cfg.Environment, cfg.SessionTTL)

	var ssoHandler *transporthttp.SSOHandler
	if cfg.SSOEnabled() {
		sso, err := idp.NewSSOAuthenticator(ctx, cfg.IdentityURL, cfg.SSOClientID, cfg.SSOClientSecret, cfg.SiteURL+"/auth/sso/callback")
		if err != nil {
			logger.Error("failed to configure sso", "error", err)
			os.Exit(1)
		}
		ssoHandler = transporthttp.NewSSOHandler(sso, collector, cookies, logger)
	}

	pages, err := transporthttp.NewPagesHandler(idpClient, prefsService, tasksService, collector, cfg.SessionCheckTimeout, cfg.SSOEnabled(), logger)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	router := transporthttp.NewRouter(cfg, transporthttp.Handlers{
		Pages:    pages,
		Auth:     transporthttp.NewAuthHandler(idpClient, hub, collector, cookies, logger),
		SSO:      ssoHandler,
		Session:  transporthttp.NewSessionHandler(idpClient, cfg.SessionCheckTimeout, collector),
		Events:   transporthttp.NewEventsHandler(idpClient, hub, collector, cfg.SessionCheckTimeout, cfg.StreamRefreshInterval, cfg.AllowedOrigins, logger),
		Prefs:    transporthttp.NewPrefsHandler(prefsService, logger),
		Tasks:    transporthttp.NewTasksHandler(tasksService, exporter.NewCSVExporter(), logger),
		Webhook:  transporthttp.NewWebhookHandler(lifecycle.NewVerifier(cfg.WebhookSecret), processor, collector, logger),
		Metrics:  metrics.Handler(registry),
		Checker:  idpClient,
		Recorder: collector,
	}, logger)

	go runLedgerCleanup(ctx, lifecycle.NewCleanupJob(storage.ledger, logger), logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Foyer listening", "addr", srv.Addr, "store", cfg.DataStore, "sso", cfg.SSOEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// stores bundles the persistence seams chosen by DATA_STORE.
type stores struct {
	prefs  prefs.Repository
	tasks  tasks.Repository
	ledger lifecycle.Ledger
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		return stores{
			prefs:  prefs.NewInMemoryRepository(),
			tasks:  tasks.NewInMemoryRepository(seedSampleTasks()),
			ledger: lifecycle.NewInMemoryLedger(),
		}, nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return stores{}, nil, err
	}

	logger.Info("connected to postgres")
	return stores{
		prefs:  prefs.NewPostgresRepository(db),
		tasks:  tasks.NewPostgresRepository(db),
		ledger: lifecycle.NewPostgresLedger(db),
	}, cleanup, nil
}

// runLedgerCleanup prunes the webhook ledger once a day.
func runLedgerCleanup(ctx context.Context, job *lifecycle.CleanupJob, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				logger.Error("scheduled ledger cleanup failed", "error", err)
			}
		}
	}
}
