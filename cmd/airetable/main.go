package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	airtableadapter "github.com/TejAtParkourOps/Airetable/internal/adapter/driven/airtable"
	sqliteadapter "github.com/TejAtParkourOps/Airetable/internal/adapter/driven/sqlite"
	httphandler "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/http"
	rpchandler "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/rpc"
	webhandler "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/web"
	"github.com/TejAtParkourOps/Airetable/internal/application"
	"github.com/TejAtParkourOps/Airetable/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr(),
		"db_path", cfg.DBPath,
		"airtable_api_url", cfg.AirtableAPIURL,
		"notification_url", cfg.NotificationURL,
		"http_timeout", cfg.HTTPTimeout,
	)
	if problem := cfg.NotificationURLProblem(); problem != "" {
		slog.Warn("Airtable will not be able to deliver webhook notifications; set AIRETABLE_NOTIFICATION_URL to a public https URL",
			"notification_url", cfg.NotificationURL,
			"reason", problem,
		)
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	entryStore := sqliteadapter.NewWebhookEntryRepo(db)
	if cfg.SecretKey != nil {
		entryStore, err = sqliteadapter.NewEncryptedWebhookEntryRepo(db, cfg.SecretKey)
		if err != nil {
			return err
		}
		slog.Info("webhook secrets encrypted at rest")
	} else {
		slog.Warn("AIRETABLE_SECRET_KEY not set, webhook secrets stored in plaintext")
	}
	runStore := sqliteadapter.NewSyncRunRepo(db)
	airtableClient, err := airtableadapter.NewClient(cfg.AirtableAPIURL, cfg.NotificationURL, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	// 6. Create application services.
	mirror := application.NewMirrorCache()
	webhooks := application.NewWebhookManager(airtableClient, entryStore)
	syncSvc := application.NewSyncService(airtableClient, webhooks, mirror, runStore)
	notifications, err := application.NewNotificationService(webhooks, mirror)
	if err != nil {
		return err
	}

	// 7. Register REST, RPC and status page routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(syncSvc, webhooks, notifications, mirror, slog.Default()))
	rpcServer := rpchandler.NewServer(syncSvc, cfg.CORSOrigins, slog.Default())
	rpchandler.RegisterRoutes(mux, rpcServer)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(mirror, webhooks, syncSvc, slog.Default()))

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	// No WriteTimeout: full-base syncs and /rpc connections are long-lived.
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(rpcServer.Close)

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("airetable started", "listen_addr", cfg.ListenAddr())

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout. In-flight REST syncs drain;
	// hijacked /rpc connections are ended by rpcServer.Close.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
