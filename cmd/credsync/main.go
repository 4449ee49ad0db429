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

	adminapiadapter "github.com/teskilatapp/credsync/internal/adapter/driven/adminapi"
	identityadapter "github.com/teskilatapp/credsync/internal/adapter/driven/identity"
	sqliteadapter "github.com/teskilatapp/credsync/internal/adapter/driven/sqlite"
	httphandler "github.com/teskilatapp/credsync/internal/adapter/driving/http"
	"github.com/teskilatapp/credsync/internal/application"
	"github.com/teskilatapp/credsync/internal/config"
	"github.com/teskilatapp/credsync/internal/secretbox"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required settings).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"identity_base_url", cfg.IdentityBaseURL,
		"admin_api_base_url", cfg.AdminAPIBaseURL,
		"email_domain", cfg.EmailDomain,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
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

	// 5. Create the encryption codec. Without a key the app still serves
	// reads and health checks, but record writes fail.
	var codec *secretbox.Codec
	if len(cfg.SecretKey) > 0 {
		codec, err = secretbox.New(cfg.SecretKey)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("no secret key configured, credential writes disabled")
	}

	// 6. Wire driven adapters.
	recordStore := sqliteadapter.NewRecordRepo(db, codec)
	entityStore := sqliteadapter.NewEntityRepo(db, codec)
	identityClient := identityadapter.NewClient(cfg.IdentityBaseURL)
	backendClient := adminapiadapter.NewClient(cfg.AdminAPIBaseURL, cfg.ProtectedAccountEmail, cfg.AdminAPITimeout)

	// 7. Sign in the provisioning admin. Sync requests need an admin
	// session; skipping here only defers the failure to the first sync.
	if cfg.HasIdentityCredentials() {
		if _, err := identityClient.SignIn(ctx, cfg.IdentityAdminEmail, cfg.IdentityAdminPassword); err != nil {
			return err
		}
		slog.Info("identity admin signed in", "email", cfg.IdentityAdminEmail)
	} else {
		slog.Warn("no identity admin credentials configured, sync requests will fail until sign-in")
	}

	// 8. Create application services.
	syncSvc := application.NewSyncService(recordStore, identityClient, cfg.EmailDomain, slog.Default())
	orphanSvc := application.NewOrphanService(recordStore, backendClient, slog.Default())
	resetSvc := application.NewLinkResetService(recordStore, slog.Default())
	healthSvc := application.NewHealthService(recordStore)

	// 9. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(recordStore, entityStore, syncSvc, orphanSvc, resetSvc, healthSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("credsync started", "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
