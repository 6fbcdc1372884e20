package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/export"
	tallyHttp "github.com/MrJamesThe3rd/tally/internal/http"
	exportHandler "github.com/MrJamesThe3rd/tally/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/tally/internal/http/ledger"
	profileHandler "github.com/MrJamesThe3rd/tally/internal/http/profile"
	uploadHandler "github.com/MrJamesThe3rd/tally/internal/http/upload"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/ledger/memstore"
	ledgerStore "github.com/MrJamesThe3rd/tally/internal/ledger/store"
	"github.com/MrJamesThe3rd/tally/internal/logging"
	"github.com/MrJamesThe3rd/tally/internal/metrics"
	"github.com/MrJamesThe3rd/tally/internal/profile"
	profileStore "github.com/MrJamesThe3rd/tally/internal/profile/store"
	"github.com/MrJamesThe3rd/tally/internal/upload"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup, so main is the only place that exits.
func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledgerRepo, profileRepo, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	defer closeStore()

	var recorder *metrics.Metrics
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}

	ledgerOpts := []ledger.Option{}
	if recorder != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithRecorder(recorder))
	}

	var (
		ledgerService  = ledger.NewService(ledgerRepo, ledgerOpts...)
		profileService = profile.NewService(profileRepo)
		uploadService  = upload.NewService(upload.NewDiskStorage(cfg.Upload.Dir), cfg.Upload.PublicURL, cfg.Upload.MaxBytes)
		importService  = importer.NewService(profileService)
		exportService  = export.NewService(ledgerService, nil)
		tokens         = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	)

	router := tallyHttp.New(tallyHttp.Handlers{
		Ledger:   ledgerHandler.NewHandler(ledgerService, cfg.Ledger.Netting, cfg.Ledger.RecentLimit),
		Profiles: profileHandler.NewHandler(profileService, uploadService),
		Import:   importHandler.NewHandler(importService, ledgerService, cfg.Ledger.Netting),
		Uploads:  uploadHandler.NewHandler(uploadService),
		Export:   exportHandler.NewHandler(exportService),
	}, tallyHttp.Options{
		Tokens:         tokens,
		Metrics:        recorder,
		UploadDir:      cfg.Upload.Dir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "store", cfg.Store.Driver, "netting", cfg.Ledger.Netting)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped")

	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (ledger.Repository, profile.Repository, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		store := memstore.New()
		return store, store, func() {}, nil
	}

	db, err := database.New(cfg.ConnectionString(), cfg.DB.MaxOpenConns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	return ledgerStore.New(db), profileStore.New(db), func() { db.Close() }, nil
}
