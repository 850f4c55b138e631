package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wisetogether/internal/backend"
	"wisetogether/internal/cli"
	"wisetogether/internal/config"
	apphttp "wisetogether/internal/http"
	"wisetogether/internal/log"
	"wisetogether/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	b := res.Backend

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: services.NewTransactionService(b.Transactions, b.Accounts, b.Publisher, logger),
		Accounts:     services.NewSharedAccountService(b.Accounts, b.Profiles, cfg.AppBaseURL, logger),
		Dashboard:    services.NewDashboardService(b.Transactions, b.Accounts, b.Profiles, logger),
		Ready:        b.Ready,
	}, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	logger.Info("Starting wisetogether server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", b.Publisher != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
