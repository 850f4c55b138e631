package main

import (
	"context"
	"errors"
	"os"
	"time"

	"wisetogether/internal/amqp"
	"wisetogether/internal/backend"
	"wisetogether/internal/cli"
	"wisetogether/internal/config"
	"wisetogether/internal/log"
	"wisetogether/internal/sheets"
	"wisetogether/internal/sheets/google"
	"wisetogether/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting wisetogether-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker consumes events; it does not publish them.
	backendCfg.AMQPURL = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	var ledger sheets.LedgerExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", client.SheetName())
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	w := worker.NewEventWorker(res.Backend.Transactions, res.Backend.Accounts, ledger, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		cancel()
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close failed", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	go func() {
		if err := amqpClient.ConsumeTransactionEvents(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
