package main

import (
	"context"
	"errors"
	"os"
	"time"

	"opsdeck/internal/amqp"
	"opsdeck/internal/cli"
	"opsdeck/internal/ports"
	gsheet "opsdeck/internal/sheets/google"
	"opsdeck/internal/services"
	"opsdeck/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()

	logger.Info("Starting opsdeck-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Without a spreadsheet the processor marks payments exported
	// locally, so the worker still drains the queue.
	var exporter ports.LedgerExporter
	if cfg.SheetsConfigured() {
		sheetsClient, err := gsheet.NewClient(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = sheetsClient
		logger.Info("Google Sheets ledger export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled, payments marked exported locally")
	}

	var consumer worker.Consumer
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, running reconcile loop only", "error", err)
	} else {
		defer amqpClient.Close()
		consumer = amqpClient
	}

	processor := services.NewExportProcessor(repo, repo, exporter, cfg.ExportBatchSize)
	exportWorker := worker.NewExportWorker(processor, consumer, cfg.ExportInterval)

	if err := exportWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
