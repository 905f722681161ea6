package main

import (
	"context"
	"errors"
	"os"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/cli"
	"despesas/internal/sheets"
	gsheet "despesas/internal/sheets/google"
	sheetsmem "despesas/internal/sheets/memory"
	"despesas/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap()

	logger.Info("Starting despesas-worker")

	repo := cli.MustOpenSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The worker mirrors ledger writes to Google Sheets. Without a
	// spreadsheet configured it falls back to an in-memory mirror, which
	// still drains the pending queue.
	var mirror sheets.LedgerMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = sheetsmem.New()
		logger.Info("Google Sheets disabled - using in-memory mirror")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(repo, mirror, cfg.MirrorBatchSize)

	ctx, done := cli.ShutdownOnSignal(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	// Catch up on anything written while the worker was down.
	logger.Info("Performing startup mirror check...")
	if err := mirrorWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup mirror check failed", "error", err)
		// Keep running; the periodic scan retries pending rows.
	}

	go func() {
		handler := func(event *amqp.LedgerEvent) error {
			return mirrorWorker.HandleLedgerEvent(ctx, event)
		}
		if err := amqpClient.ConsumeLedgerEvents(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Ledger event consumption failed", "error", err)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirrorWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic mirror scan failed", "error", err)
				}
			}
		}
	}()

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped gracefully")
}
