package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Spreadsheet export is optional; without it only PDFs are refreshed.
	var exporter export.SummaryExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := export.NewGoogleClient(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	summaries := services.NewSummaryService(repo)
	reportLogger := applog.New(applog.Config{Component: applog.ComponentReport})
	generator := report.NewGenerator(summaries, cfg.ReportDir, reportLogger)
	reportWorker := worker.NewReportWorker(repo, summaries, generator, exporter)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, ctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(ctx, func(evt *amqp.LedgerEvent) error {
			return reportWorker.HandleLedgerEvent(ctx, evt)
		})
	})
	g.Go(func() error {
		logger.Info("Periodic refresh scheduled", "interval", cfg.RefreshInterval)
		return reportWorker.RunPeriodicRefresh(ctx, cfg.RefreshInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
