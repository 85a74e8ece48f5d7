package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack", "port", cfg.Port)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := context.Background()
	if err := repo.EnsureDefaultCategories(ctx); err != nil {
		logger.Error("Failed to seed default categories", "error", err)
		os.Exit(1)
	}

	// The ledger event bus is optional; without a broker the services
	// simply skip publishing.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		amqpClient = client
		publisher = client
		defer amqpClient.Close()
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	httpLogger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	ledgerLogger := applog.New(applog.Config{Component: applog.ComponentLedger})
	reportLogger := applog.New(applog.Config{Component: applog.ComponentReport})

	authSvc := auth.NewService(repo, cfg.SessionTTL)
	incomes := services.NewIncomeService(repo, publisher)
	expenses := services.NewExpenseService(repo, publisher, ledgerLogger)
	summaries := services.NewSummaryService(repo)
	generator := report.NewGenerator(summaries, cfg.ReportDir, reportLogger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:      authSvc,
		Incomes:   incomes,
		Expenses:  expenses,
		Summaries: summaries,
		Generator: generator,
		Repo:      repo,
		Logger:    httpLogger,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	// Expired sessions are purged in the background for the lifetime of
	// the process.
	purgeCtx, purgeCancel := context.WithCancel(ctx)
	defer purgeCancel()
	go purgeSessions(purgeCtx, authSvc, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

func purgeSessions(ctx context.Context, authSvc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := authSvc.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("Session purge failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
