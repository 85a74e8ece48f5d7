// Package worker regenerates derived artifacts when the ledger changes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// ReportWorker consumes ledger events and refreshes the affected month's
// PDF report and spreadsheet export. A periodic pass covers months whose
// events were lost or that changed outside the event flow.
type ReportWorker struct {
	repo      *storage.SQLiteRepository
	summaries *services.SummaryService
	generator *report.Generator
	exporter  export.SummaryExporter
}

func NewReportWorker(repo *storage.SQLiteRepository, summaries *services.SummaryService, generator *report.Generator, exporter export.SummaryExporter) *ReportWorker {
	return &ReportWorker{
		repo:      repo,
		summaries: summaries,
		generator: generator,
		exporter:  exporter,
	}
}

// HandleLedgerEvent regenerates the artifacts for the event's month. An
// error is returned so the AMQP consumer can nack and requeue.
func (w *ReportWorker) HandleLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", evt.Kind,
		"entity_id", evt.EntityID,
		"user_id", evt.UserID,
		"year", evt.Year,
		"month", evt.Month)

	if evt.Year == 0 || evt.Month < 1 || evt.Month > 12 {
		// Malformed month scoping cannot be retried into correctness.
		slog.WarnContext(ctx, "Dropping event with invalid month",
			"kind", evt.Kind, "year", evt.Year, "month", evt.Month)
		return nil
	}

	if _, err := w.generator.Generate(ctx, evt.UserID, evt.Year, evt.Month); err != nil {
		return fmt.Errorf("regenerate report for %d-%02d: %w", evt.Year, evt.Month, err)
	}

	if w.exporter != nil {
		summary, err := w.summaries.MonthSummary(ctx, evt.UserID, evt.Year, evt.Month)
		if err != nil {
			return fmt.Errorf("build summary for export: %w", err)
		}
		if err := w.exporter.ExportSummary(ctx, summary); err != nil {
			return fmt.Errorf("export summary for %d-%02d: %w", evt.Year, evt.Month, err)
		}
	}

	return nil
}

// RefreshCurrentMonth regenerates the current month's artifacts for
// every user.
func (w *ReportWorker) RefreshCurrentMonth(ctx context.Context) error {
	users, err := w.repo.Queries().ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	for _, u := range users {
		evt := &amqp.LedgerEvent{
			Kind:      amqp.SummaryRefresh,
			UserID:    u.ID,
			Year:      year,
			Month:     month,
			Timestamp: now,
		}
		if err := w.HandleLedgerEvent(ctx, evt); err != nil {
			return fmt.Errorf("refresh user %d: %w", u.ID, err)
		}
	}
	return nil
}

// RunPeriodicRefresh regenerates current-month artifacts on a fixed
// interval until the context is done. A failed pass is logged and
// retried on the next tick.
func (w *ReportWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RefreshCurrentMonth(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}
