// Package export pushes monthly summaries to an external spreadsheet.
package export

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// SummaryExporter is the outbound port for summary export. The Google
// Sheets client implements it; the in-memory exporter backs tests.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, summary core.MonthSummary) error
}

// SummaryRows flattens a summary into spreadsheet rows. The first row is
// a header; amounts are kept numeric so the sheet can aggregate them.
func SummaryRows(summary core.MonthSummary) [][]any {
	rows := [][]any{
		{"Year", "Month", "Section", "Label", "Amount"},
		{summary.Year, summary.Month, "total", "expenses", summary.TotalExpenses},
		{summary.Year, summary.Month, "total", "remaining income", summary.TotalRemainingIncome},
	}
	for _, c := range summary.ByCategory {
		rows = append(rows, []any{summary.Year, summary.Month, "category", c.Name, c.Amount})
	}
	for _, inc := range summary.Incomes {
		rows = append(rows, []any{summary.Year, summary.Month, "income", inc.Description, inc.Amount})
	}
	for _, week := range summary.WeeklyExpenses {
		for _, c := range week.ByLabel {
			rows = append(rows, []any{summary.Year, summary.Month, weekSection(week.Week), c.Name, c.Amount})
		}
	}
	return rows
}

func weekSection(week int) string {
	return fmt.Sprintf("week %d", week)
}
