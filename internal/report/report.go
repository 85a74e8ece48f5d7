// Package report renders a monthly ledger summary to PDF.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Generator renders month summaries into PDF files under dir.
type Generator struct {
	summaries *services.SummaryService
	dir       string
	logger    *log.Logger
}

func NewGenerator(summaries *services.SummaryService, dir string, logger *log.Logger) *Generator {
	return &Generator{
		summaries: summaries,
		dir:       dir,
		logger:    logger,
	}
}

// FileName returns the report file name for a month, e.g.
// ExpenseReport_2024-05.pdf.
func FileName(year, month int) string {
	return fmt.Sprintf("ExpenseReport_%04d-%02d.pdf", year, month)
}

// Generate renders the month summary for the user and writes it under
// the generator's directory, overwriting any previous report for the
// same month. Returns the written file path.
func (g *Generator) Generate(ctx context.Context, userID int64, year, month int) (string, error) {
	summary, err := g.summaries.MonthSummary(ctx, userID, year, month)
	if err != nil {
		return "", fmt.Errorf("build summary: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(g.dir, FileName(year, month))
	if err := Render(summary, path); err != nil {
		return "", err
	}

	g.logger.InfoContext(ctx, "Report generated",
		log.FieldOperation, log.OpRender,
		log.FieldUserID, userID,
		log.FieldYear, year,
		log.FieldMonth, month,
		log.FieldReportPath, path)
	return path, nil
}

// Render writes the summary as a PDF to path.
func Render(summary core.MonthSummary, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Expense Report %04d-%02d", summary.Year, summary.Month), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Expense Report %04d-%02d", summary.Year, summary.Month),
		"", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Total expenses: "+core.FormatAmount(summary.TotalExpenses), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Total remaining income: "+core.FormatAmount(summary.TotalRemainingIncome), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	renderAmountTable(pdf, "Expenses by category", summary.ByCategory)

	if len(summary.Incomes) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Incomes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, inc := range summary.Incomes {
			line := fmt.Sprintf("%s  %s  (remaining %s)",
				inc.Date.Format("2006-01-02"), inc.Description, core.FormatAmount(inc.RemainingAmount))
			pdf.CellFormat(120, 6, line, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, core.FormatAmount(inc.Amount), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	renderWeekly(pdf, "Weekly expenses", summary.WeeklyExpenses)
	renderWeekly(pdf, "Weekly incomes", summary.WeeklyIncomes)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func renderAmountTable(pdf *fpdf.Fpdf, title string, rows []core.CategoryAmount) {
	if len(rows) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(120, 6, row.Name, "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, core.FormatAmount(row.Amount), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func renderWeekly(pdf *fpdf.Fpdf, title string, groups []core.WeekGroup) {
	if len(groups) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	for _, group := range groups {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, fmt.Sprintf("Week %d", group.Week), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, core.FormatAmount(group.Total), "", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range group.ByLabel {
			pdf.CellFormat(120, 5, "    "+row.Name, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, core.FormatAmount(row.Amount), "", 1, "R", false, 0, "")
		}
	}
	pdf.Ln(4)
}
