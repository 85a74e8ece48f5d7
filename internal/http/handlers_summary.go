package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type amountByLabel struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type weekGroupResponse struct {
	Week    int             `json:"week"`
	ByLabel []amountByLabel `json:"by_label"`
	Total   float64         `json:"total"`
}

type summaryResponse struct {
	Year                 int                 `json:"year"`
	Month                int                 `json:"month"`
	TotalExpenses        float64             `json:"total_expenses"`
	TotalRemainingIncome float64             `json:"total_remaining_income"`
	ByCategory           []amountByLabel     `json:"by_category"`
	Incomes              []incomeResponse    `json:"incomes"`
	WeeklyExpenses       []weekGroupResponse `json:"weekly_expenses"`
	WeeklyIncomes        []weekGroupResponse `json:"weekly_incomes"`
}

func toAmounts(rows []core.CategoryAmount) []amountByLabel {
	out := make([]amountByLabel, 0, len(rows))
	for _, row := range rows {
		out = append(out, amountByLabel{Name: row.Name, Amount: row.Amount})
	}
	return out
}

func toWeekGroups(groups []core.WeekGroup) []weekGroupResponse {
	out := make([]weekGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, weekGroupResponse{
			Week:    g.Week,
			ByLabel: toAmounts(g.ByLabel),
			Total:   g.Total,
		})
	}
	return out
}

func toSummaryResponse(s core.MonthSummary) summaryResponse {
	incomes := make([]incomeResponse, 0, len(s.Incomes))
	for _, inc := range s.Incomes {
		incomes = append(incomes, toIncomeResponse(inc))
	}
	return summaryResponse{
		Year:                 s.Year,
		Month:                s.Month,
		TotalExpenses:        s.TotalExpenses,
		TotalRemainingIncome: s.TotalRemainingIncome,
		ByCategory:           toAmounts(s.ByCategory),
		Incomes:              incomes,
		WeeklyExpenses:       toWeekGroups(s.WeeklyExpenses),
		WeeklyIncomes:        toWeekGroups(s.WeeklyIncomes),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	year, month, err := queryYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := summaryKey(user.ID, year, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(cached))
		return
	}

	summary, err := s.summaries.MonthSummary(r.Context(), user.ID, year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.summaryCache.Set(key, summary)

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusNotImplemented, "report generation disabled")
		return
	}

	user := userFrom(r.Context())
	year, month, err := queryYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.generator.Generate(r.Context(), user.ID, year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report generation failed",
			log.FieldOperation, log.OpRender,
			log.FieldUserID, user.ID,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.FileName(year, month))
	http.ServeFile(w, r, path)
}
