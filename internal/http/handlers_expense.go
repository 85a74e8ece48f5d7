package http

import (
	"net/http"

	"fintrack/internal/core"
)

type expenseRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
	CategoryID  int64       `json:"category_id"`
	IncomeID    int64       `json:"income_id"`
}

type expenseResponse struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	IncomeID     int64   `json:"income_id"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		Date:         e.Date.Format(dateLayout),
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		IncomeID:     e.IncomeID,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	expenses, err := s.expenses.ListExpenses(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), core.Expense{
		UserID:      user.ID,
		Description: req.Description,
		Amount:      float64(req.Amount),
		Date:        date,
		CategoryID:  req.CategoryID,
		IncomeID:    req.IncomeID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), core.Expense{
		ID:          id,
		UserID:      user.ID,
		Description: req.Description,
		Amount:      float64(req.Amount),
		Date:        date,
		CategoryID:  req.CategoryID,
		IncomeID:    req.IncomeID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	w.WriteHeader(http.StatusNoContent)
}
