package http

import (
	"net/http"

	"fintrack/internal/core"
)

type incomeRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
}

type incomeResponse struct {
	ID              int64   `json:"id"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	Date            string  `json:"date"`
}

func toIncomeResponse(inc core.Income) incomeResponse {
	return incomeResponse{
		ID:              inc.ID,
		Description:     inc.Description,
		Amount:          inc.Amount,
		RemainingAmount: inc.RemainingAmount,
		Date:            inc.Date.Format(dateLayout),
	}
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	incomes, err := s.incomes.ListIncomes(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]incomeResponse, 0, len(incomes))
	for _, inc := range incomes {
		out = append(out, toIncomeResponse(inc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.incomes.CreateIncome(r.Context(), core.Income{
		UserID:      user.ID,
		Description: req.Description,
		Amount:      float64(req.Amount),
		Date:        date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	writeJSON(w, http.StatusCreated, toIncomeResponse(created))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.incomes.UpdateIncome(r.Context(), core.Income{
		ID:          id,
		UserID:      user.ID,
		Description: req.Description,
		Amount:      float64(req.Amount),
		Date:        date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	writeJSON(w, http.StatusOK, toIncomeResponse(updated))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.incomes.DeleteIncome(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateSummaries(user.ID)
	w.WriteHeader(http.StatusNoContent)
}
