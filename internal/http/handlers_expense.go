package http

import (
	"net/http"

	"spendwise/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}
	method, err := core.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}
	ts, err := parseDateTime(req.DateTime)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddExpense(r.Context(), core.Expense{
		UserID:        userID(r),
		Amount:        req.Amount,
		Category:      category,
		Timestamp:     ts,
		PaymentMethod: method,
		Note:          sanitizeInput(req.Note),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(saved))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExpenseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := s.deps.Ledger.ListExpenses(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponses(items))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.deps.Ledger.DeleteExpense(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}
