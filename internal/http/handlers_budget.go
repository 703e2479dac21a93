package http

import (
	"fmt"
	"net/http"

	"spendwise/internal/core"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budgetType, err := core.ParseBudgetType(req.BudgetType)
	if err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}

	saved, err := s.deps.Ledger.SetBudget(r.Context(), core.Budget{
		UserID: userID(r),
		Type:   budgetType,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBudgetResponse(saved))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Ledger.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponses(items))
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	due, err := core.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, r, core.Invalid(fmt.Errorf("invalid due_date %q: use YYYY-MM-DD", req.DueDate)))
		return
	}
	reminderDays := core.DefaultReminderDays
	if req.ReminderDays != nil {
		reminderDays = *req.ReminderDays
	}

	saved, err := s.deps.Ledger.AddBill(r.Context(), core.Bill{
		UserID:       userID(r),
		Name:         sanitizeInput(req.BillName),
		Amount:       req.Amount,
		DueDate:      due,
		ReminderDays: reminderDays,
		IsRecurring:  req.IsRecurring,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(saved))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Ledger.ListBills(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponses(items))
}
