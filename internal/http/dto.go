package http

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// Request bodies. Amounts decode from JSON numbers or numeric strings.

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type expenseRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	DateTime      string          `json:"date_time"`
	PaymentMethod string          `json:"payment_method"`
	Note          string          `json:"note"`
}

type budgetRequest struct {
	BudgetType string          `json:"budget_type"`
	Amount     decimal.Decimal `json:"amount"`
}

type billRequest struct {
	BillName     string          `json:"bill_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"due_date"`
	ReminderDays *int            `json:"reminder_days"`
	IsRecurring  bool            `json:"is_recurring"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// Response bodies. Money is rendered as a two-decimal JSON number.

type sessionResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type ExpenseResponse struct {
	ID            int64   `json:"id"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	DateTime      string  `json:"date_time"`
	PaymentMethod string  `json:"payment_method"`
	Note          string  `json:"note"`
	UserID        int64   `json:"user_id"`
}

type BudgetResponse struct {
	ID         int64   `json:"id"`
	BudgetType string  `json:"budget_type"`
	Amount     float64 `json:"amount"`
	StartDate  *string `json:"start_date"`
}

type BillResponse struct {
	ID           int64   `json:"id"`
	BillName     string  `json:"bill_name"`
	Amount       float64 `json:"amount"`
	DueDate      string  `json:"due_date"`
	ReminderDays int     `json:"reminder_days"`
	Status       string  `json:"status"`
	IsRecurring  bool    `json:"is_recurring"`
}

type CategorySummary struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

type BudgetStatusResponse struct {
	BudgetAmount float64 `json:"budget_amount"`
	Spent        float64 `json:"spent"`
	Percentage   float64 `json:"percentage"`
	Status       string  `json:"status"`
}

type DashboardResponse struct {
	TodayTotal   float64                         `json:"today_total"`
	WeekTotal    float64                         `json:"week_total"`
	MonthTotal   float64                         `json:"month_total"`
	WeekCount    int                             `json:"week_count"`
	Categories   []CategorySummary               `json:"categories"`
	BudgetStatus map[string]BudgetStatusResponse `json:"budget_status"`
}

type PredictionResponse struct {
	NextWeekTotal     float64            `json:"next_week_total"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
}

type InsightsResponse struct {
	TopCategory       string             `json:"top_category"`
	TopCategoryAmount float64            `json:"top_category_amount"`
	WeekComparison    float64            `json:"week_comparison"`
	BudgetStatus      string             `json:"budget_status"`
	Predictions       PredictionResponse `json:"predictions"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func toExpenseResponse(e core.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Amount:        core.Round2(e.Amount),
		Category:      string(e.Category),
		DateTime:      e.Timestamp.Format(time.RFC3339),
		PaymentMethod: string(e.PaymentMethod),
		Note:          e.Note,
		UserID:        e.UserID,
	}
}

func toExpenseResponses(items []core.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

func toBudgetResponse(b core.Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:         b.ID,
		BudgetType: string(b.Type),
		Amount:     core.Round2(b.Amount),
	}
	if !b.StartDate.IsZero() {
		s := b.StartDate.String()
		resp.StartDate = &s
	}
	return resp
}

func toBudgetResponses(items []core.Budget) []BudgetResponse {
	out := make([]BudgetResponse, 0, len(items))
	for _, b := range items {
		out = append(out, toBudgetResponse(b))
	}
	return out
}

func toBillResponse(b core.Bill) BillResponse {
	return BillResponse{
		ID:           b.ID,
		BillName:     b.Name,
		Amount:       core.Round2(b.Amount),
		DueDate:      b.DueDate.String(),
		ReminderDays: b.ReminderDays,
		Status:       string(b.Status),
		IsRecurring:  b.IsRecurring,
	}
}

func toBillResponses(items []core.Bill) []BillResponse {
	out := make([]BillResponse, 0, len(items))
	for _, b := range items {
		out = append(out, toBillResponse(b))
	}
	return out
}

func toBudgetStatusResponse(s analytics.BudgetStatus) BudgetStatusResponse {
	return BudgetStatusResponse{
		BudgetAmount: core.Round2(s.BudgetAmount),
		Spent:        core.Round2(s.Spent),
		Percentage:   s.Percentage,
		Status:       s.Status,
	}
}

func toDashboardResponse(d analytics.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		TodayTotal:   core.Round2(d.TodayTotal),
		WeekTotal:    core.Round2(d.WeekTotal),
		MonthTotal:   core.Round2(d.MonthTotal),
		WeekCount:    d.WeekCount,
		Categories:   make([]CategorySummary, 0, len(d.Categories)),
		BudgetStatus: make(map[string]BudgetStatusResponse, len(d.Budgets)),
	}
	for _, c := range d.Categories {
		resp.Categories = append(resp.Categories, CategorySummary{
			Category:   string(c.Category),
			Total:      core.Round2(c.Total),
			Percentage: c.Percentage,
		})
	}
	for t, s := range d.Budgets {
		resp.BudgetStatus[string(t)] = toBudgetStatusResponse(s)
	}
	return resp
}

func toInsightsResponse(in analytics.Insights) InsightsResponse {
	return InsightsResponse{
		TopCategory:       in.TopCategory,
		TopCategoryAmount: core.Round2(in.TopCategoryAmount),
		WeekComparison:    core.Round2(in.WeekComparison),
		BudgetStatus:      in.BudgetStatus,
		Predictions: PredictionResponse{
			NextWeekTotal: core.Round2(in.Prediction.NextWeekTotal),
			CategoryBreakdown: map[string]float64{
				string(core.Food):      core.Round2(in.Prediction.Food),
				string(core.Transport): core.Round2(in.Prediction.Transport),
				string(core.Other):     core.Round2(in.Prediction.Other),
			},
		},
	}
}
