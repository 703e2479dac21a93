package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

const (
	StatusWithin   = "within"
	StatusExceeded = "exceeded"
)

// NoBudgets is the summary used when a user has not configured any budget.
const NoBudgets = "No budgets set"

// BudgetStatus compares a budget with what was spent in its window.
type BudgetStatus struct {
	BudgetAmount decimal.Decimal
	Spent        decimal.Decimal
	// Percentage is spent/amount*100 rounded to two decimals, 0 for a zero budget.
	Percentage float64
	Status     string
}

// WindowFor maps a budget type to the window its spending is measured over.
func WindowFor(t core.BudgetType) Window {
	if t == core.Weekly {
		return Trailing7Days
	}
	return CurrentMonth
}

// EvaluateBudget measures one budget against the expenses.
func EvaluateBudget(b core.Budget, expenses []core.Expense, now time.Time) BudgetStatus {
	spent := Sum(expenses, WindowFor(b.Type), now)

	pct := decimal.Zero
	if !b.Amount.IsZero() {
		pct = spent.Div(b.Amount).Mul(hundred)
	}

	status := StatusWithin
	if pct.GreaterThan(hundred) {
		status = StatusExceeded
	}

	return BudgetStatus{
		BudgetAmount: b.Amount,
		Spent:        spent,
		Percentage:   core.Round2(pct),
		Status:       status,
	}
}

// EvaluateBudgets returns the status of every budget keyed by its type.
func EvaluateBudgets(budgets []core.Budget, expenses []core.Expense, now time.Time) map[core.BudgetType]BudgetStatus {
	out := make(map[core.BudgetType]BudgetStatus, len(budgets))
	for _, b := range budgets {
		out[b.Type] = EvaluateBudget(b, expenses, now)
	}
	return out
}

// BudgetSummary renders one sentence per budget joined by " | ".
func BudgetSummary(budgets []core.Budget, expenses []core.Expense, now time.Time) string {
	if len(budgets) == 0 {
		return NoBudgets
	}
	parts := make([]string, 0, len(budgets))
	for _, b := range budgets {
		spent := Sum(expenses, WindowFor(b.Type), now)
		if spent.LessThanOrEqual(b.Amount) {
			parts = append(parts, fmt.Sprintf("You are within your %s budget", b.Type))
			continue
		}
		parts = append(parts, fmt.Sprintf("You exceeded your %s budget by %s", b.Type, core.FormatRupees(spent.Sub(b.Amount))))
	}
	return strings.Join(parts, " | ")
}
