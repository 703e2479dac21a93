package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category core.Category
	Total    decimal.Decimal
	// Percentage of the breakdown total, rounded to two decimals.
	Percentage float64
}

// Dashboard is the summary shown on the home screen.
type Dashboard struct {
	TodayTotal decimal.Decimal
	WeekTotal  decimal.Decimal
	// MonthTotal covers the trailing thirty days, not the calendar month.
	MonthTotal decimal.Decimal
	WeekCount  int
	Categories []CategoryTotal
	Budgets    map[core.BudgetType]BudgetStatus
}

// Sum adds the amounts of the expenses inside the window. It is zero when
// nothing matches.
func Sum(expenses []core.Expense, w Window, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if w.Contains(e.Timestamp, now) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Count returns the number of expenses inside the window.
func Count(expenses []core.Expense, w Window, now time.Time) int {
	n := 0
	for _, e := range expenses {
		if w.Contains(e.Timestamp, now) {
			n++
		}
	}
	return n
}

// ByCategory groups the trailing thirty days by category, largest first.
func ByCategory(expenses []core.Expense, now time.Time) []CategoryTotal {
	return Breakdown(expenses, Trailing30Days, now)
}

// Breakdown groups the expenses inside w by category and orders the result by
// total descending, then by category name. Percentages are all zero when the
// grand total is zero.
func Breakdown(expenses []core.Expense, w Window, now time.Time) []CategoryTotal {
	totals := make(map[core.Category]decimal.Decimal)
	grand := decimal.Zero
	for _, e := range expenses {
		if !w.Contains(e.Timestamp, now) {
			continue
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
		grand = grand.Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		pct := 0.0
		if grand.IsPositive() {
			pct = core.Round2(total.Div(grand).Mul(hundred))
		}
		out = append(out, CategoryTotal{Category: cat, Total: total, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BuildDashboard computes every dashboard figure from one expense slice.
func BuildDashboard(expenses []core.Expense, budgets []core.Budget, now time.Time) Dashboard {
	return Dashboard{
		TodayTotal: Sum(expenses, Today, now),
		WeekTotal:  Sum(expenses, Trailing7Days, now),
		MonthTotal: Sum(expenses, Trailing30Days, now),
		WeekCount:  Count(expenses, Trailing7Days, now),
		Categories: ByCategory(expenses, now),
		Budgets:    EvaluateBudgets(budgets, expenses, now),
	}
}
