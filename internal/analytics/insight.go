package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// NoData is reported as the top category when the month has no expenses.
const NoData = "No data"

// predictionHorizon is how far back weekly averages look.
const predictionHorizon = 28 * day

// Prediction forecasts next week's spending from recent weekly averages.
// Every value is rounded to two decimals.
type Prediction struct {
	NextWeekTotal decimal.Decimal
	Food          decimal.Decimal
	Transport     decimal.Decimal
	Other         decimal.Decimal
}

// Insights bundles the comparative figures shown on the insights screen.
type Insights struct {
	TopCategory       string
	TopCategoryAmount decimal.Decimal
	// WeekComparison is the last seven days minus the seven days before.
	WeekComparison decimal.Decimal
	BudgetStatus   string
	Prediction     Prediction
}

type weekBucket struct {
	total, food, transport decimal.Decimal
}

// Predict averages the last 28 days bucketed by ISO week. Weeks without any
// expense do not count towards the average; no data yields all zeros.
func Predict(expenses []core.Expense, now time.Time) Prediction {
	from := now.Add(-predictionHorizon)
	buckets := make(map[int]*weekBucket)
	for _, e := range expenses {
		if e.Timestamp.Before(from) {
			continue
		}
		year, week := e.Timestamp.In(now.Location()).ISOWeek()
		key := year*100 + week
		b, ok := buckets[key]
		if !ok {
			b = &weekBucket{}
			buckets[key] = b
		}
		b.total = b.total.Add(e.Amount)
		switch e.Category {
		case core.Food:
			b.food = b.food.Add(e.Amount)
		case core.Transport:
			b.transport = b.transport.Add(e.Amount)
		}
	}

	if len(buckets) == 0 {
		return Prediction{NextWeekTotal: decimal.Zero, Food: decimal.Zero, Transport: decimal.Zero, Other: decimal.Zero}
	}

	var total, food, transport decimal.Decimal
	for _, b := range buckets {
		total = total.Add(b.total)
		food = food.Add(b.food)
		transport = transport.Add(b.transport)
	}
	n := decimal.NewFromInt(int64(len(buckets)))
	avgTotal := total.Div(n)
	avgFood := food.Div(n)
	avgTransport := transport.Div(n)

	return Prediction{
		NextWeekTotal: avgTotal.Round(2),
		Food:          avgFood.Round(2),
		Transport:     avgTransport.Round(2),
		Other:         avgTotal.Sub(avgFood).Sub(avgTransport).Round(2),
	}
}

// TopCategory returns the category with the largest spend this calendar
// month, or NoData and zero.
func TopCategory(expenses []core.Expense, now time.Time) (string, decimal.Decimal) {
	rows := Breakdown(expenses, CurrentMonth, now)
	if len(rows) == 0 {
		return NoData, decimal.Zero
	}
	return string(rows[0].Category), rows[0].Total
}

// WeekComparison subtracts the spend of days 8 to 14 ago from the spend of
// the trailing seven days.
func WeekComparison(expenses []core.Expense, now time.Time) decimal.Decimal {
	current := Sum(expenses, Trailing7Days, now)
	previous := decimal.Zero
	from, to := now.Add(-14*day), now.Add(-7*day)
	for _, e := range expenses {
		if inRange(e.Timestamp, from, to) {
			previous = previous.Add(e.Amount)
		}
	}
	return current.Sub(previous)
}

// BuildInsights computes every insight figure from one expense slice.
func BuildInsights(expenses []core.Expense, budgets []core.Budget, now time.Time) Insights {
	top, topAmount := TopCategory(expenses, now)
	return Insights{
		TopCategory:       top,
		TopCategoryAmount: topAmount,
		WeekComparison:    WeekComparison(expenses, now),
		BudgetStatus:      BudgetSummary(budgets, expenses, now),
		Prediction:        Predict(expenses, now),
	}
}
