package sheets

import (
	"context"

	"spendwise/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter exports one expense as a spreadsheet row and returns a
	// reference to where it landed.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)

// Header is the column layout of the export sheet.
var Header = []string{"ID", "User", "Date", "Time", "Category", "Payment Method", "Amount", "Note"}

// Row renders an expense in Header order. Date and time use the expense's
// own location.
func Row(e core.Expense) []any {
	return []any{
		e.ID,
		e.UserID,
		e.Timestamp.Format("2006-01-02"),
		e.Timestamp.Format("15:04"),
		string(e.Category),
		string(e.PaymentMethod),
		e.Amount.StringFixed(2),
		e.Note,
	}
}
