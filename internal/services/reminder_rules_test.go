package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

func TestReminderDue(t *testing.T) {
	due := core.NewDate(2025, 6, 10)
	bill := func(status core.BillStatus, lastSent core.Date) core.Bill {
		return core.Bill{
			Name:             "Rent",
			Amount:           decimal.NewFromInt(15000),
			DueDate:          due,
			ReminderDays:     3,
			Status:           status,
			LastReminderSent: lastSent,
		}
	}

	tests := []struct {
		name  string
		bill  core.Bill
		today core.Date
		want  bool
	}{
		{
			name:  "before the lead window - not due",
			bill:  bill(core.Upcoming, core.Date{}),
			today: core.NewDate(2025, 6, 6),
			want:  false,
		},
		{
			name:  "first day of the lead window - is due",
			bill:  bill(core.Upcoming, core.Date{}),
			today: core.NewDate(2025, 6, 7),
			want:  true,
		},
		{
			name:  "on the due date - is due",
			bill:  bill(core.Upcoming, core.Date{}),
			today: due,
			want:  true,
		},
		{
			name:  "past due and unpaid - is due",
			bill:  bill(core.Overdue, core.Date{}),
			today: core.NewDate(2025, 6, 20),
			want:  true,
		},
		{
			name:  "already sent today - not due",
			bill:  bill(core.Upcoming, core.NewDate(2025, 6, 8)),
			today: core.NewDate(2025, 6, 8),
			want:  false,
		},
		{
			name:  "sent yesterday - is due again",
			bill:  bill(core.Upcoming, core.NewDate(2025, 6, 7)),
			today: core.NewDate(2025, 6, 8),
			want:  true,
		},
		{
			name:  "paid - never due",
			bill:  bill(core.Paid, core.Date{}),
			today: due,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReminderDue(tt.bill, tt.today); got != tt.want {
				t.Errorf("ReminderDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReminderDue_ZeroLeadDays(t *testing.T) {
	b := core.Bill{DueDate: core.NewDate(2025, 1, 31), ReminderDays: 0, Status: core.Upcoming}

	if ReminderDue(b, core.NewDate(2025, 1, 30)) {
		t.Error("zero lead days must not fire the day before")
	}
	if !ReminderDue(b, core.NewDate(2025, 1, 31)) {
		t.Error("zero lead days must fire on the due date")
	}
}

func TestReminderDue_LeadAcrossMonthBoundary(t *testing.T) {
	b := core.Bill{DueDate: core.NewDate(2025, 3, 2), ReminderDays: 3, Status: core.Upcoming}

	if !ReminderDue(b, core.NewDate(2025, 2, 27)) {
		t.Error("trigger date 2025-02-27 should be due")
	}
	if ReminderDue(b, core.NewDate(2025, 2, 26)) {
		t.Error("2025-02-26 is before the trigger date")
	}
}
