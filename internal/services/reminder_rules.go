// Package services provides business logic and orchestration services.
//
// This file holds the rules that decide whether a bill gets a reminder on a
// given day. Each rule is a small strategy; a bill is due only when every
// registered rule allows it.

package services

import (
	"spendwise/internal/core"
)

// ReminderRule is one condition a bill must meet to be reminded today.
type ReminderRule interface {
	Allows(bill core.Bill, today core.Date) bool
}

// UnpaidRule stops reminders once a bill is paid.
type UnpaidRule struct{}

func (UnpaidRule) Allows(bill core.Bill, _ core.Date) bool {
	return bill.Status != core.Paid
}

// LeadTimeRule opens the reminder window reminder_days before the due date.
// The first day of the window is included, and the window never closes: an
// unpaid bill past its due date keeps firing.
type LeadTimeRule struct{}

func (LeadTimeRule) Allows(bill core.Bill, today core.Date) bool {
	return !today.Before(bill.TriggerDate().Time)
}

// OncePerDayRule allows at most one reminder per calendar day. A bill sent
// yesterday is due again today, so the owner is nagged daily until paid.
type OncePerDayRule struct{}

func (OncePerDayRule) Allows(bill core.Bill, today core.Date) bool {
	return bill.LastReminderSent.IsZero() || !bill.LastReminderSent.Equal(today)
}

var reminderRules = []ReminderRule{
	UnpaidRule{},
	LeadTimeRule{},
	OncePerDayRule{},
}

// ReminderDue reports whether bill should be reminded on today.
func ReminderDue(bill core.Bill, today core.Date) bool {
	for _, rule := range reminderRules {
		if !rule.Allows(bill, today) {
			return false
		}
	}
	return true
}
