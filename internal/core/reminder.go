package core

import (
	"github.com/shopspring/decimal"
)

// BillReminder is the payload handed to a notification channel when a bill
// is due for a reminder. It is derived on every scan and never stored.
type BillReminder struct {
	BillID        int64
	UserID        int64
	RecipientName string
	Email         string
	BillName      string
	Amount        decimal.Decimal
	DueDate       Date
}

// DueBill pairs a bill with the contact details of its owner.
type DueBill struct {
	Bill
	OwnerEmail string
	OwnerName  string
}

// TriggerDate is the first day a reminder may fire for the bill.
func (b Bill) TriggerDate() Date {
	return b.DueDate.AddDays(-b.ReminderDays)
}

// Reminder builds the notification payload for a bill and its owner.
func (d DueBill) Reminder() BillReminder {
	return BillReminder{
		BillID:        d.ID,
		UserID:        d.UserID,
		RecipientName: d.OwnerName,
		Email:         d.OwnerEmail,
		BillName:      d.Name,
		Amount:        d.Amount,
		DueDate:       d.DueDate,
	}
}
