package amqp

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// ExpenseSyncMessage asks the worker to export one expense. It carries only
// the ID and version; the worker reads the expense from the database.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseSyncMessage creates a new sync message with just ID and version
func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseSyncMessageFromJSON creates a message from JSON bytes
func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("expense sync message without id")
	}
	return &msg, nil
}

// BillReminderMessage is a rendered reminder waiting for delivery. Amount is
// a decimal string so no precision is lost in transit.
type BillReminderMessage struct {
	BillID        int64     `json:"bill_id"`
	UserID        int64     `json:"user_id"`
	RecipientName string    `json:"recipient_name"`
	Email         string    `json:"email"`
	BillName      string    `json:"bill_name"`
	Amount        string    `json:"amount"`
	DueDate       string    `json:"due_date"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewBillReminderMessage(r core.BillReminder) *BillReminderMessage {
	return &BillReminderMessage{
		BillID:        r.BillID,
		UserID:        r.UserID,
		RecipientName: r.RecipientName,
		Email:         r.Email,
		BillName:      r.BillName,
		Amount:        r.Amount.StringFixed(2),
		DueDate:       r.DueDate.String(),
		Timestamp:     time.Now(),
	}
}

func (m *BillReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BillReminderMessageFromJSON(data []byte) (*BillReminderMessage, error) {
	var msg BillReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Email == "" || msg.BillName == "" {
		return nil, fmt.Errorf("bill reminder message missing recipient or bill name")
	}
	return &msg, nil
}

// Reminder converts the message back into the domain payload.
func (m *BillReminderMessage) Reminder() (core.BillReminder, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return core.BillReminder{}, fmt.Errorf("parse amount: %w", err)
	}
	due, err := core.ParseDate(m.DueDate)
	if err != nil {
		return core.BillReminder{}, fmt.Errorf("parse due date: %w", err)
	}
	return core.BillReminder{
		BillID:        m.BillID,
		UserID:        m.UserID,
		RecipientName: m.RecipientName,
		Email:         m.Email,
		BillName:      m.BillName,
		Amount:        amount,
		DueDate:       due,
	}, nil
}
