package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/log"
	"spendwise/internal/notify"
)

// ReminderWorker delivers reminders published to the broker.
type ReminderWorker struct {
	notifier notify.Notifier
}

func NewReminderWorker(notifier notify.Notifier) *ReminderWorker {
	return &ReminderWorker{notifier: notifier}
}

// HandleReminderMessage sends one reminder. Delivery errors are returned so
// the message is requeued; a malformed payload is dropped.
func (w *ReminderWorker) HandleReminderMessage(ctx context.Context, msg *amqp.BillReminderMessage) error {
	reminder, err := msg.Reminder()
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed reminder message",
			"component", log.ComponentWorker,
			"bill_id", msg.BillID,
			"error", err)
		return nil
	}

	if err := w.notifier.Notify(ctx, reminder); err != nil {
		return fmt.Errorf("deliver reminder for bill %d: %w", msg.BillID, err)
	}

	slog.InfoContext(ctx, "Delivered bill reminder",
		"component", log.ComponentWorker,
		"bill_id", reminder.BillID,
		"notifier", w.notifier.Name())
	return nil
}
