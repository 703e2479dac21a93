package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/notify"
)

// ReminderStore is the slice of the ledger the reminder scan needs.
type ReminderStore interface {
	ListRemindableBills(ctx context.Context) ([]core.DueBill, error)
	MarkReminderSent(ctx context.Context, billID int64, day core.Date) (bool, error)
}

// ReminderProcessor sends reminders for every bill that is due today.
type ReminderProcessor struct {
	store    ReminderStore
	notifier notify.Notifier
	logger   *log.StructuredLogger
}

// NewReminderProcessor creates a new reminder processor
func NewReminderProcessor(store ReminderStore, notifier notify.Notifier, logger *log.Logger) *ReminderProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReminderProcessor{
		store:    store,
		notifier: notifier,
		logger:   log.NewStructuredLogger(logger.WithComponent(log.ComponentReminder)),
	}
}

// ProcessDueReminders scans unpaid bills and notifies the owners of those due
// on now's calendar day. A failed delivery leaves the bill unmarked so the
// next scan tries again. Only a failure to list bills aborts the scan.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.notifier == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	bills, err := p.store.ListRemindableBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("list remindable bills: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing bill reminders",
		"component", log.ComponentReminder,
		"candidates", len(bills),
		"today", today.String())

	sent := 0
	for _, bill := range bills {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !ReminderDue(bill.Bill, today) {
			continue
		}

		if err := p.notifier.Notify(ctx, bill.Reminder()); err != nil {
			p.logger.LogError(ctx, "Failed to send bill reminder", err, log.OpNotify,
				log.NewFields().WithBill(bill.Bill).WithUser(bill.UserID))
			continue
		}

		marked, err := p.store.MarkReminderSent(ctx, bill.ID, today)
		if err != nil {
			p.logger.LogError(ctx, "Failed to record reminder", err, log.OpUpdate,
				log.NewFields().WithBill(bill.Bill))
			continue
		}
		if !marked {
			slog.WarnContext(ctx, "Reminder already recorded today, duplicate send",
				"component", log.ComponentReminder,
				"bill_id", bill.ID,
				"today", today.String())
			continue
		}

		sent++
		p.logger.LogReminderSent(ctx, bill.Bill, p.notifier.Name())
	}

	slog.InfoContext(ctx, "Bill reminder processing complete",
		"component", log.ComponentReminder,
		"sent", sent,
		"total_checked", len(bills))

	return sent, nil
}
