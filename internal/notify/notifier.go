// Package notify delivers bill reminders over the configured channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/core"
)

// Notifier delivers one reminder. Implementations must honour ctx
// cancellation; the caller bounds each attempt with a timeout.
type Notifier interface {
	Notify(ctx context.Context, r core.BillReminder) error
	Name() string
}

// RenderEmail builds the subject and plain-text body of a reminder email.
func RenderEmail(r core.BillReminder) (subject, body string) {
	subject = "⏰ Bill Reminder: " + r.BillName

	greeting := "Hello,"
	if name := strings.TrimSpace(r.RecipientName); name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}

	var b strings.Builder
	b.WriteString(greeting + "\n\n")
	b.WriteString("This is a friendly reminder for your bill.\n\n")
	fmt.Fprintf(&b, "Bill Name : %s\n", r.BillName)
	fmt.Fprintf(&b, "Amount    : %s\n", core.FormatRupees(r.Amount))
	fmt.Fprintf(&b, "Due Date  : %s\n\n", r.DueDate)
	b.WriteString("Please ensure timely payment to avoid penalties.\n\n")
	b.WriteString("– SpendWise\n")

	return subject, b.String()
}

// LogNotifier writes reminders to the structured log. It is the default
// channel for local development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, r core.BillReminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, _ := RenderEmail(r)
	n.logger.InfoContext(ctx, "Bill reminder",
		"component", "notify",
		"bill_id", r.BillID,
		"user_id", r.UserID,
		"recipient", r.Email,
		"subject", subject,
		"amount", r.Amount.StringFixed(2),
		"due_date", r.DueDate.String())
	return nil
}

// Publisher hands reminders to a message broker.
type Publisher interface {
	PublishBillReminder(ctx context.Context, r core.BillReminder) error
}

// QueueNotifier defers delivery to the worker by publishing the reminder.
type QueueNotifier struct {
	publisher Publisher
}

func NewQueueNotifier(p Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p}
}

func (n *QueueNotifier) Name() string { return "amqp" }

func (n *QueueNotifier) Notify(ctx context.Context, r core.BillReminder) error {
	if err := n.publisher.PublishBillReminder(ctx, r); err != nil {
		return fmt.Errorf("publish bill reminder: %w", err)
	}
	return nil
}
