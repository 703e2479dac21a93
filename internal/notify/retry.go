package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
)

const maxBackoff = 30 * time.Second

// Retrying bounds each delivery attempt with a timeout and retries failures
// with exponential backoff. A reminder that still fails is reported as a
// notification error; the caller decides whether to mark it sent.
type Retrying struct {
	next       Notifier
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewRetrying(next Notifier, timeout time.Duration, maxRetries int, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{
		next:       next,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger,
		sleep:      sleepContext,
	}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Notify(ctx context.Context, rem core.BillReminder) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, backoff(attempt-1)); err != nil {
				return core.NotificationFailure("reminder delivery cancelled", err)
			}
		}

		lastErr = r.attempt(ctx, rem)
		if lastErr == nil {
			return nil
		}

		r.logger.WarnContext(ctx, "Reminder delivery failed",
			"component", "notify",
			"notifier", r.next.Name(),
			"bill_id", rem.BillID,
			"attempt", attempt+1,
			"error", lastErr)

		if ctx.Err() != nil {
			break
		}
	}
	return core.NotificationFailure(
		fmt.Sprintf("reminder for bill %d not delivered via %s", rem.BillID, r.next.Name()), lastErr)
}

func (r *Retrying) attempt(ctx context.Context, rem core.BillReminder) error {
	if r.timeout <= 0 {
		return r.next.Notify(ctx, rem)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Notify(ctx, rem)
}

// backoff returns 1s doubled per attempt, capped at 30s.
func backoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
