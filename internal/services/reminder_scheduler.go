package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"spendwise/internal/log"
)

// ReminderRunner runs one reminder scan.
type ReminderRunner interface {
	ProcessDueReminders(ctx context.Context, now time.Time) (int, error)
}

// ReminderScheduler runs the reminder scan on a cron schedule. Ticks never
// overlap within one process; a tick that arrives while a scan is running
// is skipped.
type ReminderScheduler struct {
	runner   ReminderRunner
	schedule string
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	scan    sync.Mutex
	// first tracks the scan Start runs, which cron does not.
	first sync.WaitGroup
}

// NewReminderScheduler creates a scheduler for the given cron spec, such as
// "@daily" or "0 8 * * *".
func NewReminderScheduler(runner ReminderRunner, schedule string) *ReminderScheduler {
	return &ReminderScheduler{
		runner:   runner,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the cron job and runs one scan immediately. Returns an
// error if already running or the schedule does not parse.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("reminder scheduler is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("schedule reminders %q: %w", s.schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = c
	s.running = true
	c.Start()

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.tick()
	}()

	slog.InfoContext(ctx, "Reminder scheduler started",
		"component", log.ComponentReminder,
		"schedule", s.schedule)
	return nil
}

// Stop cancels any running scan and waits for it to return.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	stopped := s.cron.Stop()
	s.mu.Unlock()

	firstDone := make(chan struct{})
	go func() {
		s.first.Wait()
		close(firstDone)
	}()

	for _, done := range []<-chan struct{}{stopped.Done(), firstDone} {
		select {
		case <-done:
		case <-ctx.Done():
			slog.WarnContext(ctx, "Reminder scheduler stop timed out")
			return ctx.Err()
		}
	}

	slog.InfoContext(ctx, "Reminder scheduler stopped gracefully")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce runs a single scan outside the schedule.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	s.scan.Lock()
	defer s.scan.Unlock()
	return s.runner.ProcessDueReminders(ctx, s.now())
}

func (s *ReminderScheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	if !s.scan.TryLock() {
		slog.WarnContext(ctx, "Previous reminder scan still running, skipping tick",
			"component", log.ComponentReminder)
		return
	}
	defer s.scan.Unlock()

	if _, err := s.runner.ProcessDueReminders(ctx, s.now()); err != nil {
		slog.ErrorContext(ctx, "Reminder scan failed",
			"component", log.ComponentReminder,
			"error", err)
	}
}
