package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for unsynced expenses (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of expenses republished per poll (default: 20)
	BatchSize int

	// MaxRetries is how many times one expense is republished before it is
	// left alone (default: 5)
	MaxRetries int

	// MinAge skips expenses younger than this so the publish made on create
	// has time to be consumed (default: 2m)
	MinAge time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    20,
		MaxRetries:   5,
		MinAge:       2 * time.Minute,
	}
}

// SyncStore lists and counts republish attempts of unsynced expenses.
type SyncStore interface {
	ListPendingSync(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]core.Expense, error)
	IncrementSyncAttempt(ctx context.Context, id int64) error
}

// SyncProcessor republishes expense sync messages for expenses the export
// worker has not confirmed. It recovers from messages lost while the broker
// or the worker was down.
type SyncProcessor struct {
	store     SyncStore
	publisher ExpensePublisher
	config    SyncProcessorConfig
	now       func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(store SyncStore, publisher ExpensePublisher, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		store:     store,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"component", log.ComponentWorker,
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch republishes one batch and returns how many were published.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	cutoff := p.now().Add(-p.config.MinAge)
	items, err := p.store.ListPendingSync(ctx, cutoff, p.config.MaxRetries, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list unsynced expenses", "error", err)
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Republishing unsynced expenses", "count", len(items))

	published := 0
	for _, e := range items {
		select {
		case <-p.stopCh:
			return published
		case <-ctx.Done():
			return published
		default:
		}

		// count the attempt first so a failing broker cannot pin the batch
		if err := p.store.IncrementSyncAttempt(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to increment sync attempt", "id", e.ID, "error", err)
			continue
		}
		if err := p.publisher.PublishExpenseSync(ctx, e.ID, 1); err != nil {
			slog.WarnContext(ctx, "Republish failed", "id", e.ID, "error", err)
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Republished unsynced expenses",
		"component", log.ComponentWorker,
		"published", published,
		"pending", len(items))
	return published
}
