package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/sheets"
)

// ExportStore is what the export worker reads and updates.
type ExportStore interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	IsSynced(ctx context.Context, id int64) (bool, error)
	MarkSynced(ctx context.Context, id int64) error
	ListPendingSync(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]core.Expense, error)
}

// SyncWorker exports expenses from SQLite to the spreadsheet
type SyncWorker struct {
	storage   ExportStore
	sheets    sheets.ExpenseWriter
	batchSize int
}

func NewSyncWorker(storage ExportStore, sheets sheets.ExpenseWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP. A
// message for an expense that was deleted or already exported is acked
// without doing anything.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"component", log.ComponentWorker,
		"id", msg.ID,
		"version", msg.Version)

	synced, err := w.storage.IsSynced(ctx, msg.ID)
	if core.IsKind(err, core.KindNotFound) {
		slog.InfoContext(ctx, "Expense no longer exists, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if synced {
		slog.DebugContext(ctx, "Expense already synced, skipping", "id", msg.ID)
		return nil
	}

	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.syncExpenseToSheets(ctx, expense); err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}
	return nil
}

// StartupSyncCheck exports expenses left unsynced while the worker was
// down. Failures are logged and left for the republisher.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context, maxAttempts int) error {
	pending, err := w.storage.ListPendingSync(ctx, time.Now(), maxAttempts, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, e := range pending {
		if err := w.syncExpenseToSheets(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				"id", e.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncExpenseToSheets(ctx context.Context, expense core.Expense) error {
	ref, err := w.sheets.Append(ctx, expense)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row exists now; a failed mark only means a possible duplicate row
	// on redelivery.
	if err := w.storage.MarkSynced(ctx, expense.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"component", log.ComponentSheets,
		"id", expense.ID,
		"sheets_ref", ref,
		"amount", expense.Amount.StringFixed(2))

	return nil
}
