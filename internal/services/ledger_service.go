package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// LedgerStore persists expenses, budgets and bills.
type LedgerStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	ListBills(ctx context.Context, userID int64) ([]core.Bill, error)
}

// ExpensePublisher announces new expenses to the export worker.
type ExpensePublisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
}

// Invalidator drops cached figures derived from a user's ledger.
type Invalidator interface {
	Invalidate(userID int64)
}

// LedgerService orchestrates ledger writes across SQLite, AMQP and the
// analytics cache. The publisher and invalidator are optional.
type LedgerService struct {
	store       LedgerStore
	publisher   ExpensePublisher
	invalidator Invalidator
	logger      *log.StructuredLogger
	now         func() time.Time
}

func NewLedgerService(store LedgerStore, publisher ExpensePublisher, invalidator Invalidator, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      log.NewStructuredLogger(logger.WithComponent(log.ComponentLedger)),
		now:         time.Now,
	}
}

// AddExpense validates and saves an expense, then publishes a sync message.
// A zero Timestamp means now and an empty PaymentMethod means cash. A publish
// failure is logged; the expense is already saved.
func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.Cash
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, core.Invalid(err)
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate(saved.UserID)
	s.logger.LogExpenseCreated(ctx, saved)

	// version 1 for a new expense
	if err := s.publishSyncMessage(ctx, saved.ID, 1); err != nil {
		s.logger.LogError(ctx, "Failed to publish sync message", err, log.OpPublish,
			log.NewFields().WithExpense(saved))
	}

	return saved, nil
}

// ListExpenses returns the user's expenses newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, core.Invalid(core.ErrInvalidCategory)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return nil, core.Invalid(fmt.Errorf("end_date must not be before start_date"))
	}
	return s.store.ListExpenses(ctx, userID, f)
}

// DeleteExpense removes an expense the user owns.
func (s *LedgerService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// SetBudget creates or replaces the user's budget of the given type. The
// start date is reset to today on every call.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.StartDate = core.DateOf(s.now())
	if err := b.Validate(); err != nil {
		return core.Budget{}, core.Invalid(err)
	}

	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.invalidate(saved.UserID)

	slog.InfoContext(ctx, "Budget set",
		"component", log.ComponentLedger,
		"user_id", saved.UserID,
		"budget_type", saved.Type,
		"amount", saved.Amount.StringFixed(2))
	return saved, nil
}

func (s *LedgerService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

// AddBill saves a new bill. Bills always start as UPCOMING.
func (s *LedgerService) AddBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	b.Status = core.Upcoming
	if err := b.Validate(); err != nil {
		return core.Bill{}, core.Invalid(err)
	}

	saved, err := s.store.CreateBill(ctx, b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("save bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill created",
		"component", log.ComponentLedger,
		"bill_id", saved.ID,
		"user_id", saved.UserID,
		"due_date", saved.DueDate.String())
	return saved, nil
}

// ListBills returns the user's bills by due date.
func (s *LedgerService) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.store.ListBills(ctx, userID)
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return nil
	}
	return s.publisher.PublishExpenseSync(ctx, id, version)
}

func (s *LedgerService) invalidate(userID int64) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
