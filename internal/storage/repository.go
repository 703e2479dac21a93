package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"spendwise/internal/core"
)

// timestampLayout is fixed width so lexical order in SQLite matches time
// order.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens the database, enables WAL with a busy timeout
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Migrations first: the migrate driver needs exclusive access while it
	// changes the schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Currency:     u.Currency,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.Conflict("Email already registered")
		}
		return core.User{}, core.StoreFailure("create user", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", row.ID)
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("User not found")
	}
	if err != nil {
		return core.User{}, core.StoreFailure("get user by email", err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("User not found")
	}
	if err != nil {
		return core.User{}, core.StoreFailure("get user", err)
	}
	return toCoreUser(row), nil
}

func toCoreUser(u User) core.User {
	created, _ := time.Parse(time.RFC3339, u.CreatedAt)
	return core.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Currency:     u.Currency,
		CreatedAt:    created,
	}
}

// Expenses

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserID:        e.UserID,
		AmountCents:   core.ToCents(e.Amount),
		Category:      string(e.Category),
		Timestamp:     formatTimestamp(e.Timestamp),
		PaymentMethod: string(e.PaymentMethod),
		Note:          e.Note,
	})
	if err != nil {
		return core.Expense{}, core.StoreFailure("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount_cents", row.AmountCents,
		"category", row.Category)

	return toCoreExpense(row)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.NotFound("Expense not found")
	}
	if err != nil {
		return core.Expense{}, core.StoreFailure("get expense", err)
	}
	return toCoreExpense(row)
}

// ListExpenses returns the user's expenses newest first. Filter dates are
// inclusive calendar days in the server's local time zone.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	params := ListExpensesParams{UserID: userID, Category: string(f.Category)}
	if !f.From.IsZero() {
		params.From = formatTimestamp(localMidnight(f.From))
	}
	if !f.To.IsZero() {
		params.Before = formatTimestamp(localMidnight(f.To.AddDays(1)))
	}

	rows, err := r.queries.ListExpenses(ctx, params)
	if err != nil {
		return nil, core.StoreFailure("list expenses", err)
	}
	return toCoreExpenses(rows)
}

// ListExpensesSince returns every expense of the user with a timestamp at or
// after since, including future-dated ones.
func (r *SQLiteRepository) ListExpensesSince(ctx context.Context, userID int64, since time.Time) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, ListExpensesParams{
		UserID: userID,
		From:   formatTimestamp(since),
	})
	if err != nil {
		return nil, core.StoreFailure("list expenses", err)
	}
	return toCoreExpenses(rows)
}

// DeleteExpense removes an expense owned by userID. A missing expense and one
// owned by someone else are indistinguishable to the caller.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteExpense(ctx, id, userID)
	if err != nil {
		return core.StoreFailure("delete expense", err)
	}
	if n == 0 {
		return core.NotFound("Expense not found")
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", userID)
	return nil
}

// IsSynced reports whether the expense has already been exported.
func (r *SQLiteRepository) IsSynced(ctx context.Context, id int64) (bool, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, core.NotFound("Expense not found")
	}
	if err != nil {
		return false, core.StoreFailure("get expense sync status", err)
	}
	return row.SyncStatus == syncStatusSynced, nil
}

// MarkSynced records a successful spreadsheet export.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkExpenseSynced(ctx, id); err != nil {
		return core.StoreFailure("mark expense synced", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// IncrementSyncAttempt counts a republish of an unsynced expense.
func (r *SQLiteRepository) IncrementSyncAttempt(ctx context.Context, id int64) error {
	if err := r.queries.IncrementSyncAttempt(ctx, id); err != nil {
		return core.StoreFailure("increment sync attempt", err)
	}
	return nil
}

// ListPendingSync returns unsynced expenses created before createdBefore that
// have been published fewer than maxAttempts times.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]core.Expense, error) {
	rows, err := r.queries.ListPendingSync(ctx, int64(maxAttempts), createdBefore, int64(limit))
	if err != nil {
		return nil, core.StoreFailure("list pending sync", err)
	}
	return toCoreExpenses(rows)
}

func toCoreExpense(e Expense) (core.Expense, error) {
	ts, err := time.Parse(timestampLayout, e.Timestamp)
	if err != nil {
		return core.Expense{}, core.StoreFailure("parse expense timestamp", err)
	}
	return core.Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        core.FromCents(e.AmountCents),
		Category:      core.Category(e.Category),
		Timestamp:     ts.Local(),
		PaymentMethod: core.PaymentMethod(e.PaymentMethod),
		Note:          e.Note,
	}, nil
}

func toCoreExpenses(rows []Expense) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func localMidnight(d core.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}

// Budgets

// UpsertBudget creates or replaces the user's budget of the given type. The
// UNIQUE(user_id, budget_type) constraint keeps one row per type.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row, err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:      b.UserID,
		BudgetType:  string(b.Type),
		AmountCents: core.ToCents(b.Amount),
		StartDate:   b.StartDate.String(),
	})
	if err != nil {
		return core.Budget{}, core.StoreFailure("upsert budget", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", row.ID,
		"user_id", row.UserID,
		"budget_type", row.BudgetType,
		"amount_cents", row.AmountCents)

	return toCoreBudget(row), nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, core.StoreFailure("list budgets", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCoreBudget(row))
	}
	return out, nil
}

func toCoreBudget(b Budget) core.Budget {
	start, _ := core.ParseDate(b.StartDate)
	return core.Budget{
		ID:        b.ID,
		UserID:    b.UserID,
		Type:      core.BudgetType(b.BudgetType),
		Amount:    core.FromCents(b.AmountCents),
		StartDate: start,
	}
}

// Bills

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	row, err := r.queries.CreateBill(ctx, CreateBillParams{
		UserID:       b.UserID,
		BillName:     b.Name,
		AmountCents:  core.ToCents(b.Amount),
		DueDate:      b.DueDate.String(),
		ReminderDays: int64(b.ReminderDays),
		Status:       string(b.Status),
		IsRecurring:  b.IsRecurring,
	})
	if err != nil {
		return core.Bill{}, core.StoreFailure("create bill", err)
	}

	slog.InfoContext(ctx, "Bill created",
		"id", row.ID,
		"user_id", row.UserID,
		"due_date", row.DueDate)

	return toCoreBill(row), nil
}

// ListBills returns the user's bills by due date, earliest first.
func (r *SQLiteRepository) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	rows, err := r.queries.ListBills(ctx, userID)
	if err != nil {
		return nil, core.StoreFailure("list bills", err)
	}
	out := make([]core.Bill, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCoreBill(row))
	}
	return out, nil
}

// ListRemindableBills returns every bill that is not paid, with its owner's
// contact details.
func (r *SQLiteRepository) ListRemindableBills(ctx context.Context) ([]core.DueBill, error) {
	rows, err := r.queries.ListRemindableBills(ctx)
	if err != nil {
		return nil, core.StoreFailure("list remindable bills", err)
	}
	out := make([]core.DueBill, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.DueBill{
			Bill:       toCoreBill(row.Bill),
			OwnerEmail: row.OwnerEmail,
			OwnerName:  row.OwnerName,
		})
	}
	return out, nil
}

// MarkReminderSent records that a reminder went out on day. It reports false
// when the bill was already marked for that day.
func (r *SQLiteRepository) MarkReminderSent(ctx context.Context, billID int64, day core.Date) (bool, error) {
	n, err := r.queries.MarkReminderSent(ctx, billID, day.String())
	if err != nil {
		return false, core.StoreFailure("mark reminder sent", err)
	}
	return n == 1, nil
}

func toCoreBill(b Bill) core.Bill {
	due, _ := core.ParseDate(b.DueDate)
	var last core.Date
	if b.LastReminderSent.Valid {
		last, _ = core.ParseDate(b.LastReminderSent.String)
	}
	return core.Bill{
		ID:               b.ID,
		UserID:           b.UserID,
		Name:             b.BillName,
		Amount:           core.FromCents(b.AmountCents),
		DueDate:          due,
		ReminderDays:     int(b.ReminderDays),
		Status:           core.BillStatus(b.Status),
		IsRecurring:      b.IsRecurring,
		LastReminderSent: last,
	}
}
