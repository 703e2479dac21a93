package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the repository, one method per statement.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Currency     string
	CreatedAt    string // RFC 3339, UTC
}

type Expense struct {
	ID            int64
	UserID        int64
	AmountCents   int64
	Category      string
	Timestamp     string
	PaymentMethod string
	Note          string
	SyncStatus    string
	SyncAttempts  int64
}

type Budget struct {
	ID          int64
	UserID      int64
	BudgetType  string
	AmountCents int64
	StartDate   string
}

type Bill struct {
	ID               int64
	UserID           int64
	BillName         string
	AmountCents      int64
	DueDate          string
	ReminderDays     int64
	Status           string
	IsRecurring      bool
	LastReminderSent sql.NullString
}

type ListRemindableBillsRow struct {
	Bill
	OwnerEmail string
	OwnerName  string
}

// created_at is rendered as text so scanning does not depend on the driver's
// column type detection.
const userColumns = `id, email, password_hash, name, currency, strftime('%Y-%m-%dT%H:%M:%SZ', created_at)`

const createUser = `
INSERT INTO users (email, password_hash, name, currency)
VALUES (?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Currency     string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name, arg.Currency)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Currency, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT ` + userColumns + `
FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Currency, &u.CreatedAt)
	return u, err
}

const getUser = `
SELECT ` + userColumns + `
FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Currency, &u.CreatedAt)
	return u, err
}

const expenseColumns = `id, user_id, amount_cents, category, timestamp, payment_method, note, sync_status, sync_attempts`

func scanExpense(s interface{ Scan(...any) error }) (Expense, error) {
	var e Expense
	err := s.Scan(&e.ID, &e.UserID, &e.AmountCents, &e.Category, &e.Timestamp,
		&e.PaymentMethod, &e.Note, &e.SyncStatus, &e.SyncAttempts)
	return e, err
}

func scanExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const createExpense = `
INSERT INTO expenses (user_id, amount_cents, category, timestamp, payment_method, note)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	UserID        int64
	AmountCents   int64
	Category      string
	Timestamp     string
	PaymentMethod string
	Note          string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.UserID, arg.AmountCents, arg.Category, arg.Timestamp, arg.PaymentMethod, arg.Note)
	return scanExpense(row)
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

// Empty category and bound strings disable the corresponding filter.
const listExpenses = `
SELECT ` + expenseColumns + `
FROM expenses
WHERE user_id = ?
  AND (? = '' OR category = ?)
  AND (? = '' OR timestamp >= ?)
  AND (? = '' OR timestamp < ?)
ORDER BY timestamp DESC, id DESC`

type ListExpensesParams struct {
	UserID   int64
	Category string
	From     string
	Before   string
}

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, arg.UserID,
		arg.Category, arg.Category,
		arg.From, arg.From,
		arg.Before, arg.Before)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const deleteExpense = `DELETE FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const syncStatusSynced = "synced"

const markExpenseSynced = `UPDATE expenses SET sync_status = 'synced' WHERE id = ?`

func (q *Queries) MarkExpenseSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, id)
	return err
}

const incrementSyncAttempt = `UPDATE expenses SET sync_attempts = sync_attempts + 1 WHERE id = ?`

func (q *Queries) IncrementSyncAttempt(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, incrementSyncAttempt, id)
	return err
}

const listPendingSync = `
SELECT ` + expenseColumns + `
FROM expenses
WHERE sync_status = 'pending'
  AND sync_attempts < ?
  AND created_at < ?
ORDER BY created_at ASC
LIMIT ?`

func (q *Queries) ListPendingSync(ctx context.Context, maxAttempts int64, createdBefore time.Time, limit int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listPendingSync, maxAttempts, createdBefore.UTC().Format(time.DateTime), limit)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const upsertBudget = `
INSERT INTO budgets (user_id, budget_type, amount_cents, start_date)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, budget_type) DO UPDATE SET
    amount_cents = excluded.amount_cents,
    start_date   = excluded.start_date
RETURNING id, user_id, budget_type, amount_cents, start_date`

type UpsertBudgetParams struct {
	UserID      int64
	BudgetType  string
	AmountCents int64
	StartDate   string
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, upsertBudget, arg.UserID, arg.BudgetType, arg.AmountCents, arg.StartDate)
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.BudgetType, &b.AmountCents, &b.StartDate)
	return b, err
}

const listBudgets = `
SELECT id, user_id, budget_type, amount_cents, start_date
FROM budgets WHERE user_id = ?
ORDER BY CASE budget_type WHEN 'weekly' THEN 0 ELSE 1 END`

func (q *Queries) ListBudgets(ctx context.Context, userID int64) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.BudgetType, &b.AmountCents, &b.StartDate); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const billColumns = `id, user_id, bill_name, amount_cents, due_date, reminder_days, status, is_recurring, last_reminder_sent`

func billScanArgs(b *Bill) []any {
	return []any{&b.ID, &b.UserID, &b.BillName, &b.AmountCents, &b.DueDate,
		&b.ReminderDays, &b.Status, &b.IsRecurring, &b.LastReminderSent}
}

const createBill = `
INSERT INTO bills (user_id, bill_name, amount_cents, due_date, reminder_days, status, is_recurring)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + billColumns

type CreateBillParams struct {
	UserID       int64
	BillName     string
	AmountCents  int64
	DueDate      string
	ReminderDays int64
	Status       string
	IsRecurring  bool
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRowContext(ctx, createBill, arg.UserID, arg.BillName, arg.AmountCents,
		arg.DueDate, arg.ReminderDays, arg.Status, arg.IsRecurring)
	var b Bill
	err := row.Scan(billScanArgs(&b)...)
	return b, err
}

const listBills = `
SELECT ` + billColumns + `
FROM bills WHERE user_id = ?
ORDER BY due_date ASC, id ASC`

func (q *Queries) ListBills(ctx context.Context, userID int64) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, listBills, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(billScanArgs(&b)...); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const listRemindableBills = `
SELECT b.id, b.user_id, b.bill_name, b.amount_cents, b.due_date, b.reminder_days,
       b.status, b.is_recurring, b.last_reminder_sent, u.email, u.name
FROM bills b
JOIN users u ON u.id = b.user_id
WHERE b.status <> 'PAID'
ORDER BY b.due_date ASC, b.id ASC`

func (q *Queries) ListRemindableBills(ctx context.Context) ([]ListRemindableBillsRow, error) {
	rows, err := q.db.QueryContext(ctx, listRemindableBills)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRemindableBillsRow
	for rows.Next() {
		var r ListRemindableBillsRow
		args := append(billScanArgs(&r.Bill), &r.OwnerEmail, &r.OwnerName)
		if err := rows.Scan(args...); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// The guard on last_reminder_sent makes a second mark for the same day a
// no-op, so two overlapping scans cannot both record a send.
const markReminderSent = `
UPDATE bills SET last_reminder_sent = ?
WHERE id = ? AND (last_reminder_sent IS NULL OR last_reminder_sent <> ?)`

func (q *Queries) MarkReminderSent(ctx context.Context, id int64, day string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markReminderSent, day, id, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
