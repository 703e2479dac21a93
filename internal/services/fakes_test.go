package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"spendwise/internal/core"
)

// memStore is an in-memory ledger used by the service tests.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[string]core.User
	expenses  []core.Expense
	budgets   map[core.BudgetType]core.Budget
	bills     []core.DueBill
	attempts  map[int64]int
	synced    map[int64]bool
	marks     map[int64]core.Date
	sinceHits int
	failList  error
	failMark  error
	// beforeBudgets runs between the expense and budget reads.
	beforeBudgets func()
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]core.User),
		budgets:  make(map[core.BudgetType]core.Budget),
		attempts: make(map[int64]int),
		synced:   make(map[int64]bool),
		marks:    make(map[int64]core.Date),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, u core.User) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return core.User{}, core.Conflict("Email already registered")
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.Email] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return core.User{}, core.NotFound("User not found")
	}
	return u, nil
}

func (m *memStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.expenses = append(m.expenses, e)
	return e, nil
}

func (m *memStore) ListExpenses(_ context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID == userID && (f.Category == "" || e.Category == f.Category) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ListExpensesSince(_ context.Context, userID int64, since time.Time) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinceHits++
	if m.failList != nil {
		return nil, m.failList
	}
	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID == userID && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) DeleteExpense(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return core.NotFound("Expense not found")
}

func (m *memStore) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.budgets[b.Type]; ok {
		b.ID = old.ID
	} else {
		b.ID = m.id()
	}
	m.budgets[b.Type] = b
	return b, nil
}

func (m *memStore) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	if hook := m.beforeBudgets; hook != nil {
		m.beforeBudgets = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, t := range []core.BudgetType{core.Weekly, core.Monthly} {
		if b, ok := m.budgets[t]; ok && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	m.bills = append(m.bills, core.DueBill{Bill: b})
	return b, nil
}

func (m *memStore) ListBills(_ context.Context, userID int64) ([]core.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Bill
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, b.Bill)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate.Time) })
	return out, nil
}

func (m *memStore) ListRemindableBills(_ context.Context) ([]core.DueBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []core.DueBill
	for _, b := range m.bills {
		if b.Status != core.Paid {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) MarkReminderSent(_ context.Context, billID int64, day core.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark != nil {
		return false, m.failMark
	}
	for i := range m.bills {
		if m.bills[i].ID != billID {
			continue
		}
		if m.bills[i].LastReminderSent.Equal(day) {
			return false, nil
		}
		m.bills[i].LastReminderSent = day
		m.marks[billID] = day
		return true, nil
	}
	return false, nil
}

func (m *memStore) ListPendingSync(_ context.Context, createdBefore time.Time, maxAttempts, limit int) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if m.synced[e.ID] || m.attempts[e.ID] >= maxAttempts || !e.Timestamp.Before(createdBefore) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) IncrementSyncAttempt(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[id]++
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []int64
	err       error
}

func (p *fakePublisher) PublishExpenseSync(_ context.Context, id, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

type fakeInvalidator struct {
	users []int64
}

func (f *fakeInvalidator) Invalidate(userID int64) {
	f.users = append(f.users, userID)
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []core.BillReminder
	failOn map[int64]bool
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Notify(_ context.Context, r core.BillReminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[r.BillID] {
		return core.NotificationFailure("relay down", errors.New("dial tcp: connection refused"))
	}
	n.sent = append(n.sent, r)
	return nil
}
