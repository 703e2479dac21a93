package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/sheets/memory"
)

type fakeExportStore struct {
	expenses map[int64]core.Expense
	synced   map[int64]bool
}

func newFakeExportStore(es ...core.Expense) *fakeExportStore {
	s := &fakeExportStore{expenses: map[int64]core.Expense{}, synced: map[int64]bool{}}
	for _, e := range es {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *fakeExportStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.NotFound("Expense not found")
	}
	return e, nil
}

func (s *fakeExportStore) IsSynced(_ context.Context, id int64) (bool, error) {
	if _, ok := s.expenses[id]; !ok {
		return false, core.NotFound("Expense not found")
	}
	return s.synced[id], nil
}

func (s *fakeExportStore) MarkSynced(_ context.Context, id int64) error {
	s.synced[id] = true
	return nil
}

func (s *fakeExportStore) ListPendingSync(_ context.Context, _ time.Time, _, _ int) ([]core.Expense, error) {
	var out []core.Expense
	for id, e := range s.expenses {
		if !s.synced[id] {
			out = append(out, e)
		}
	}
	return out, nil
}

func testExpense(id int64) core.Expense {
	return core.Expense{
		ID: id, UserID: 1, Amount: decimal.NewFromInt(250), Category: core.Bills,
		Timestamp: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), PaymentMethod: core.Card,
	}
}

func TestHandleSyncMessage(t *testing.T) {
	store := newFakeExportStore(testExpense(1))
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(1, 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if !store.synced[1] || len(sheet.Rows()) != 1 {
		t.Fatalf("expense not exported: synced=%v rows=%d", store.synced[1], len(sheet.Rows()))
	}

	// redelivery after a successful export
	if err := w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(1, 1)); err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rows()) != 1 {
		t.Error("synced expense exported twice")
	}

	// deleted before the worker got to it
	if err := w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(99, 1)); err != nil {
		t.Errorf("missing expense should be acked, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleSyncMessage_AppendFailure(t *testing.T) {
	store := newFakeExportStore(testExpense(1))
	w := NewSyncWorker(store, failingWriter{}, 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewExpenseSyncMessage(1, 1)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if store.synced[1] {
		t.Error("failed export must not be marked synced")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	store := newFakeExportStore(testExpense(1), testExpense(2))
	store.synced[2] = true
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, 10)

	if err := w.StartupSyncCheck(context.Background(), 5); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if len(sheet.Rows()) != 1 || !store.synced[1] {
		t.Errorf("rows=%d synced=%v", len(sheet.Rows()), store.synced)
	}
}

type recordingNotifier struct {
	sent []core.BillReminder
	err  error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, r core.BillReminder) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, r)
	return nil
}

func TestHandleReminderMessage(t *testing.T) {
	n := &recordingNotifier{}
	w := NewReminderWorker(n)
	msg := amqp.NewBillReminderMessage(core.BillReminder{
		BillID: 3, UserID: 1, Email: "a@example.com", BillName: "Rent",
		Amount: decimal.RequireFromString("12000"), DueDate: core.NewDate(2025, 6, 10),
	})

	if err := w.HandleReminderMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleReminderMessage: %v", err)
	}
	if len(n.sent) != 1 || n.sent[0].DueDate.String() != "2025-06-10" || !n.sent[0].Amount.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("unexpected delivery: %+v", n.sent)
	}

	n.err = errors.New("smtp: 421 try again later")
	if err := w.HandleReminderMessage(context.Background(), msg); err == nil {
		t.Error("delivery failure should be returned for requeue")
	}

	bad := *msg
	bad.Amount = "twelve"
	n.err = nil
	if err := w.HandleReminderMessage(context.Background(), &bad); err != nil {
		t.Errorf("malformed message should be dropped, got %v", err)
	}
}
