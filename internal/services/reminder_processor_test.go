package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	return log.New(cfg)
}

func seedBill(m *memStore, name string, due core.Date, status core.BillStatus, lastSent core.Date) int64 {
	id := m.id()
	m.bills = append(m.bills, core.DueBill{
		Bill: core.Bill{
			ID: id, UserID: 1, Name: name, Amount: decimal.NewFromInt(500),
			DueDate: due, ReminderDays: 3, Status: status, LastReminderSent: lastSent,
		},
		OwnerEmail: "owner@example.com",
		OwnerName:  "Owner",
	})
	return id
}

func TestProcessDueReminders(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	today := core.DateOf(now)

	rent := seedBill(store, "Rent", core.NewDate(2025, 6, 10), core.Upcoming, core.Date{})
	seedBill(store, "Insurance", core.NewDate(2025, 7, 1), core.Upcoming, core.Date{})
	seedBill(store, "Gym", core.NewDate(2025, 6, 9), core.Paid, core.Date{})
	seedBill(store, "Water", core.NewDate(2025, 6, 9), core.Upcoming, today)
	phone := seedBill(store, "Phone", core.NewDate(2025, 6, 5), core.Overdue, today.AddDays(-1))

	notifier := &fakeNotifier{}
	p := NewReminderProcessor(store, notifier, quietLogger())

	sent, err := p.ProcessDueReminders(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(notifier.sent) != 2 || notifier.sent[0].BillName != "Rent" || notifier.sent[1].BillName != "Phone" {
		t.Fatalf("unexpected reminders: %+v", notifier.sent)
	}
	if notifier.sent[0].Email != "owner@example.com" || notifier.sent[0].RecipientName != "Owner" {
		t.Errorf("recipient not filled: %+v", notifier.sent[0])
	}
	for _, id := range []int64{rent, phone} {
		if !store.marks[id].Equal(today) {
			t.Errorf("bill %d not marked for today", id)
		}
	}

	// a second scan on the same day sends nothing
	sent, err = p.ProcessDueReminders(context.Background(), now.Add(time.Hour))
	if err != nil || sent != 0 {
		t.Fatalf("second scan: sent=%d err=%v", sent, err)
	}

	// the next day nags again
	sent, _ = p.ProcessDueReminders(context.Background(), now.Add(24*time.Hour))
	if sent != 3 {
		t.Errorf("next day sent = %d, want 3", sent)
	}
}

func TestProcessDueReminders_FailedDeliveryIsRetriedNextScan(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	id := seedBill(store, "Rent", core.NewDate(2025, 6, 10), core.Upcoming, core.Date{})

	notifier := &fakeNotifier{failOn: map[int64]bool{id: true}}
	p := NewReminderProcessor(store, notifier, quietLogger())

	sent, err := p.ProcessDueReminders(context.Background(), now)
	if err != nil || sent != 0 {
		t.Fatalf("sent=%d err=%v", sent, err)
	}
	if _, marked := store.marks[id]; marked {
		t.Fatal("failed delivery must not be recorded")
	}

	notifier.failOn = nil
	sent, _ = p.ProcessDueReminders(context.Background(), now.Add(time.Minute))
	if sent != 1 {
		t.Errorf("retry sent = %d, want 1", sent)
	}
}

func TestProcessDueReminders_FailedDeliveryDoesNotStopScan(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	today := core.DateOf(now)
	rent := seedBill(store, "Rent", core.NewDate(2025, 6, 10), core.Upcoming, core.Date{})
	power := seedBill(store, "Electricity", core.NewDate(2025, 6, 9), core.Upcoming, core.Date{})
	internet := seedBill(store, "Internet", core.NewDate(2025, 6, 11), core.Upcoming, core.Date{})

	notifier := &fakeNotifier{failOn: map[int64]bool{power: true}}
	p := NewReminderProcessor(store, notifier, quietLogger())

	sent, err := p.ProcessDueReminders(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(notifier.sent) != 2 || notifier.sent[0].BillID != rent || notifier.sent[1].BillID != internet {
		t.Fatalf("unexpected reminders: %+v", notifier.sent)
	}
	for _, id := range []int64{rent, internet} {
		if !store.marks[id].Equal(today) {
			t.Errorf("bill %d not marked for today", id)
		}
	}
	if _, marked := store.marks[power]; marked {
		t.Error("bill with failed delivery must not be marked")
	}
}

func TestProcessDueReminders_StoreFailures(t *testing.T) {
	t.Run("list failure aborts", func(t *testing.T) {
		store := newMemStore()
		store.failList = core.StoreFailure("list remindable bills", errors.New("disk I/O error"))
		p := NewReminderProcessor(store, &fakeNotifier{}, quietLogger())

		_, err := p.ProcessDueReminders(context.Background(), time.Now())
		if !core.IsKind(err, core.KindStore) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("mark failure continues", func(t *testing.T) {
		store := newMemStore()
		now := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
		seedBill(store, "A", core.NewDate(2025, 6, 9), core.Upcoming, core.Date{})
		seedBill(store, "B", core.NewDate(2025, 6, 9), core.Upcoming, core.Date{})
		store.failMark = errors.New("database is locked")
		notifier := &fakeNotifier{}
		p := NewReminderProcessor(store, notifier, quietLogger())

		sent, err := p.ProcessDueReminders(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent != 0 || len(notifier.sent) != 2 {
			t.Errorf("sent=%d notified=%d, want 0 and 2", sent, len(notifier.sent))
		}
	})
}

func TestProcessDueReminders_NotInitialized(t *testing.T) {
	p := &ReminderProcessor{}
	if _, err := p.ProcessDueReminders(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for uninitialized processor")
	}
}
