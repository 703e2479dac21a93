package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

func TestAnalyticsService_CachesUntilInvalidated(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	store.expenses = []core.Expense{
		{ID: 1, UserID: 1, Amount: decimal.NewFromInt(500), Category: core.Food, Timestamp: now.Add(-time.Hour)},
		{ID: 2, UserID: 1, Amount: decimal.NewFromInt(300), Category: core.Transport, Timestamp: now.Add(-10 * 24 * time.Hour)},
	}

	s := NewAnalyticsService(store, 10, time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := s.Dashboard(ctx, 1)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TodayTotal.StringFixed(2) != "500.00" || d.MonthTotal.StringFixed(2) != "800.00" {
		t.Errorf("today=%s month=%s", d.TodayTotal, d.MonthTotal)
	}

	if _, err := s.Dashboard(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if store.sinceHits != 1 {
		t.Errorf("store hits = %d, want 1 (second call cached)", store.sinceHits)
	}

	s.Invalidate(1)
	if _, err := s.Dashboard(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if store.sinceHits != 2 {
		t.Errorf("store hits = %d, want 2 after invalidation", store.sinceHits)
	}

	in, err := s.Insights(ctx, 1)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if in.TopCategory != "FOOD" || in.BudgetStatus != "No budgets set" {
		t.Errorf("insights = %+v", in)
	}
	if len(s.Caches()) != 2 {
		t.Error("expected two caches for cleanup")
	}
}

func TestAnalyticsService_WriteDuringComputeIsNotHidden(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	store.expenses = []core.Expense{
		{ID: 1, UserID: 1, Amount: decimal.NewFromInt(500), Category: core.Food, Timestamp: now.Add(-time.Hour)},
	}

	s := NewAnalyticsService(store, 10, time.Minute)
	s.now = func() time.Time { return now }
	ledger := NewLedgerService(store, nil, s, quietLogger())
	ledger.now = s.now
	ctx := context.Background()

	// another request records an expense after this one has read the ledger
	store.beforeBudgets = func() {
		if _, err := ledger.AddExpense(ctx, core.Expense{UserID: 1, Amount: decimal.NewFromInt(250), Category: core.Food}); err != nil {
			t.Errorf("AddExpense: %v", err)
		}
	}
	d, err := s.Dashboard(ctx, 1)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TodayTotal.StringFixed(2) != "500.00" {
		t.Errorf("in-flight today = %s, want 500.00", d.TodayTotal)
	}

	d, err = s.Dashboard(ctx, 1)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TodayTotal.StringFixed(2) != "750.00" {
		t.Errorf("today after write = %s, want 750.00", d.TodayTotal)
	}

	store.beforeBudgets = func() { s.Invalidate(1) }
	if _, err := s.Insights(ctx, 1); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	hits := store.sinceHits
	if _, err := s.Insights(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if store.sinceHits != hits+1 {
		t.Error("insights computed across an invalidation must not be cached")
	}
}

func TestAnalyticsService_NoCache(t *testing.T) {
	store := newMemStore()
	s := NewAnalyticsService(store, 0, 0)

	for i := 0; i < 2; i++ {
		if _, err := s.Insights(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
	}
	if store.sinceHits != 2 {
		t.Errorf("store hits = %d, want 2 without cache", store.sinceHits)
	}
	s.Invalidate(1)
	if s.Caches() != nil {
		t.Error("no caches expected")
	}
}
