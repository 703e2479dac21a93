package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	e := core.Expense{
		ID:            42,
		UserID:        1,
		Amount:        decimal.RequireFromString("99.5"),
		Category:      core.Food,
		Timestamp:     time.Date(2025, 3, 1, 13, 45, 0, 0, time.UTC),
		PaymentMethod: core.UPI,
		Note:          "lunch",
	}

	ref, err := s.Append(context.Background(), e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	// redelivered message
	ref, err = s.Append(context.Background(), e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("duplicate append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	want := []any{int64(42), int64(1), "2025-03-01", "13:45", "FOOD", "UPI", "99.50", "lunch"}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, rows[0][i], want[i])
		}
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Expense{ID: 1}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Rows()) != 0 {
		t.Fatal("invalid expense must not be stored")
	}
}
