package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfAndEqual(t *testing.T) {
	morning := time.Date(2025, 3, 9, 7, 30, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 9, 22, 15, 0, 0, time.UTC)
	if !DateOf(morning).Equal(DateOf(evening)) {
		t.Fatalf("same calendar day should be equal")
	}
	if DateOf(morning).Equal(DateOf(morning.AddDate(0, 0, 1))) {
		t.Fatalf("different days should not be equal")
	}
	if got := DateOf(evening).String(); got != "2025-03-09" {
		t.Fatalf("unexpected string %q", got)
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestParseEnums(t *testing.T) {
	if c, err := ParseCategory(" food "); err != nil || c != Food {
		t.Fatalf("expected FOOD, got %q (%v)", c, err)
	}
	if _, err := ParseCategory("GROCERIES"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if p, err := ParsePaymentMethod(""); err != nil || p != Cash {
		t.Fatalf("expected CASH default, got %q (%v)", p, err)
	}
	if p, err := ParsePaymentMethod("net_banking"); err != nil || p != NetBanking {
		t.Fatalf("expected NET_BANKING, got %q (%v)", p, err)
	}
	if _, err := ParsePaymentMethod("CHEQUE"); err == nil {
		t.Fatalf("expected error for unknown payment method")
	}
	if b, err := ParseBudgetType("WEEKLY"); err != nil || b != Weekly {
		t.Fatalf("expected weekly, got %q (%v)", b, err)
	}
	if _, err := ParseBudgetType("yearly"); err == nil {
		t.Fatalf("expected error for yearly budget")
	}
	if s, err := ParseBillStatus("paid"); err != nil || s != Paid {
		t.Fatalf("expected PAID, got %q (%v)", s, err)
	}
	if len(Categories()) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(Categories()))
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:        decimal.NewFromInt(100),
		Category:      Food,
		Timestamp:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		PaymentMethod: Cash,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Amount: decimal.Zero, Category: Food, Timestamp: good.Timestamp, PaymentMethod: Cash},
		{Amount: decimal.NewFromInt(-5), Category: Food, Timestamp: good.Timestamp, PaymentMethod: Cash},
		{Amount: decimal.NewFromInt(5), Category: "RENT", Timestamp: good.Timestamp, PaymentMethod: Cash},
		{Amount: decimal.NewFromInt(5), Category: Food, Timestamp: good.Timestamp, PaymentMethod: "CHEQUE"},
		{Amount: decimal.NewFromInt(5), Category: Food, PaymentMethod: Cash},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBillValidateAndTrigger(t *testing.T) {
	bill := Bill{
		Name:         "Electricity",
		Amount:       decimal.RequireFromString("1499.50"),
		DueDate:      NewDate(2025, 6, 10),
		ReminderDays: 3,
		Status:       Upcoming,
	}
	if err := bill.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := bill.TriggerDate().String(); got != "2025-06-07" {
		t.Fatalf("expected trigger 2025-06-07, got %s", got)
	}

	bill.ReminderDays = -1
	if err := bill.Validate(); !errors.Is(err, ErrInvalidReminderDays) {
		t.Fatalf("expected ErrInvalidReminderDays, got %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{Type: Monthly, Amount: decimal.Zero}).Validate(); err != nil {
		t.Fatalf("zero budget should be allowed, got %v", err)
	}
	if err := (Budget{Type: Monthly, Amount: decimal.NewFromInt(-1)}).Validate(); err == nil {
		t.Fatalf("expected error for negative budget")
	}
	if err := (Budget{Type: "daily", Amount: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestValidateRegistration(t *testing.T) {
	if err := ValidateRegistration("asha@example.com", "secret1", "Asha"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ValidateRegistration("not-an-email", "secret1", "Asha"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if err := ValidateRegistration("asha@example.com", "123", "Asha"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := ValidateRegistration("asha@example.com", "secret1", "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
