package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "FOOD"
	Transport     Category = "TRANSPORT"
	Entertainment Category = "ENTERTAINMENT"
	Bills         Category = "BILLS"
	Shopping      Category = "SHOPPING"
	Healthcare    Category = "HEALTHCARE"
	Education     Category = "EDUCATION"
	Other         Category = "OTHER"
)

const (
	Cash       PaymentMethod = "CASH"
	UPI        PaymentMethod = "UPI"
	Card       PaymentMethod = "CARD"
	Wallet     PaymentMethod = "WALLET"
	NetBanking PaymentMethod = "NET_BANKING"
)

const (
	Weekly  BudgetType = "weekly"
	Monthly BudgetType = "monthly"
)

const (
	Upcoming BillStatus = "UPCOMING"
	Paid     BillStatus = "PAID"
	Overdue  BillStatus = "OVERDUE"
)

// DefaultCurrency is assigned to users registering without one.
const DefaultCurrency = "INR"

// DefaultReminderDays is the lead time used when a bill is created without one.
const DefaultReminderDays = 3

type (
	Category      string
	PaymentMethod string
	BudgetType    string
	BillStatus    string

	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		Name         string
		Currency     string
		CreatedAt    time.Time
	}

	Expense struct {
		ID            int64
		UserID        int64
		Amount        decimal.Decimal
		Category      Category
		Timestamp     time.Time
		PaymentMethod PaymentMethod
		Note          string
	}

	Budget struct {
		ID        int64
		UserID    int64
		Type      BudgetType
		Amount    decimal.Decimal
		StartDate Date
	}

	Bill struct {
		ID           int64
		UserID       int64
		Name         string
		Amount       decimal.Decimal
		DueDate      Date
		ReminderDays int
		Status       BillStatus
		IsRecurring  bool
		// LastReminderSent is zero until the first reminder goes out.
		LastReminderSent Date
	}

	// ExpenseFilter narrows an expense listing. Zero values mean "no filter".
	ExpenseFilter struct {
		Category Category
		From     Date
		To       Date
	}
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrAmountTooLarge       = errors.New("amount exceeds 1000000000000")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidBudgetType    = errors.New("invalid budget type")
	ErrInvalidBillStatus    = errors.New("invalid bill status")
	ErrEmptyBillName        = errors.New("bill name cannot be empty")
	ErrInvalidReminderDays  = errors.New("reminder days must be between 0 and 365")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrEmptyName            = errors.New("name cannot be empty")
	ErrWeakPassword         = errors.New("password must be at least 6 characters")
	ErrNoteTooLong          = errors.New("note too long (max 500 characters)")
)

var categories = []Category{Food, Transport, Entertainment, Bills, Shopping, Healthcare, Education, Other}

// Categories returns every known category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts any casing and returns the canonical value.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case Cash, UPI, Card, Wallet, NetBanking:
		return true
	default:
		return false
	}
}

// ParsePaymentMethod defaults to Cash for an empty input.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cash, nil
	}
	p := PaymentMethod(strings.ToUpper(s))
	if !p.Valid() {
		return "", ErrInvalidPaymentMethod
	}
	return p, nil
}

func (b BudgetType) Valid() bool {
	return b == Weekly || b == Monthly
}

func ParseBudgetType(s string) (BudgetType, error) {
	b := BudgetType(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", ErrInvalidBudgetType
	}
	return b, nil
}

func (s BillStatus) Valid() bool {
	switch s {
	case Upcoming, Paid, Overdue:
		return true
	default:
		return false
	}
}

func ParseBillStatus(s string) (BillStatus, error) {
	st := BillStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidBillStatus
	}
	return st, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days away.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Equal compares calendar days only.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := checkAmount(e.Amount); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if !e.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if e.Timestamp.IsZero() {
		return errors.New("timestamp cannot be zero")
	}
	if len(e.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Type.Valid() {
		return ErrInvalidBudgetType
	}
	if b.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return checkAmount(b.Amount)
}

func (b Bill) Validate() error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return ErrEmptyBillName
	}
	if len(name) > 200 {
		return errors.New("bill name too long (max 200 characters)")
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := checkAmount(b.Amount); err != nil {
		return err
	}
	if err := b.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	if b.ReminderDays < 0 || b.ReminderDays > 365 {
		return ErrInvalidReminderDays
	}
	if !b.Status.Valid() {
		return ErrInvalidBillStatus
	}
	return nil
}

// ValidateRegistration checks the fields a new account needs.
func ValidateRegistration(email, password, name string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 6 {
		return ErrWeakPassword
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
