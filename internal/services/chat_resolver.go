package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// ChatFallback is the reply when no rule matches.
const ChatFallback = "I can help with daily, weekly, monthly spending and budget status."

// ChatRule answers one kind of question. Rules are tried in order and the
// first whose Match accepts the lower-cased message wins.
type ChatRule struct {
	Name   string
	Match  func(msg string) bool
	Handle func(ctx context.Context, userID int64, now time.Time) (string, error)
}

// ChatResolver answers spending questions with fixed keyword rules.
type ChatResolver struct {
	store AnalyticsStore
	rules []ChatRule
	now   func() time.Time
}

func NewChatResolver(store AnalyticsStore) *ChatResolver {
	r := &ChatResolver{store: store, now: time.Now}
	r.rules = []ChatRule{
		{Name: "today", Match: contains("today"), Handle: r.windowReply(analytics.Today, "You spent %s today.")},
		{Name: "week", Match: contains("week"), Handle: r.windowReply(analytics.Trailing7Days, "Your last 7 days spending is %s.")},
		{Name: "month", Match: contains("month"), Handle: r.windowReply(analytics.CurrentMonth, "You spent %s this month.")},
		{Name: "budget", Match: contains("budget"), Handle: r.budgetReply},
	}
	return r
}

func contains(keyword string) func(string) bool {
	return func(msg string) bool { return strings.Contains(msg, keyword) }
}

// Resolve returns the reply to message for the user.
func (r *ChatResolver) Resolve(ctx context.Context, userID int64, message string) (string, error) {
	msg := strings.ToLower(message)
	for _, rule := range r.rules {
		if rule.Match(msg) {
			reply, err := rule.Handle(ctx, userID, r.now())
			if err != nil {
				return "", fmt.Errorf("chat rule %s: %w", rule.Name, err)
			}
			return reply, nil
		}
	}
	return ChatFallback, nil
}

func (r *ChatResolver) windowReply(w analytics.Window, format string) func(context.Context, int64, time.Time) (string, error) {
	return func(ctx context.Context, userID int64, now time.Time) (string, error) {
		expenses, err := r.store.ListExpensesSince(ctx, userID, analytics.Horizon(now))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(format, core.FormatRupees(analytics.Sum(expenses, w, now))), nil
	}
}

func (r *ChatResolver) budgetReply(ctx context.Context, userID int64, _ time.Time) (string, error) {
	budgets, err := r.store.ListBudgets(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(budgets) == 0 {
		return "You have not set any budgets yet.", nil
	}
	parts := make([]string, 0, len(budgets))
	for _, b := range budgets {
		parts = append(parts, fmt.Sprintf("%s %s", b.Type, core.FormatRupees(b.Amount)))
	}
	return "Your budgets: " + strings.Join(parts, ", "), nil
}
