package services

import (
	"context"
	"fmt"
	"time"

	"spendwise/internal/analytics"
	"spendwise/internal/cache"
	"spendwise/internal/core"
)

// AnalyticsStore reads the data the dashboard and insights are built from.
type AnalyticsStore interface {
	ListExpensesSince(ctx context.Context, userID int64, since time.Time) ([]core.Expense, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
}

// AnalyticsService computes per-user dashboards and insights and keeps them
// in a short-lived cache. Ledger writes invalidate the user's entries, and a
// result read before a write is never cached after it.
type AnalyticsService struct {
	store      AnalyticsStore
	dashboards *cache.UserCache[analytics.Dashboard]
	insights   *cache.UserCache[analytics.Insights]
	now        func() time.Time
}

// NewAnalyticsService creates the service. A zero ttl disables caching.
func NewAnalyticsService(store AnalyticsStore, maxUsers int, ttl time.Duration) *AnalyticsService {
	s := &AnalyticsService{store: store, now: time.Now}
	if ttl > 0 && maxUsers > 0 {
		s.dashboards = cache.NewUserCache[analytics.Dashboard](maxUsers, ttl)
		s.insights = cache.NewUserCache[analytics.Insights](maxUsers, ttl)
	}
	return s
}

// Caches exposes the caches so a cache.Manager can sweep expired entries.
func (s *AnalyticsService) Caches() []cache.Cleaner {
	if s.dashboards == nil {
		return nil
	}
	return []cache.Cleaner{s.dashboards, s.insights}
}

// Invalidate drops the cached figures of one user.
func (s *AnalyticsService) Invalidate(userID int64) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.Invalidate(userID)
	s.insights.Invalidate(userID)
}

func (s *AnalyticsService) load(ctx context.Context, userID int64, now time.Time) ([]core.Expense, []core.Budget, error) {
	expenses, err := s.store.ListExpensesSince(ctx, userID, analytics.Horizon(now))
	if err != nil {
		return nil, nil, fmt.Errorf("load expenses: %w", err)
	}
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load budgets: %w", err)
	}
	return expenses, budgets, nil
}

// Dashboard returns the home screen summary for the user.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID int64) (analytics.Dashboard, error) {
	return cached(ctx, s, s.dashboards, userID, analytics.BuildDashboard)
}

// Insights returns top category, week comparison, budget summary and the
// next-week prediction.
func (s *AnalyticsService) Insights(ctx context.Context, userID int64) (analytics.Insights, error) {
	return cached(ctx, s, s.insights, userID, analytics.BuildInsights)
}

func cached[T any](ctx context.Context, s *AnalyticsService, c *cache.UserCache[T], userID int64,
	build func([]core.Expense, []core.Budget, time.Time) T) (T, error) {
	if c == nil {
		return compute(ctx, s, userID, build)
	}
	if v, ok := c.Get(userID); ok {
		return v, nil
	}

	token := c.Begin()
	v, err := compute(ctx, s, userID, build)
	if err != nil {
		return v, err
	}
	c.Store(userID, token, v)
	return v, nil
}

func compute[T any](ctx context.Context, s *AnalyticsService, userID int64,
	build func([]core.Expense, []core.Budget, time.Time) T) (T, error) {
	var zero T
	now := s.now()
	expenses, budgets, err := s.load(ctx, userID, now)
	if err != nil {
		return zero, err
	}
	return build(expenses, budgets, now), nil
}
