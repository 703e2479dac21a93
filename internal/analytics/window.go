// Package analytics computes spending aggregates, budget status and simple
// forecasts from a user's expense history.
//
// Every function here is pure: it takes the expenses and the evaluation
// instant explicitly, so results are reproducible and easy to test.
package analytics

import (
	"time"
)

const day = 24 * time.Hour

// Window selects the expenses that count towards an aggregate.
type Window int

const (
	// Today matches expenses on the same calendar day as now.
	Today Window = iota
	// Trailing7Days matches expenses at or after now minus seven days.
	Trailing7Days
	// Trailing30Days matches expenses at or after now minus thirty days.
	Trailing30Days
	// CurrentMonth matches expenses in now's calendar month and year. It is
	// not a rolling window and must not be confused with Trailing30Days.
	CurrentMonth
)

func (w Window) String() string {
	switch w {
	case Today:
		return "today"
	case Trailing7Days:
		return "trailing_7d"
	case Trailing30Days:
		return "trailing_30d"
	case CurrentMonth:
		return "current_month"
	default:
		return "unknown"
	}
}

// Contains reports whether ts falls in the window evaluated at now. Calendar
// comparisons use now's location.
//
// Trailing windows have no upper bound: an expense recorded later today
// still counts towards the last seven days.
func (w Window) Contains(ts, now time.Time) bool {
	switch w {
	case Today:
		return sameDay(ts.In(now.Location()), now)
	case Trailing7Days:
		return !ts.Before(now.Add(-7 * day))
	case Trailing30Days:
		return !ts.Before(now.Add(-30 * day))
	case CurrentMonth:
		local := ts.In(now.Location())
		return local.Year() == now.Year() && local.Month() == now.Month()
	default:
		return false
	}
}

// Horizon is the earliest instant any window or forecast evaluated at now can
// reach. Loading expenses from Horizon(now) onwards is enough for a full
// dashboard and insights computation.
func Horizon(now time.Time) time.Time {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	trailing := now.Add(-30 * day)
	if monthStart.Before(trailing) {
		return monthStart
	}
	return trailing
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// inRange matches from <= ts < to.
func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}
