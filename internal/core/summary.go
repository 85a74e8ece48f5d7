package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// WeekGroup is one week-of-month bucket in a weekly breakdown, with
// per-label sums and the week subtotal.
type WeekGroup struct {
	Week    int
	ByLabel []CategoryAmount
	Total   float64
}

// MonthSummary is the full aggregation for a user and calendar month.
// TotalRemainingIncome spans all of the user's incomes regardless of
// month; every other field is month-scoped.
type MonthSummary struct {
	Year                 int
	Month                int // 1-12
	TotalExpenses        float64
	TotalRemainingIncome float64
	ByCategory           []CategoryAmount
	Incomes              []Income
	WeeklyExpenses       []WeekGroup
	WeeklyIncomes        []WeekGroup
}

// WeekOfMonth returns the 1-based week number of d within its month.
// Weeks start on Monday; week 1 is the week containing the 1st.
func WeekOfMonth(d time.Time) int {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	// Monday = 0 ... Sunday = 6
	offset := (int(first.Weekday()) + 6) % 7
	return (d.Day() - 1 + offset) / 7 + 1
}
