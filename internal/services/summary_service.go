package services

import (
	"context"
	"fmt"
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// SummaryService aggregates the ledger into monthly views. All reads go
// through the store; nothing here mutates.
type SummaryService struct {
	repo *storage.SQLiteRepository
}

func NewSummaryService(repo *storage.SQLiteRepository) *SummaryService {
	return &SummaryService{repo: repo}
}

// TotalExpenses returns the sum of all expense amounts in the month.
func (s *SummaryService) TotalExpenses(ctx context.Context, userID int64, year, month int) (float64, error) {
	total, err := s.repo.Queries().SumExpensesByMonth(ctx, userID, year, month)
	if err != nil {
		return 0, fmt.Errorf("sum expenses for %d-%02d: %w", year, month, err)
	}
	return total, nil
}

// TotalRemainingIncome returns the sum of remaining balances across all
// of the user's incomes, regardless of month.
func (s *SummaryService) TotalRemainingIncome(ctx context.Context, userID int64) (float64, error) {
	total, err := s.repo.Queries().SumRemainingByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum remaining income: %w", err)
	}
	return total, nil
}

// SummaryByCategory returns per-category expense totals for the month,
// sorted by descending amount with name as tiebreak.
func (s *SummaryService) SummaryByCategory(ctx context.Context, userID int64, year, month int) ([]core.CategoryAmount, error) {
	sums, err := s.repo.Queries().CategorySumsByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("category sums for %d-%02d: %w", year, month, err)
	}
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].Amount != sums[j].Amount {
			return sums[i].Amount > sums[j].Amount
		}
		return sums[i].Name < sums[j].Name
	})
	return sums, nil
}

// MonthIncomes returns the incomes dated in the month.
func (s *SummaryService) MonthIncomes(ctx context.Context, userID int64, year, month int) ([]core.Income, error) {
	incomes, err := s.repo.Queries().ListIncomesByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list incomes for %d-%02d: %w", year, month, err)
	}
	return incomes, nil
}

// WeeklyExpenses groups the month's expenses into week-of-month buckets,
// summed by category within each week.
func (s *SummaryService) WeeklyExpenses(ctx context.Context, userID int64, year, month int) ([]core.WeekGroup, error) {
	expenses, err := s.repo.Queries().ListExpensesByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses for %d-%02d: %w", year, month, err)
	}

	entries := make([]weekEntry, 0, len(expenses))
	for _, e := range expenses {
		entries = append(entries, weekEntry{core.WeekOfMonth(e.Date), e.CategoryName, e.Amount})
	}
	return groupByWeek(entries), nil
}

// WeeklyIncomes groups the month's incomes into week-of-month buckets.
// Buckets carry what is still remaining on each income, summed by
// description within the week, not the original amounts.
func (s *SummaryService) WeeklyIncomes(ctx context.Context, userID int64, year, month int) ([]core.WeekGroup, error) {
	incomes, err := s.repo.Queries().ListIncomesByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list incomes for %d-%02d: %w", year, month, err)
	}

	entries := make([]weekEntry, 0, len(incomes))
	for _, inc := range incomes {
		entries = append(entries, weekEntry{core.WeekOfMonth(inc.Date), inc.Description, inc.RemainingAmount})
	}
	return groupByWeek(entries), nil
}

// MonthSummary composes the full monthly view in one call.
func (s *SummaryService) MonthSummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	totalExpenses, err := s.TotalExpenses(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	totalRemaining, err := s.TotalRemainingIncome(ctx, userID)
	if err != nil {
		return core.MonthSummary{}, err
	}
	byCategory, err := s.SummaryByCategory(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	incomes, err := s.MonthIncomes(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	weeklyExpenses, err := s.WeeklyExpenses(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	weeklyIncomes, err := s.WeeklyIncomes(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}

	return core.MonthSummary{
		Year:                 year,
		Month:                month,
		TotalExpenses:        totalExpenses,
		TotalRemainingIncome: totalRemaining,
		ByCategory:           byCategory,
		Incomes:              incomes,
		WeeklyExpenses:       weeklyExpenses,
		WeeklyIncomes:        weeklyIncomes,
	}, nil
}

type weekEntry struct {
	week   int
	label  string
	amount float64
}

// groupByWeek buckets labeled amounts by week number. Weeks come back in
// ascending order; labels within a week sort by descending amount, name
// as tiebreak.
func groupByWeek(entries []weekEntry) []core.WeekGroup {
	byWeek := make(map[int]map[string]float64)
	for _, e := range entries {
		if byWeek[e.week] == nil {
			byWeek[e.week] = make(map[string]float64)
		}
		byWeek[e.week][e.label] += e.amount
	}

	weeks := make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	groups := make([]core.WeekGroup, 0, len(weeks))
	for _, w := range weeks {
		labels := byWeek[w]
		group := core.WeekGroup{Week: w}
		for name, amount := range labels {
			group.ByLabel = append(group.ByLabel, core.CategoryAmount{Name: name, Amount: amount})
			group.Total += amount
		}
		sort.Slice(group.ByLabel, func(i, j int) bool {
			if group.ByLabel[i].Amount != group.ByLabel[j].Amount {
				return group.ByLabel[i].Amount > group.ByLabel[j].Amount
			}
			return group.ByLabel[i].Name < group.ByLabel[j].Name
		})
		groups = append(groups, group)
	}
	return groups
}
