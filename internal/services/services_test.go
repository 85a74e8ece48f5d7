package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// recordingPublisher captures ledger events instead of talking to a broker.
type recordingPublisher struct {
	events []*amqp.LedgerEvent
}

func (r *recordingPublisher) PublishLedgerEvent(_ context.Context, evt *amqp.LedgerEvent) error {
	r.events = append(r.events, evt)
	return nil
}

type ServicesSuite struct {
	suite.Suite
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	incomes   *IncomeService
	expenses  *ExpenseService
	summaries *SummaryService
	userID    int64
	foodID    int64
	billsID   int64
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}

func (s *ServicesSuite) SetupTest() {
	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(s.T(), err)
	s.repo = repo

	ctx := context.Background()
	require.NoError(s.T(), repo.EnsureDefaultCategories(ctx))

	user, err := repo.Queries().CreateUser(ctx, "alice", "not-a-real-hash")
	require.NoError(s.T(), err)
	s.userID = user.ID

	cats, err := repo.ListCategories(ctx)
	require.NoError(s.T(), err)
	for _, c := range cats {
		switch c.Name {
		case "Food":
			s.foodID = c.ID
		case "Bills":
			s.billsID = c.ID
		}
	}
	require.NotZero(s.T(), s.foodID)
	require.NotZero(s.T(), s.billsID)

	s.publisher = &recordingPublisher{}
	logger := log.New(log.Config{Component: log.ComponentLedger})
	s.incomes = NewIncomeService(repo, s.publisher)
	s.expenses = NewExpenseService(repo, s.publisher, logger)
	s.summaries = NewSummaryService(repo)
}

func (s *ServicesSuite) TearDownTest() {
	s.repo.Close()
}

func (s *ServicesSuite) day(d int) time.Time {
	return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)
}

func (s *ServicesSuite) createIncome(desc string, amount float64, date time.Time) core.Income {
	inc, err := s.incomes.CreateIncome(context.Background(), core.Income{
		UserID:      s.userID,
		Description: desc,
		Amount:      amount,
		Date:        date,
	})
	require.NoError(s.T(), err)
	return inc
}

func (s *ServicesSuite) createExpense(desc string, amount float64, date time.Time, categoryID, incomeID int64) core.Expense {
	e, err := s.expenses.CreateExpense(context.Background(), core.Expense{
		UserID:      s.userID,
		Description: desc,
		Amount:      amount,
		Date:        date,
		CategoryID:  categoryID,
		IncomeID:    incomeID,
	})
	require.NoError(s.T(), err)
	return e
}

func (s *ServicesSuite) remaining(incomeID int64) float64 {
	inc, err := s.incomes.GetIncome(context.Background(), incomeID)
	require.NoError(s.T(), err)
	return inc.RemainingAmount
}

func (s *ServicesSuite) TestCreateIncomeStartsFullyRemaining() {
	inc := s.createIncome("Salary", 1000, s.day(1))

	s.Equal(1000.0, inc.Amount)
	s.Equal(1000.0, inc.RemainingAmount)
	s.Require().Len(s.publisher.events, 1)
	s.Equal(amqp.IncomeCreated, s.publisher.events[0].Kind)
}

func (s *ServicesSuite) TestCreateExpenseDeductsFromIncome() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	s.Equal("Food", e.CategoryName)
	s.Equal(800.0, s.remaining(inc.ID))
	s.Require().Len(s.publisher.events, 2)
	s.Equal(amqp.ExpenseCreated, s.publisher.events[1].Kind)
}

func (s *ServicesSuite) TestCreateExpenseInsufficientFundsLeavesNothingBehind() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	_, err := s.expenses.CreateExpense(context.Background(), core.Expense{
		UserID:      s.userID,
		Description: "Rent",
		Amount:      1200,
		Date:        s.day(5),
		CategoryID:  s.billsID,
		IncomeID:    inc.ID,
	})
	s.Require().ErrorIs(err, core.ErrInsufficientFunds)

	s.Equal(800.0, s.remaining(inc.ID))
	list, err := s.expenses.ListExpenses(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServicesSuite) TestCreateExpenseUnknownCategory() {
	inc := s.createIncome("Salary", 1000, s.day(1))

	_, err := s.expenses.CreateExpense(context.Background(), core.Expense{
		UserID:      s.userID,
		Description: "Mystery",
		Amount:      10,
		Date:        s.day(2),
		CategoryID:  9999,
		IncomeID:    inc.ID,
	})
	s.Require().ErrorIs(err, core.ErrNotFound)
	s.Equal(1000.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestUpdateExpenseMovesTheDifference() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	e.Amount = 300
	updated, err := s.expenses.UpdateExpense(context.Background(), e)
	s.Require().NoError(err)

	s.Equal(300.0, updated.Amount)
	s.Equal(700.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestUpdateExpenseAcrossIncomes() {
	first := s.createIncome("Salary", 1000, s.day(1))
	second := s.createIncome("Bonus", 500, s.day(2))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, first.ID)

	e.IncomeID = second.ID
	_, err := s.expenses.UpdateExpense(context.Background(), e)
	s.Require().NoError(err)

	s.Equal(1000.0, s.remaining(first.ID))
	s.Equal(300.0, s.remaining(second.ID))
}

func (s *ServicesSuite) TestUpdateExpenseNoChanges() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	_, err := s.expenses.UpdateExpense(context.Background(), e)
	s.Require().ErrorIs(err, core.ErrNoChanges)
	s.Equal(800.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestUpdateExpenseInsufficientFundsRollsBack() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	e.Amount = 1100
	_, err := s.expenses.UpdateExpense(context.Background(), e)
	s.Require().ErrorIs(err, core.ErrInsufficientFunds)

	got, gerr := s.expenses.GetExpense(context.Background(), e.ID)
	s.Require().NoError(gerr)
	s.Equal(200.0, got.Amount)
	s.Equal(800.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestDeleteExpenseRestoresRemaining() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	s.Require().NoError(s.expenses.DeleteExpense(context.Background(), s.userID, e.ID))

	s.Equal(1000.0, s.remaining(inc.ID))
	_, err := s.expenses.GetExpense(context.Background(), e.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ServicesSuite) TestRevertAfterDeductIsIdentity() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	ctx := context.Background()

	s.Require().NoError(s.incomes.Deduct(ctx, inc.ID, 350))
	s.Equal(650.0, s.remaining(inc.ID))
	s.Require().NoError(s.incomes.Revert(ctx, inc.ID, 350))
	s.Equal(1000.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestRevertHasNoUpperClamp() {
	inc := s.createIncome("Salary", 1000, s.day(1))

	s.Require().NoError(s.incomes.Revert(context.Background(), inc.ID, 250))
	s.Equal(1250.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestDeductRefusedWhenShort() {
	inc := s.createIncome("Salary", 100, s.day(1))

	err := s.incomes.Deduct(context.Background(), inc.ID, 100.01)
	s.Require().ErrorIs(err, core.ErrInsufficientFunds)
	s.Equal(100.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestUpdateIncomeShiftsRemainingByDifference() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	inc.Amount = 1200
	updated, err := s.incomes.UpdateIncome(context.Background(), inc)
	s.Require().NoError(err)

	s.Equal(1200.0, updated.Amount)
	s.Equal(1000.0, updated.RemainingAmount)
}

func (s *ServicesSuite) TestUpdateIncomeRefusedWhenRemainingWouldGoNegative() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	s.createExpense("Rent", 900, s.day(3), s.billsID, inc.ID)

	inc.Amount = 500
	_, err := s.incomes.UpdateIncome(context.Background(), inc)
	s.Require().ErrorIs(err, core.ErrNegativeRemaining)
	s.Equal(100.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestUpdateIncomeNoChanges() {
	inc := s.createIncome("Salary", 1000, s.day(1))

	_, err := s.incomes.UpdateIncome(context.Background(), inc)
	s.ErrorIs(err, core.ErrNoChanges)
}

func (s *ServicesSuite) TestDeleteIncomeGuardedWhileInUse() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	err := s.incomes.DeleteIncome(context.Background(), s.userID, inc.ID)
	s.Require().ErrorIs(err, core.ErrIncomeInUse)

	s.Require().NoError(s.expenses.DeleteExpense(context.Background(), s.userID, e.ID))
	s.Require().NoError(s.incomes.DeleteIncome(context.Background(), s.userID, inc.ID))

	_, err = s.incomes.GetIncome(context.Background(), inc.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ServicesSuite) TestMonthSummaryTotalsAndCategories() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)
	s.createExpense("Electricity", 80, s.day(10), s.billsID, inc.ID)
	s.createExpense("Takeaway", 45.50, s.day(20), s.foodID, inc.ID)

	summary, err := s.summaries.MonthSummary(context.Background(), s.userID, 2024, 5)
	s.Require().NoError(err)

	s.InDelta(325.50, summary.TotalExpenses, 0.001)
	s.InDelta(674.50, summary.TotalRemainingIncome, 0.001)

	s.Require().Len(summary.ByCategory, 2)
	s.Equal("Food", summary.ByCategory[0].Name)
	s.InDelta(245.50, summary.ByCategory[0].Amount, 0.001)
	s.Equal("Bills", summary.ByCategory[1].Name)
	s.InDelta(80.0, summary.ByCategory[1].Amount, 0.001)

	var categoryTotal float64
	for _, c := range summary.ByCategory {
		categoryTotal += c.Amount
	}
	s.InDelta(summary.TotalExpenses, categoryTotal, 0.001)

	s.Require().Len(summary.Incomes, 1)
	s.Equal("Salary", summary.Incomes[0].Description)
}

func (s *ServicesSuite) TestMonthSummaryWeeklyBuckets() {
	inc := s.createIncome("Salary", 1000, s.day(1))
	// May 2024 starts on a Wednesday: days 1-5 are week 1, 6-12 week 2,
	// 13-19 week 3.
	s.createExpense("Groceries", 50, s.day(2), s.foodID, inc.ID)
	s.createExpense("Snacks", 10, s.day(4), s.foodID, inc.ID)
	s.createExpense("Electricity", 80, s.day(8), s.billsID, inc.ID)
	s.createExpense("Lunch", 15, s.day(14), s.foodID, inc.ID)

	groups, err := s.summaries.WeeklyExpenses(context.Background(), s.userID, 2024, 5)
	s.Require().NoError(err)
	s.Require().Len(groups, 3)

	s.Equal(1, groups[0].Week)
	s.InDelta(60.0, groups[0].Total, 0.001)
	s.Require().Len(groups[0].ByLabel, 1)
	s.Equal("Food", groups[0].ByLabel[0].Name)

	s.Equal(2, groups[1].Week)
	s.InDelta(80.0, groups[1].Total, 0.001)

	s.Equal(3, groups[2].Week)
	s.InDelta(15.0, groups[2].Total, 0.001)
}

func (s *ServicesSuite) TestWeeklyIncomesGroupByDescription() {
	salary := s.createIncome("Salary", 1000, s.day(1))
	s.createIncome("Freelance", 300, s.day(10))
	s.createExpense("Groceries", 400, s.day(3), s.foodID, salary.ID)

	groups, err := s.summaries.WeeklyIncomes(context.Background(), s.userID, 2024, 5)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)
	s.Equal("Salary", groups[0].ByLabel[0].Name)
	s.Equal("Freelance", groups[1].ByLabel[0].Name)

	// Buckets track what is left on each income, not the original amount.
	s.InDelta(600.0, groups[0].ByLabel[0].Amount, 0.001)
	s.InDelta(600.0, groups[0].Total, 0.001)
	s.InDelta(300.0, groups[1].Total, 0.001)
}

func (s *ServicesSuite) TestRemainingIncomeSpansMonths() {
	s.createIncome("Salary May", 1000, s.day(1))
	april := s.createIncome("Salary April", 800, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	s.createExpense("Groceries", 100, s.day(3), s.foodID, april.ID)

	summary, err := s.summaries.MonthSummary(context.Background(), s.userID, 2024, 5)
	s.Require().NoError(err)

	// The April income is outside the month window but still counts
	// toward the remaining total.
	s.InDelta(1700.0, summary.TotalRemainingIncome, 0.001)
	s.Require().Len(summary.Incomes, 1)
	s.Equal("Salary May", summary.Incomes[0].Description)
}

func (s *ServicesSuite) TestMutationsScopedToOwningUser() {
	ctx := context.Background()
	inc := s.createIncome("Salary", 1000, s.day(1))
	e := s.createExpense("Groceries", 200, s.day(3), s.foodID, inc.ID)

	other, err := s.repo.Queries().CreateUser(ctx, "mallory", "not-a-real-hash")
	s.Require().NoError(err)

	err = s.expenses.DeleteExpense(ctx, other.ID, e.ID)
	s.Require().ErrorIs(err, core.ErrNotFound)
	_, err = s.expenses.GetExpense(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(800.0, s.remaining(inc.ID))

	hijacked := e
	hijacked.UserID = other.ID
	hijacked.Amount = 500
	_, err = s.expenses.UpdateExpense(ctx, hijacked)
	s.Require().ErrorIs(err, core.ErrNotFound)
	s.Equal(800.0, s.remaining(inc.ID))

	err = s.incomes.DeleteIncome(ctx, other.ID, inc.ID)
	s.Require().ErrorIs(err, core.ErrNotFound)

	stolen := inc
	stolen.UserID = other.ID
	stolen.Amount = 1
	_, err = s.incomes.UpdateIncome(ctx, stolen)
	s.Require().ErrorIs(err, core.ErrNotFound)
	s.Equal(800.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestExpenseCannotDrawOnAnotherUsersIncome() {
	ctx := context.Background()
	inc := s.createIncome("Salary", 1000, s.day(1))

	other, err := s.repo.Queries().CreateUser(ctx, "mallory", "not-a-real-hash")
	s.Require().NoError(err)

	_, err = s.expenses.CreateExpense(ctx, core.Expense{
		UserID:      other.ID,
		Description: "Groceries",
		Amount:      200,
		Date:        s.day(3),
		CategoryID:  s.foodID,
		IncomeID:    inc.ID,
	})
	s.Require().ErrorIs(err, core.ErrNotFound)
	s.Equal(1000.0, s.remaining(inc.ID))
}

func (s *ServicesSuite) TestNilPublisherIsSafe() {
	incomes := NewIncomeService(s.repo, nil)
	inc, err := incomes.CreateIncome(context.Background(), core.Income{
		UserID:      s.userID,
		Description: "Salary",
		Amount:      1000,
		Date:        s.day(1),
	})
	s.Require().NoError(err)
	s.Equal(1000.0, inc.RemainingAmount)
}
