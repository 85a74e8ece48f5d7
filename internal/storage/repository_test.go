package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	repo   *SQLiteRepository
	userID int64
	foodID int64
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(s.T(), err)
	s.repo = repo

	ctx := context.Background()
	require.NoError(s.T(), repo.EnsureDefaultCategories(ctx))

	user, err := repo.Queries().CreateUser(ctx, "alice", "hash")
	require.NoError(s.T(), err)
	s.userID = user.ID

	cats, err := repo.ListCategories(ctx)
	require.NoError(s.T(), err)
	for _, c := range cats {
		if c.Name == "Food" {
			s.foodID = c.ID
		}
	}
	require.NotZero(s.T(), s.foodID)
}

func (s *RepositorySuite) TearDownTest() {
	s.repo.Close()
}

func (s *RepositorySuite) TestDefaultCategoriesSeededOnce() {
	ctx := context.Background()

	// Seeding again must not duplicate.
	s.Require().NoError(s.repo.EnsureDefaultCategories(ctx))

	cats, err := s.repo.ListCategories(ctx)
	s.Require().NoError(err)
	s.Len(cats, len(core.DefaultCategories))
}

func (s *RepositorySuite) TestIncomeRoundTrip() {
	ctx := context.Background()

	created, err := s.repo.Queries().CreateIncome(ctx, core.Income{
		UserID:          s.userID,
		Description:     "Salary",
		Amount:          1500.50,
		RemainingAmount: 1500.50,
		Date:            time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)

	got, err := s.repo.GetIncome(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Salary", got.Description)
	s.Equal(1500.50, got.Amount)
	s.Equal(1500.50, got.RemainingAmount)
	s.Equal(2024, got.Date.Year())
	s.Equal(time.May, got.Date.Month())
	s.Equal(1, got.Date.Day())
}

func (s *RepositorySuite) TestGetIncomeNotFound() {
	_, err := s.repo.GetIncome(context.Background(), 12345)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestExpenseJoinsCategoryName() {
	ctx := context.Background()

	inc, err := s.repo.Queries().CreateIncome(ctx, core.Income{
		UserID: s.userID, Description: "Salary", Amount: 1000, RemainingAmount: 1000,
		Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	created, err := s.repo.Queries().CreateExpense(ctx, core.Expense{
		UserID: s.userID, Description: "Groceries", Amount: 55.20,
		Date:       time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC),
		CategoryID: s.foodID, IncomeID: inc.ID,
	})
	s.Require().NoError(err)

	got, err := s.repo.GetExpense(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Food", got.CategoryName)
	s.Equal(inc.ID, got.IncomeID)
}

func (s *RepositorySuite) TestMonthWindowIsHalfOpen() {
	ctx := context.Background()
	q := s.repo.Queries()

	dates := []time.Time{
		time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		_, err := q.CreateIncome(ctx, core.Income{
			UserID: s.userID, Description: "inc", Amount: 10, RemainingAmount: 10, Date: d,
		})
		s.Require().NoError(err)
	}

	may, err := q.ListIncomesByMonth(ctx, s.userID, 2024, 5)
	s.Require().NoError(err)
	s.Len(may, 2)
}

func (s *RepositorySuite) TestDecemberWindowRollsToNextYear() {
	ctx := context.Background()
	q := s.repo.Queries()

	_, err := q.CreateIncome(ctx, core.Income{
		UserID: s.userID, Description: "dec", Amount: 10, RemainingAmount: 10,
		Date: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	_, err = q.CreateIncome(ctx, core.Income{
		UserID: s.userID, Description: "jan", Amount: 10, RemainingAmount: 10,
		Date: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	dec, err := q.ListIncomesByMonth(ctx, s.userID, 2024, 12)
	s.Require().NoError(err)
	s.Require().Len(dec, 1)
	s.Equal("dec", dec[0].Description)
}

func (s *RepositorySuite) TestHealNullRemaining() {
	ctx := context.Background()

	// Simulate a legacy row written before remaining_amount existed.
	_, err := s.repo.db.ExecContext(ctx,
		`INSERT INTO incomes (user_id, description, amount, remaining_amount, date)
		 VALUES (?, 'Legacy', 500, NULL, '2024-05-01')`, s.userID)
	s.Require().NoError(err)

	incomes, err := s.repo.ListIncomesByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(incomes, 1)
	s.Equal(500.0, incomes[0].RemainingAmount)
}

func (s *RepositorySuite) TestInTxRollsBackOnError() {
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := s.repo.InTx(ctx, func(q *Queries) error {
		if _, err := q.CreateIncome(ctx, core.Income{
			UserID: s.userID, Description: "doomed", Amount: 10, RemainingAmount: 10,
			Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			return err
		}
		return sentinel
	})
	s.Require().ErrorIs(err, sentinel)

	incomes, err := s.repo.ListIncomesByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(incomes)
}

func (s *RepositorySuite) TestSumRemainingIgnoresMonth() {
	ctx := context.Background()
	q := s.repo.Queries()

	for _, d := range []time.Time{
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, err := q.CreateIncome(ctx, core.Income{
			UserID: s.userID, Description: "inc", Amount: 100, RemainingAmount: 100, Date: d,
		})
		s.Require().NoError(err)
	}

	total, err := q.SumRemainingByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(200.0, total)
}

func (s *RepositorySuite) TestSessionLifecycle() {
	ctx := context.Background()
	q := s.repo.Queries()

	s.Require().NoError(q.CreateSession(ctx, "tok-1", s.userID, time.Now().Add(time.Hour)))

	user, err := q.GetSessionUser(ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(s.userID, user.ID)

	s.Require().NoError(q.CreateSession(ctx, "tok-expired", s.userID, time.Now().Add(-time.Hour)))
	_, err = q.GetSessionUser(ctx, "tok-expired")
	s.ErrorIs(err, core.ErrNotFound)

	s.Require().NoError(q.DeleteExpiredSessions(ctx))
	s.Require().NoError(q.DeleteSession(ctx, "tok-1"))
	_, err = q.GetSessionUser(ctx, "tok-1")
	s.ErrorIs(err, core.ErrNotFound)
}
