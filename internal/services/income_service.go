package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// IncomeService owns income lifecycle and the remaining-balance
// bookkeeping that expenses draw on.
type IncomeService struct {
	repo      *storage.SQLiteRepository
	publisher EventPublisher
}

func NewIncomeService(repo *storage.SQLiteRepository, publisher EventPublisher) *IncomeService {
	return &IncomeService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateIncome persists a new income with its remaining amount
// initialized to the full amount.
func (s *IncomeService) CreateIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}
	inc.RemainingAmount = inc.Amount

	var created core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		created, err = q.CreateIncome(ctx, inc)
		if err != nil {
			return fmt.Errorf("create income: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}

	publishEvent(ctx, s.publisher, amqp.IncomeCreated, created.ID, created.UserID, created.Date)
	return created, nil
}

// UpdateIncome persists new field values onto an existing income. The
// remaining amount moves by the amount difference; the update is refused
// with core.ErrNegativeRemaining when that would push it below zero.
// Returns core.ErrNoChanges when every field is unchanged.
func (s *IncomeService) UpdateIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}

	var updated core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetIncome(ctx, inc.ID)
		if err != nil {
			return fmt.Errorf("load income %d: %w", inc.ID, err)
		}
		// Another user's row is indistinguishable from a missing one.
		if existing.UserID != inc.UserID {
			return fmt.Errorf("income %d: %w", inc.ID, core.ErrNotFound)
		}
		if existing.Equal(inc) {
			return core.ErrNoChanges
		}

		amountDifference := inc.Amount - existing.Amount
		newRemaining := existing.RemainingAmount + amountDifference
		if newRemaining < 0 {
			return fmt.Errorf("income %q: new remaining would be %s: %w",
				existing.Description, core.FormatAmount(newRemaining), core.ErrNegativeRemaining)
		}

		updated = inc
		updated.UserID = existing.UserID
		updated.RemainingAmount = newRemaining
		if err := q.UpdateIncome(ctx, updated); err != nil {
			return fmt.Errorf("update income: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}

	publishEvent(ctx, s.publisher, amqp.IncomeUpdated, updated.ID, updated.UserID, updated.Date)
	return updated, nil
}

// DeleteIncome removes one of the user's incomes. Refused with
// core.ErrIncomeInUse while any expense still references it.
func (s *IncomeService) DeleteIncome(ctx context.Context, userID, id int64) error {
	var deleted core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetIncome(ctx, id)
		if err != nil {
			return fmt.Errorf("load income %d: %w", id, err)
		}
		if existing.UserID != userID {
			return fmt.Errorf("income %d: %w", id, core.ErrNotFound)
		}

		count, err := q.CountExpensesByIncome(ctx, id)
		if err != nil {
			return fmt.Errorf("count referencing expenses: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("income %q has %d expense(s): %w",
				existing.Description, count, core.ErrIncomeInUse)
		}

		deleted = existing
		if err := q.DeleteIncome(ctx, id); err != nil {
			return fmt.Errorf("delete income: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.publisher, amqp.IncomeDeleted, deleted.ID, deleted.UserID, deleted.Date)
	return nil
}

// Deduct draws amount from the income's remaining balance in its own
// transaction.
func (s *IncomeService) Deduct(ctx context.Context, incomeID int64, amount float64) error {
	return s.repo.InTx(ctx, func(q *storage.Queries) error {
		return deduct(ctx, q, incomeID, amount)
	})
}

// Revert returns amount to the income's remaining balance in its own
// transaction.
func (s *IncomeService) Revert(ctx context.Context, incomeID int64, amount float64) error {
	return s.repo.InTx(ctx, func(q *storage.Queries) error {
		return revert(ctx, q, incomeID, amount)
	})
}

func (s *IncomeService) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	return s.repo.GetIncome(ctx, id)
}

func (s *IncomeService) ListIncomes(ctx context.Context, userID int64) ([]core.Income, error) {
	return s.repo.ListIncomesByUser(ctx, userID)
}
