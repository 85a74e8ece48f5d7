package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExpenseService records expenses and keeps the funding income's
// remaining balance in step. Every mutation runs its reads and writes
// in one transaction so a failure leaves both tables untouched.
type ExpenseService struct {
	repo      *storage.SQLiteRepository
	publisher EventPublisher
	logger    *log.Logger
}

func NewExpenseService(repo *storage.SQLiteRepository, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateExpense inserts an expense and deducts its amount from the
// funding income. Fails with core.ErrInsufficientFunds when the income
// cannot cover it, in which case nothing is persisted.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	var created core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		cat, err := q.GetCategory(ctx, e.CategoryID)
		if err != nil {
			return fmt.Errorf("load category %d: %w", e.CategoryID, err)
		}
		inc, err := q.GetIncome(ctx, e.IncomeID)
		if err != nil {
			return fmt.Errorf("load income %d: %w", e.IncomeID, err)
		}
		if inc.UserID != e.UserID {
			return fmt.Errorf("income %d: %w", e.IncomeID, core.ErrNotFound)
		}
		if err := deduct(ctx, q, e.IncomeID, e.Amount); err != nil {
			return err
		}
		created, err = q.CreateExpense(ctx, e)
		if err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		created.CategoryName = cat.Name
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.FieldOperation, log.OpDeduct,
		log.FieldExpenseID, created.ID,
		log.FieldIncomeID, created.IncomeID,
		log.FieldAmount, created.Amount)
	publishEvent(ctx, s.publisher, amqp.ExpenseCreated, created.ID, created.UserID, created.Date)
	return created, nil
}

// UpdateExpense applies new field values to an existing expense. The old
// amount is returned to the previously funding income and the new amount
// is drawn from the (possibly different) new one, all in one transaction.
// Returns core.ErrNoChanges when every field is unchanged.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	var updated core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetExpense(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("load expense %d: %w", e.ID, err)
		}
		// Another user's row is indistinguishable from a missing one.
		if existing.UserID != e.UserID {
			return fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
		}
		if existing.Equal(e) {
			return core.ErrNoChanges
		}

		cat, err := q.GetCategory(ctx, e.CategoryID)
		if err != nil {
			return fmt.Errorf("load category %d: %w", e.CategoryID, err)
		}
		inc, err := q.GetIncome(ctx, e.IncomeID)
		if err != nil {
			return fmt.Errorf("load income %d: %w", e.IncomeID, err)
		}
		if inc.UserID != e.UserID {
			return fmt.Errorf("income %d: %w", e.IncomeID, core.ErrNotFound)
		}

		// Revert first so updating within the same income only needs
		// the delta covered, not the full new amount on top of the old.
		if err := revert(ctx, q, existing.IncomeID, existing.Amount); err != nil {
			return err
		}
		if err := deduct(ctx, q, e.IncomeID, e.Amount); err != nil {
			return err
		}

		updated = e
		updated.UserID = existing.UserID
		updated.CategoryName = cat.Name
		if err := q.UpdateExpense(ctx, updated); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	publishEvent(ctx, s.publisher, amqp.ExpenseUpdated, updated.ID, updated.UserID, updated.Date)
	return updated, nil
}

// DeleteExpense removes one of the user's expenses and returns its
// amount to the funding income's remaining balance.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	var deleted core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetExpense(ctx, id)
		if err != nil {
			return fmt.Errorf("load expense %d: %w", id, err)
		}
		if existing.UserID != userID {
			return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
		}
		if err := revert(ctx, q, existing.IncomeID, existing.Amount); err != nil {
			return err
		}
		deleted = existing
		if err := q.DeleteExpense(ctx, id); err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldOperation, log.OpRevert,
		log.FieldExpenseID, deleted.ID,
		log.FieldIncomeID, deleted.IncomeID,
		log.FieldAmount, deleted.Amount)
	publishEvent(ctx, s.publisher, amqp.ExpenseDeleted, deleted.ID, deleted.UserID, deleted.Date)
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.repo.ListExpensesByUser(ctx, userID)
}
