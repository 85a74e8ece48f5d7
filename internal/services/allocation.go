// Package services implements the allocation engine and summary
// aggregation on top of the SQLite ledger store.
//
// This file holds the two allocation primitives. Both re-read the
// authoritative income row inside the enclosing transaction instead of
// trusting a caller-supplied copy, so a stale in-memory income can never
// cause a lost update.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// deduct draws amount from the income's remaining balance. Fails with
// core.ErrInsufficientFunds and no mutation when the balance would go
// negative.
func deduct(ctx context.Context, q *storage.Queries, incomeID int64, amount float64) error {
	inc, err := q.GetIncome(ctx, incomeID)
	if err != nil {
		return fmt.Errorf("load income %d: %w", incomeID, err)
	}

	newRemaining := inc.RemainingAmount - amount
	if newRemaining < 0 {
		return fmt.Errorf("income %q: requested %s, remaining %s: %w",
			inc.Description, core.FormatAmount(amount), core.FormatAmount(inc.RemainingAmount),
			core.ErrInsufficientFunds)
	}

	if err := q.UpdateIncomeRemaining(ctx, incomeID, newRemaining); err != nil {
		return fmt.Errorf("persist remaining: %w", err)
	}

	slog.DebugContext(ctx, "Deducted from income",
		"income_id", incomeID,
		"amount", amount,
		"remaining", newRemaining)
	return nil
}

// revert returns amount to the income's remaining balance. There is no
// upper clamp against the original amount; repeated reverts can push the
// balance above it.
func revert(ctx context.Context, q *storage.Queries, incomeID int64, amount float64) error {
	inc, err := q.GetIncome(ctx, incomeID)
	if err != nil {
		return fmt.Errorf("load income %d: %w", incomeID, err)
	}

	newRemaining := inc.RemainingAmount + amount
	if err := q.UpdateIncomeRemaining(ctx, incomeID, newRemaining); err != nil {
		return fmt.Errorf("persist remaining: %w", err)
	}

	slog.DebugContext(ctx, "Reverted to income",
		"income_id", incomeID,
		"amount", amount,
		"remaining", newRemaining)
	return nil
}
