package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store. It is constructed once in main and
// passed explicitly to every service; there is no process-wide instance.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer. This also keeps an in-memory database on one
	// connection instead of one empty database per pooled connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries exposes the non-transactional query set for read paths.
func (r *SQLiteRepository) Queries() *Queries {
	return r.queries
}

// InTx runs fn against a transaction-scoped query set. The transaction is
// committed when fn returns nil and rolled back otherwise, so every
// multi-step allocation mutation is all-or-nothing.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// EnsureDefaultCategories seeds the fixed category set when the table is
// empty. Safe to call on every startup.
func (r *SQLiteRepository) EnsureDefaultCategories(ctx context.Context) error {
	return r.InTx(ctx, func(q *Queries) error {
		count, err := q.CountCategories(ctx)
		if err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if count > 0 {
			return nil
		}
		for _, name := range core.DefaultCategories {
			if err := q.InsertCategory(ctx, name); err != nil {
				return fmt.Errorf("insert category %s: %w", name, err)
			}
		}
		slog.InfoContext(ctx, "Seeded default categories", "count", len(core.DefaultCategories))
		return nil
	})
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	categories, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	inc, err := r.queries.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, err)
	}
	return inc, nil
}

// ListIncomesByUser heals legacy rows with a NULL remaining amount before
// returning, initializing them to the original amount.
func (r *SQLiteRepository) ListIncomesByUser(ctx context.Context, userID int64) ([]core.Income, error) {
	if err := r.queries.HealNullRemaining(ctx, userID); err != nil {
		return nil, fmt.Errorf("heal null remaining: %w", err)
	}
	incomes, err := r.queries.ListIncomesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return incomes, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpensesByUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	expenses, err := r.queries.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
