package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// User is the account that owns incomes and expenses. The password
	// field always holds a bcrypt hash, never the plaintext.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Category is a global expense category shared by all users.
	Category struct {
		ID   int64
		Name string
	}

	// Income is a funding source. RemainingAmount starts equal to Amount
	// and is decremented by deductions and incremented by reverts.
	Income struct {
		ID              int64
		UserID          int64
		Description     string
		Amount          float64
		RemainingAmount float64
		Date            time.Time
	}

	// Expense draws its amount from exactly one funding income.
	Expense struct {
		ID           int64
		UserID       int64
		Description  string
		Amount       float64
		Date         time.Time
		CategoryID   int64
		CategoryName string
		IncomeID     int64
	}
)

// DefaultCategories is the fixed set seeded when the category table is empty.
var DefaultCategories = []string{"Food", "Transport", "Entertainment", "Bills", "Other"}

var (
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingDate       = errors.New("missing date")
	ErrMissingCategory   = errors.New("missing category")
	ErrMissingIncome     = errors.New("missing funding income")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeRemaining = errors.New("remaining amount would be negative")
	ErrIncomeInUse       = errors.New("income has expenses referencing it")
	ErrNotFound          = errors.New("not found")
	ErrNoChanges         = errors.New("no changes")
)

func (i Income) Validate() error {
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(i.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	if i.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if e.CategoryID == 0 {
		return ErrMissingCategory
	}
	if e.IncomeID == 0 {
		return ErrMissingIncome
	}
	return nil
}

// Equal reports whether every user-editable field matches. Used for the
// no-op detection on update.
func (e Expense) Equal(other Expense) bool {
	return e.Description == other.Description &&
		e.Amount == other.Amount &&
		sameDay(e.Date, other.Date) &&
		e.CategoryID == other.CategoryID &&
		e.IncomeID == other.IncomeID
}

// Equal reports whether every user-editable field matches.
func (i Income) Equal(other Income) bool {
	return i.Description == other.Description &&
		i.Amount == other.Amount &&
		sameDay(i.Date, other.Date)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
