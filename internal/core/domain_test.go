package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestIncomeValidate(t *testing.T) {
	good := Income{Description: "Salary", Amount: 1000, Date: date(2024, 5, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Income{
		{Description: "", Amount: 1000, Date: date(2024, 5, 1)},
		{Description: "   ", Amount: 1000, Date: date(2024, 5, 1)},
		{Description: "Salary", Amount: 0, Date: date(2024, 5, 1)},
		{Description: "Salary", Amount: -10, Date: date(2024, 5, 1)},
		{Description: "Salary", Amount: 1000},
	}
	for i, inc := range bads {
		if err := inc.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Description: "Groceries",
		Amount:      200,
		Date:        date(2024, 5, 3),
		CategoryID:  1,
		IncomeID:    1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{"empty description", Expense{Amount: 1, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1}, ErrEmptyDescription},
		{"zero amount", Expense{Description: "a", Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1}, ErrInvalidAmount},
		{"negative amount", Expense{Description: "a", Amount: -5, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1}, ErrInvalidAmount},
		{"zero date", Expense{Description: "a", Amount: 1, CategoryID: 1, IncomeID: 1}, ErrMissingDate},
		{"no category", Expense{Description: "a", Amount: 1, Date: date(2024, 5, 3), IncomeID: 1}, ErrMissingCategory},
		{"no income", Expense{Description: "a", Amount: 1, Date: date(2024, 5, 3), CategoryID: 1}, ErrMissingIncome},
	}
	for _, tc := range cases {
		if err := tc.e.Validate(); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestExpenseEqual(t *testing.T) {
	base := Expense{Description: "Groceries", Amount: 200, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1}

	if !base.Equal(base) {
		t.Fatal("expense should equal itself")
	}
	// Time-of-day differences within the same day do not count as a change.
	sameDayLater := base
	sameDayLater.Date = time.Date(2024, 5, 3, 15, 30, 0, 0, time.UTC)
	if !base.Equal(sameDayLater) {
		t.Fatal("same calendar day should compare equal")
	}

	changed := []Expense{
		{Description: "Fuel", Amount: 200, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1},
		{Description: "Groceries", Amount: 300, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 1},
		{Description: "Groceries", Amount: 200, Date: date(2024, 5, 4), CategoryID: 1, IncomeID: 1},
		{Description: "Groceries", Amount: 200, Date: date(2024, 5, 3), CategoryID: 2, IncomeID: 1},
		{Description: "Groceries", Amount: 200, Date: date(2024, 5, 3), CategoryID: 1, IncomeID: 2},
	}
	for i, c := range changed {
		if base.Equal(c) {
			t.Fatalf("case %d expected not equal", i)
		}
	}
}
