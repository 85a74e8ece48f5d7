package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fintrack/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a composed transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

// monthRange returns [first day of month, first day of next month) as
// stored date strings for half-open range filtering.
func monthRange(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return formatDate(start), formatDate(start.AddDate(0, 1, 0))
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// --- users ---

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		return core.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return core.User{}, mapNotFound(err)
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return core.User{}, mapNotFound(err)
	}
	return u, nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- sessions ---

func (q *Queries) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	// Stored in the CURRENT_TIMESTAMP format so expiry comparisons work.
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

func (q *Queries) GetSessionUser(ctx context.Context, token string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.created_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP`, token)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return core.User{}, mapNotFound(err)
	}
	return u, nil
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP`)
	return err
}

// --- categories ---

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}

func (q *Queries) InsertCategory(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	return err
}

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id)

	var c core.Category
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return core.Category{}, mapNotFound(err)
	}
	return c, nil
}

// --- incomes ---

func (q *Queries) CreateIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO incomes (user_id, description, amount, remaining_amount, date)
		VALUES (?, ?, ?, ?, ?)`,
		inc.UserID, inc.Description, inc.Amount, inc.RemainingAmount, formatDate(inc.Date))
	if err != nil {
		return core.Income{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, err
	}
	inc.ID = id
	return inc, nil
}

func (q *Queries) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, amount, COALESCE(remaining_amount, amount), date
		FROM incomes WHERE id = ?`, id)
	return scanIncome(row)
}

// UpdateIncome persists amount, remaining amount, date and description
// together, as one statement.
func (q *Queries) UpdateIncome(ctx context.Context, inc core.Income) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE incomes SET description = ?, amount = ?, remaining_amount = ?, date = ?
		WHERE id = ?`,
		inc.Description, inc.Amount, inc.RemainingAmount, formatDate(inc.Date), inc.ID)
	return err
}

func (q *Queries) UpdateIncomeRemaining(ctx context.Context, id int64, remaining float64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE incomes SET remaining_amount = ? WHERE id = ?`, remaining, id)
	return err
}

func (q *Queries) DeleteIncome(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	return err
}

// HealNullRemaining initializes remaining_amount to the original amount on
// legacy rows that predate allocation tracking.
func (q *Queries) HealNullRemaining(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE incomes SET remaining_amount = amount
		WHERE user_id = ? AND remaining_amount IS NULL`, userID)
	return err
}

func (q *Queries) ListIncomesByUser(ctx context.Context, userID int64) ([]core.Income, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount, COALESCE(remaining_amount, amount), date
		FROM incomes WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncomes(rows)
}

func (q *Queries) ListIncomesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Income, error) {
	start, end := monthRange(year, month)
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount, COALESCE(remaining_amount, amount), date
		FROM incomes WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date, id`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncomes(rows)
}

// SumRemainingByUser is deliberately not month-scoped: the remaining
// income total spans all of the user's incomes.
func (q *Queries) SumRemainingByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(COALESCE(remaining_amount, amount)), 0)
		FROM incomes WHERE user_id = ?`, userID).Scan(&total)
	return total, err
}

func (q *Queries) CountExpensesByIncome(ctx context.Context, incomeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE income_id = ?`, incomeID).Scan(&count)
	return count, err
}

// --- expenses ---

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, description, amount, date, category_id, income_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Description, e.Amount, formatDate(e.Date), e.CategoryID, e.IncomeID)
	if err != nil {
		return core.Expense{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	return e, nil
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT e.id, e.user_id, e.description, e.amount, e.date, e.category_id, c.name, e.income_id
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.id = ?`, id)
	return scanExpense(row)
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE expenses SET description = ?, amount = ?, date = ?, category_id = ?, income_id = ?
		WHERE id = ?`,
		e.Description, e.Amount, formatDate(e.Date), e.CategoryID, e.IncomeID, e.ID)
	return err
}

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	return err
}

func (q *Queries) ListExpensesByUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.description, e.amount, e.date, e.category_id, c.name, e.income_id
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = ? ORDER BY e.date, e.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (q *Queries) ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	start, end := monthRange(year, month)
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.description, e.amount, e.date, e.category_id, c.name, e.income_id
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = ? AND e.date >= ? AND e.date < ? ORDER BY e.date, e.id`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (q *Queries) SumExpensesByMonth(ctx context.Context, userID int64, year, month int) (float64, error) {
	start, end := monthRange(year, month)
	var total float64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE user_id = ? AND date >= ? AND date < ?`,
		userID, start, end).Scan(&total)
	return total, err
}

func (q *Queries) CategorySumsByMonth(ctx context.Context, userID int64, year, month int) ([]core.CategoryAmount, error) {
	start, end := monthRange(year, month)
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.name, SUM(e.amount)
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = ? AND e.date >= ? AND e.date < ?
		GROUP BY c.name`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount); err != nil {
			return nil, err
		}
		sums = append(sums, ca)
	}
	return sums, rows.Err()
}

// --- row scanning ---

func scanIncome(row *sql.Row) (core.Income, error) {
	var inc core.Income
	var date string
	if err := row.Scan(&inc.ID, &inc.UserID, &inc.Description, &inc.Amount, &inc.RemainingAmount, &date); err != nil {
		return core.Income{}, mapNotFound(err)
	}
	inc.Date = parseDate(date)
	return inc, nil
}

func collectIncomes(rows *sql.Rows) ([]core.Income, error) {
	var incomes []core.Income
	for rows.Next() {
		var inc core.Income
		var date string
		if err := rows.Scan(&inc.ID, &inc.UserID, &inc.Description, &inc.Amount, &inc.RemainingAmount, &date); err != nil {
			return nil, err
		}
		inc.Date = parseDate(date)
		incomes = append(incomes, inc)
	}
	return incomes, rows.Err()
}

func scanExpense(row *sql.Row) (core.Expense, error) {
	var e core.Expense
	var date string
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &date, &e.CategoryID, &e.CategoryName, &e.IncomeID); err != nil {
		return core.Expense{}, mapNotFound(err)
	}
	e.Date = parseDate(date)
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &date, &e.CategoryID, &e.CategoryName, &e.IncomeID); err != nil {
			return nil, err
		}
		e.Date = parseDate(date)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
