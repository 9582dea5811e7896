package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the repository, one method per statement.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID            string
	Date          string
	Description   string
	Amount        string
	Direction     string
	Category      string
	AccountNumber string
	Currency      string
}

const transactionColumns = `id, date, description, amount, direction, category, account_number, currency`

const upsertTransaction = `
INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    description = excluded.description,
    amount = excluded.amount,
    direction = excluded.direction,
    category = excluded.category,
    account_number = excluded.account_number,
    currency = excluded.currency`

func (q *Queries) UpsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction,
		arg.ID, arg.Date, arg.Description, arg.Amount, arg.Direction,
		arg.Category, arg.AccountNumber, arg.Currency)
	return err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listTransactionsByDirection = `SELECT ` + transactionColumns + `
FROM transactions WHERE lower(direction) = lower(?) ORDER BY date, id`

func (q *Queries) ListTransactionsByDirection(ctx context.Context, direction string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByDirection, direction)
}

const recentTransactions = `SELECT ` + transactionColumns + `
FROM transactions ORDER BY date DESC, id ASC LIMIT ?`

func (q *Queries) RecentTransactions(ctx context.Context, limit int64) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, recentTransactions, limit)
}

const updateTransactionCategory = `UPDATE transactions SET category = ? WHERE id = ?`

func (q *Queries) UpdateTransactionCategory(ctx context.Context, id, category string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransactionCategory, category, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.Amount, &i.Direction,
			&i.Category, &i.AccountNumber, &i.Currency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

// GoalRow mirrors the saving_goals table.
type GoalRow struct {
	ID        string
	Name      string
	Target    string
	Saved     string
	Remainder string
}

const goalColumns = `id, name, target, saved, remainder`

const listGoals = `SELECT ` + goalColumns + ` FROM saving_goals ORDER BY created_at, id`

func (q *Queries) ListGoals(ctx context.Context) ([]GoalRow, error) {
	rows, err := q.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GoalRow
	for rows.Next() {
		var i GoalRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Target, &i.Saved, &i.Remainder); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const getGoal = `SELECT ` + goalColumns + ` FROM saving_goals WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id string) (GoalRow, error) {
	var i GoalRow
	err := q.db.QueryRowContext(ctx, getGoal, id).Scan(&i.ID, &i.Name, &i.Target, &i.Saved, &i.Remainder)
	return i, err
}

const createGoal = `INSERT INTO saving_goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateGoal(ctx context.Context, arg GoalRow) error {
	_, err := q.db.ExecContext(ctx, createGoal, arg.ID, arg.Name, arg.Target, arg.Saved, arg.Remainder)
	return err
}

const updateGoal = `UPDATE saving_goals SET name = ?, target = ?, saved = ?, remainder = ? WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, arg GoalRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateGoal, arg.Name, arg.Target, arg.Saved, arg.Remainder, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteGoal = `DELETE FROM saving_goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AlertRow mirrors the alerts table.
type AlertRow struct {
	ID        string
	Kind      string
	Message   string
	Delivered bool
	CreatedAt string
}

const insertAlert = `INSERT INTO alerts (id, kind, message, delivered, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertAlert(ctx context.Context, arg AlertRow) error {
	_, err := q.db.ExecContext(ctx, insertAlert, arg.ID, arg.Kind, arg.Message, arg.Delivered, arg.CreatedAt)
	return err
}

const listAlerts = `SELECT id, kind, message, delivered, created_at FROM alerts ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListAlerts(ctx context.Context, limit int64) ([]AlertRow, error) {
	rows, err := q.db.QueryContext(ctx, listAlerts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AlertRow
	for rows.Next() {
		var i AlertRow
		if err := rows.Scan(&i.ID, &i.Kind, &i.Message, &i.Delivered, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}
