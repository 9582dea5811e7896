package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
	"movimenti/internal/ports"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

var _ ports.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toTransactions(ctx, rows), nil
}

func (r *SQLiteRepository) ListByDirection(ctx context.Context, dir core.Direction) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByDirection(ctx, string(dir))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", dir, err)
	}
	return toTransactions(ctx, rows), nil
}

func (r *SQLiteRepository) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.RecentTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return toTransactions(ctx, rows), nil
}

// SaveTransactions upserts all rows in a single transaction.
func (r *SQLiteRepository) SaveTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, t := range txns {
		if err := q.UpsertTransaction(ctx, TransactionRow{
			ID:            t.ID,
			Date:          t.Date.UTC().Format(timeLayout),
			Description:   t.Description,
			Amount:        t.Amount.String(),
			Direction:     string(t.Direction),
			Category:      string(t.Category),
			AccountNumber: t.AccountNumber,
			Currency:      t.Currency,
		}); err != nil {
			return 0, fmt.Errorf("upsert transaction %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite", "count", len(txns))
	return len(txns), nil
}

func (r *SQLiteRepository) UpdateCategories(ctx context.Context, categories map[string]core.Category) error {
	if len(categories) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for id, cat := range categories {
		if _, err := q.UpdateTransactionCategory(ctx, id, string(cat)); err != nil {
			return fmt.Errorf("update category for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.SavingGoal, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]core.SavingGoal, 0, len(rows))
	for _, row := range rows {
		g, err := toGoal(row)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.SavingGoal, error) {
	row, err := r.queries.GetGoal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingGoal{}, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return toGoal(row)
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingGoal) error {
	if err := r.queries.CreateGoal(ctx, fromGoal(g)); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	n, err := r.queries.UpdateGoal(ctx, fromGoal(g))
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	n, err := r.queries.DeleteGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) InsertAlert(ctx context.Context, a core.Alert) error {
	err := r.queries.InsertAlert(ctx, AlertRow{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Message:   a.Message,
		Delivered: a.Delivered,
		CreatedAt: a.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LatestAlert(ctx context.Context) (core.Alert, error) {
	alerts, err := r.ListAlerts(ctx, 1)
	if err != nil {
		return core.Alert{}, err
	}
	if len(alerts) == 0 {
		return core.Alert{}, fmt.Errorf("latest alert: %w", core.ErrNotFound)
	}
	return alerts[0], nil
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, limit int) ([]core.Alert, error) {
	rows, err := r.queries.ListAlerts(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	alerts := make([]core.Alert, 0, len(rows))
	for _, row := range rows {
		created, err := time.Parse(timeLayout, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("alert %s: parse created_at: %w", row.ID, err)
		}
		alerts = append(alerts, core.Alert{
			ID:        row.ID,
			Kind:      core.AlertKind(row.Kind),
			Message:   row.Message,
			Delivered: row.Delivered,
			CreatedAt: created,
		})
	}
	return alerts, nil
}

// toTransactions converts rows, skipping (and logging) any that no longer
// parse rather than failing the whole read.
func toTransactions(ctx context.Context, rows []TransactionRow) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(timeLayout, row.Date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored transaction with bad date", "id", row.ID, "error", err)
			continue
		}
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored transaction with bad amount", "id", row.ID, "error", err)
			continue
		}
		out = append(out, core.Transaction{
			ID:            row.ID,
			Date:          date,
			Description:   row.Description,
			Amount:        amount,
			Direction:     core.Direction(row.Direction),
			Category:      core.Category(row.Category),
			AccountNumber: row.AccountNumber,
			Currency:      row.Currency,
		})
	}
	return out
}

func fromGoal(g core.SavingGoal) GoalRow {
	return GoalRow{
		ID:        g.ID,
		Name:      g.Name,
		Target:    g.Target.String(),
		Saved:     g.Saved.String(),
		Remainder: g.Remainder.String(),
	}
}

func toGoal(row GoalRow) (core.SavingGoal, error) {
	var (
		g   = core.SavingGoal{ID: row.ID, Name: row.Name}
		err error
	)
	if g.Target, err = decimal.NewFromString(row.Target); err != nil {
		return g, fmt.Errorf("goal %s: parse target: %w", row.ID, err)
	}
	if g.Saved, err = decimal.NewFromString(row.Saved); err != nil {
		return g, fmt.Errorf("goal %s: parse saved: %w", row.ID, err)
	}
	if g.Remainder, err = decimal.NewFromString(row.Remainder); err != nil {
		return g, fmt.Errorf("goal %s: parse remainder: %w", row.ID, err)
	}
	return g, nil
}
