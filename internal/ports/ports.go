package ports

import (
	"context"

	"movimenti/internal/core"
)

// Ports for outbound persistence adapters.
type (
	TransactionStore interface {
		// ListTransactions returns every stored transaction.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		ListByDirection(ctx context.Context, dir core.Direction) ([]core.Transaction, error)
		// RecentTransactions returns up to limit transactions, newest first.
		RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
		// SaveTransactions upserts by ID and returns how many were written.
		SaveTransactions(ctx context.Context, txns []core.Transaction) (int, error)
		UpdateCategories(ctx context.Context, categories map[string]core.Category) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.SavingGoal, error)
		GetGoal(ctx context.Context, id string) (core.SavingGoal, error)
		CreateGoal(ctx context.Context, g core.SavingGoal) error
		// UpdateGoal and DeleteGoal return core.ErrNotFound for unknown IDs.
		UpdateGoal(ctx context.Context, g core.SavingGoal) error
		DeleteGoal(ctx context.Context, id string) error
	}

	AlertStore interface {
		InsertAlert(ctx context.Context, a core.Alert) error
		// LatestAlert returns core.ErrNotFound when no alert was recorded.
		LatestAlert(ctx context.Context) (core.Alert, error)
		ListAlerts(ctx context.Context, limit int) ([]core.Alert, error)
	}

	Repository interface {
		TransactionStore
		GoalStore
		AlertStore
		Close() error
	}
)
