package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"movimenti/internal/analytics"
	"movimenti/internal/categorizer"
	"movimenti/internal/core"
	"movimenti/internal/ingest"
	"movimenti/internal/ports"
)

// Overview is the dashboard view of the ledger.
type Overview struct {
	analytics.Report
	PriorityCategory string
	Recent           []core.Transaction
}

// TransactionService orchestrates categorization, import and analytics over
// a TransactionStore.
type TransactionService struct {
	store       ports.TransactionStore
	categorizer *categorizer.Categorizer
	importer    *ingest.Importer
}

func NewTransactionService(store ports.TransactionStore, c *categorizer.Categorizer) *TransactionService {
	return &TransactionService{
		store:       store,
		categorizer: c,
		importer:    ingest.NewImporter(c, store),
	}
}

func (s *TransactionService) debits(ctx context.Context) ([]core.Transaction, error) {
	txns, err := s.store.ListByDirection(ctx, core.Debit)
	if err != nil {
		return nil, fmt.Errorf("list debit transactions: %w", err)
	}
	return txns, nil
}

// Overview loads debits and the most recent transactions concurrently and
// reduces them into a report.
func (s *TransactionService) Overview(ctx context.Context, recentLimit int) (Overview, error) {
	var (
		debits []core.Transaction
		recent []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		debits, err = s.debits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.Recent(gctx, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	report, err := analytics.Snapshot(ctx, debits)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Report:           report,
		PriorityCategory: analytics.PriorityCategory(report.Percentages),
		Recent:           recent,
	}, nil
}

// SpendingPercentages lists each category's share of debit spending, largest first.
func (s *TransactionService) SpendingPercentages(ctx context.Context) ([]core.CategoryValue, error) {
	debits, err := s.debits(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Ranked(analytics.CategoryPercentages(debits)), nil
}

// MonthlyTotals lists debit spending per YYYY-MM, oldest first.
func (s *TransactionService) MonthlyTotals(ctx context.Context) ([]core.CategoryValue, error) {
	debits, err := s.debits(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Chronological(analytics.MonthlyTotals(debits)), nil
}

// CategoryTrends returns the month x category percentage matrix.
func (s *TransactionService) CategoryTrends(ctx context.Context) (map[string]map[core.Category]decimal.Decimal, error) {
	debits, err := s.debits(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TrendMatrix(debits), nil
}

func (s *TransactionService) Recent(ctx context.Context, limit int) ([]core.Transaction, error) {
	txns, err := s.store.RecentTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return txns, nil
}

// Recategorize re-applies the rules to every stored transaction and writes
// back only the labels that changed. It returns the number of changes.
func (s *TransactionService) Recategorize(ctx context.Context) (int, error) {
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	categorized, skipped := s.categorizer.Apply(all)
	for _, id := range skipped {
		slog.WarnContext(ctx, "Transaction left uncategorized", "transaction_id", id)
	}

	changes := make(map[string]core.Category)
	for i, t := range categorized {
		if t.Category != all[i].Category {
			changes[t.ID] = t.Category
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}
	if err := s.store.UpdateCategories(ctx, changes); err != nil {
		return 0, fmt.Errorf("update categories: %w", err)
	}

	slog.InfoContext(ctx, "Transactions recategorized",
		"changed", len(changes),
		"total", len(all),
		"skipped", len(skipped))
	return len(changes), nil
}

func (s *TransactionService) Import(ctx context.Context, src ingest.RowSource) (ingest.Result, error) {
	return s.importer.Import(ctx, src)
}

// Categorize labels a single description without touching the store.
func (s *TransactionService) Categorize(description string, dir core.Direction) (core.Category, error) {
	return s.categorizer.Categorize(description, dir)
}
