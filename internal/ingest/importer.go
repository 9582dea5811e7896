package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"movimenti/internal/categorizer"
	"movimenti/internal/ports"
)

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
	Errors   []*RowError
}

// Importer parses rows, categorizes them and upserts them into a store.
type Importer struct {
	categorizer *categorizer.Categorizer
	store       ports.TransactionStore
}

func NewImporter(c *categorizer.Categorizer, store ports.TransactionStore) *Importer {
	return &Importer{categorizer: c, store: store}
}

func (im *Importer) Import(ctx context.Context, src RowSource) (Result, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load rows: %w", err)
	}

	txns, rowErrs := ParseRows(rows)
	for _, re := range rowErrs {
		slog.WarnContext(ctx, "Skipping invalid row", "line", re.Line, "error", re.Err)
	}

	categorized, skipped := im.categorizer.Apply(txns)
	for _, id := range skipped {
		slog.WarnContext(ctx, "Transaction left uncategorized", "transaction_id", id)
	}

	n, err := im.store.SaveTransactions(ctx, categorized)
	if err != nil {
		return Result{Skipped: len(rowErrs), Errors: rowErrs}, fmt.Errorf("save transactions: %w", err)
	}

	slog.InfoContext(ctx, "Import completed",
		"imported", n,
		"rows_skipped", len(rowErrs))
	return Result{Imported: n, Skipped: len(rowErrs), Errors: rowErrs}, nil
}
