package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movimenti/internal/categorizer"
	"movimenti/internal/core"
	"movimenti/internal/storage/memory"
)

type rowsFunc func(ctx context.Context) ([][]string, error)

func (f rowsFunc) Rows(ctx context.Context) ([][]string, error) { return f(ctx) }

func csvSource(s string) RowSource {
	return rowsFunc(func(context.Context) ([][]string, error) {
		return ReadRecords(strings.NewReader(s))
	})
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	c, err := categorizer.Default()
	require.NoError(t, err)
	store := memory.New()

	res, err := NewImporter(c, store).Import(ctx, csvSource(sample))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)
	assert.Equal(t, 4, res.Skipped)

	all, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	want := map[string]core.Category{
		"1": core.Groceries,
		"2": core.Subscriptions,
		"3": core.Other,
		"4": core.Income,
	}
	for _, tx := range all {
		assert.Equal(t, want[tx.ID], tx.Category, tx.ID)
	}

	// Re-importing the same rows is an upsert.
	_, err = NewImporter(c, store).Import(ctx, csvSource(sample))
	require.NoError(t, err)
	all, _ = store.ListTransactions(ctx)
	assert.Len(t, all, 4)
}

func TestImporter_SourceError(t *testing.T) {
	c, err := categorizer.Default()
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = NewImporter(c, memory.New()).Import(context.Background(), rowsFunc(func(context.Context) ([][]string, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}
