package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movimenti/internal/core"
)

const sample = `,date,description,amount,type,account_number,currency
1,2025-03-01,LIDL #4471,-50.00,debit,MT01,EUR
2,2025-03-02,NETFLIX.COM,-15.00,DEBIT,MT01,EUR

3,2025-03-03,unknown merchant xyz,-35,debit,MT01,EUR
4,2025-03-04,PAYROLL ACME,2000,credit,MT01,EUR
5,03/05/2025,bad date,1,debit,MT01,EUR
6,2025-03-05,bad amount,abc,debit,MT01,EUR
7,2025-03-05,bad type,1,transfer,MT01,EUR
8,2025-03-05,short row
`

func TestParseCSV(t *testing.T) {
	txns, errs, err := ParseCSV(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, txns, 4)
	require.Len(t, errs, 4)

	first := txns[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "LIDL #4471", first.Description)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(50)), "sign stripped")
	assert.Equal(t, core.Debit, first.Direction)
	assert.Equal(t, "MT01", first.AccountNumber)
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, core.Category(""), first.Category)

	assert.Equal(t, core.Debit, txns[1].Direction, "direction is case-insensitive")
	assert.Equal(t, core.Credit, txns[3].Direction)

	assert.ErrorIs(t, errs[0], core.ErrInvalidDate)
	assert.ErrorIs(t, errs[1], core.ErrInvalidAmount)
	assert.ErrorIs(t, errs[2], core.ErrInvalidDirection)
	assert.ErrorIs(t, errs[3], ErrTooFewFields)

	var re *RowError
	require.True(t, errors.As(errs[0], &re))
	assert.Greater(t, re.Line, 1)
}

func TestParseRows_NoHeader(t *testing.T) {
	rows := [][]string{
		{"", "2025-01-01", "x", "1", "debit", "a", "EUR"},
		{" ", " "},
	}
	txns, errs := ParseRows(rows)
	require.Len(t, txns, 1)
	assert.Empty(t, errs)
	assert.NotEmpty(t, txns[0].ID, "blank ids get generated")
}

func TestCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	rows, err := CSVFile(path).Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 9, "blank line dropped by the reader")

	_, err = CSVFile(filepath.Join(t.TempDir(), "missing.csv")).Rows(context.Background())
	assert.Error(t, err)
}
