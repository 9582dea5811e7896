// Package ingest turns bank export rows into categorized transactions.
//
// Rows use the column order
//
//	id,date(yyyy-MM-dd),description,amount,type,account_number,currency
//
// and may come from a CSV file or a spreadsheet.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"movimenti/internal/core"
)

const (
	dateLayout = "2006-01-02"
	minFields  = 7
)

var ErrTooFewFields = errors.New("too few fields")

// RowError describes a row that could not be parsed. Line is the 1-based
// record number.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RowSource supplies raw rows, header included.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// CSVFile is a RowSource backed by a file on disk.
type CSVFile string

func (f CSVFile) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", string(f), err)
	}
	defer file.Close()
	rows, err := ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", string(f), err)
	}
	return rows, nil
}

// ReadRecords reads every CSV record, tolerating ragged rows and stray quotes.
func ReadRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// ParseRecord converts one row into an uncategorized transaction. The
// amount sign is dropped; the type column carries the direction.
func ParseRecord(fields []string) (core.Transaction, error) {
	if len(fields) < minFields {
		return core.Transaction{}, fmt.Errorf("%w: got %d, want %d", ErrTooFewFields, len(fields), minFields)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	date, err := time.ParseInLocation(dateLayout, fields[1], time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, fields[1])
	}
	amount, err := core.ParseAmount(fields[3])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", err, fields[3])
	}
	dir, err := core.ParseDirection(fields[4])
	if err != nil {
		return core.Transaction{}, err
	}

	id := fields[0]
	if id == "" {
		id = uuid.NewString()
	}
	return core.Transaction{
		ID:            id,
		Date:          date,
		Description:   fields[2],
		Amount:        amount,
		Direction:     dir,
		AccountNumber: fields[5],
		Currency:      fields[6],
	}, nil
}

// ParseRows parses every data row, skipping a leading header and blank
// rows. Bad rows are reported, never fatal.
func ParseRows(rows [][]string) ([]core.Transaction, []*RowError) {
	var (
		txns []core.Transaction
		errs []*RowError
	)
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if isBlank(row) {
			continue
		}
		t, err := ParseRecord(append([]string(nil), row...))
		if err != nil {
			errs = append(errs, &RowError{Line: i + 1, Err: err})
			continue
		}
		txns = append(txns, t)
	}
	return txns, errs
}

// ParseCSV reads and parses a whole CSV stream.
func ParseCSV(r io.Reader) ([]core.Transaction, []*RowError, error) {
	rows, err := ReadRecords(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	txns, errs := ParseRows(rows)
	return txns, errs, nil
}

func isHeader(row []string) bool {
	return len(row) > 1 && strings.EqualFold(strings.TrimSpace(row[1]), "date")
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
