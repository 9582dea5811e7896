package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"movimenti/internal/analytics"
	"movimenti/internal/core"
	"movimenti/internal/ingest"
)

const (
	recentLimit    = 10
	maxRecentLimit = 100
	maxImportBytes = 10 << 20
)

type transactionJSON struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          core.Direction  `json:"type"`
	Category      core.Category   `json:"category"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Currency      string          `json:"currency,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:            t.ID,
		Date:          t.Date.Format("2006-01-02"),
		Description:   t.Description,
		Amount:        t.Amount,
		Type:          t.Direction,
		Category:      t.EffectiveCategory(),
		AccountNumber: t.AccountNumber,
		Currency:      t.Currency,
	}
}

func toTransactionsJSON(txns []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type overviewJSON struct {
	SpendingPercentages []core.CategoryValue                         `json:"spendingPercentages"`
	MonthlyTotals       []core.CategoryValue                         `json:"monthlyTotals"`
	CategoryTrends      map[string]map[core.Category]decimal.Decimal `json:"categoryTrends"`
	PriorityCategory    string                                       `json:"priorityCategory"`
	Recent              []transactionJSON                            `json:"recent"`
}

type rowErrorJSON struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type importJSON struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   []rowErrorJSON `json:"errors"`
}

// recordsSource serves rows already read from a request body.
type recordsSource [][]string

func (s recordsSource) Rows(context.Context) ([][]string, error) { return s, nil }

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), "limit", recentLimit, maxRecentLimit)
	if err != nil {
		writeError(w, r, "recent_transactions", err)
		return
	}
	s.cachedJSON(w, r, fmt.Sprintf("transactions:recent:%d", limit), func(ctx context.Context) (any, error) {
		txns, err := s.svc.Transactions.Recent(ctx, limit)
		if err != nil {
			return nil, err
		}
		return toTransactionsJSON(txns), nil
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, "transactions:overview", func(ctx context.Context) (any, error) {
		ov, err := s.svc.Transactions.Overview(ctx, recentLimit)
		if err != nil {
			return nil, err
		}
		return overviewJSON{
			SpendingPercentages: nonNil(analytics.Ranked(ov.Percentages)),
			MonthlyTotals:       nonNil(analytics.Chronological(ov.MonthlyTotals)),
			CategoryTrends:      ov.Trends,
			PriorityCategory:    ov.PriorityCategory,
			Recent:              toTransactionsJSON(ov.Recent),
		}, nil
	})
}

func (s *Server) handleSpendingPercentages(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, "transactions:spending-percentages", func(ctx context.Context) (any, error) {
		values, err := s.svc.Transactions.SpendingPercentages(ctx)
		return nonNil(values), err
	})
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, "transactions:trends", func(ctx context.Context) (any, error) {
		values, err := s.svc.Transactions.MonthlyTotals(ctx)
		return nonNil(values), err
	})
}

func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, "transactions:category-trends", func(ctx context.Context) (any, error) {
		matrix, err := s.svc.Transactions.CategoryTrends(ctx)
		if matrix == nil {
			matrix = map[string]map[core.Category]decimal.Decimal{}
		}
		return matrix, err
	})
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	changed, err := s.svc.Transactions.Recategorize(r.Context())
	if err != nil {
		writeError(w, r, "recategorize", err)
		return
	}
	if changed > 0 {
		s.InvalidateCache()
	}
	NewResponse().JSON(map[string]int{"recategorized": changed}).Write(w)
}

// handleImport reads a CSV export from the request body and upserts its
// rows. Bad rows are reported, not fatal.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	records, err := ingest.ReadRecords(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, r, "import", invalidf("unreadable CSV body: %v", err))
		return
	}
	if len(records) == 0 {
		writeError(w, r, "import", invalidf("request body is empty"))
		return
	}

	res, err := s.svc.Transactions.Import(r.Context(), recordsSource(records))
	if res.Imported > 0 {
		atomic.AddInt64(&s.metrics.imports, int64(res.Imported))
		s.InvalidateCache()
	}
	if err != nil {
		writeError(w, r, "import", err)
		return
	}

	out := importJSON{Imported: res.Imported, Skipped: res.Skipped, Errors: make([]rowErrorJSON, 0, len(res.Errors))}
	for _, re := range res.Errors {
		out.Errors = append(out.Errors, rowErrorJSON{Line: re.Line, Error: re.Err.Error()})
	}
	NewResponse().JSON(out).Write(w)
}

func nonNil(values []core.CategoryValue) []core.CategoryValue {
	if values == nil {
		return []core.CategoryValue{}
	}
	return values
}
