// Package analytics reduces categorized transactions into spending
// percentages, monthly totals and a per-month category trend matrix.
//
// Every reduction considers debit transactions only and is a pure function
// of its input.
package analytics

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"movimenti/internal/core"
)

// Report bundles the three reductions over the same transaction set.
type Report struct {
	Percentages   map[core.Category]decimal.Decimal
	MonthlyTotals map[string]decimal.Decimal
	Trends        map[string]map[core.Category]decimal.Decimal
}

// CategoryPercentages returns each category's share of total debit spending.
// A zero total yields an empty map.
func CategoryPercentages(txns []core.Transaction) map[core.Category]decimal.Decimal {
	sums := make(map[core.Category]decimal.Decimal)
	total := decimal.Zero
	for _, t := range txns {
		if t.Direction != core.Debit {
			continue
		}
		cat := t.EffectiveCategory()
		sums[cat] = sums[cat].Add(t.Amount)
		total = total.Add(t.Amount)
	}
	return shares(sums, total)
}

// MonthlyTotals sums debit spending per YYYY-MM. Months without debits are
// absent.
func MonthlyTotals(txns []core.Transaction) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Direction != core.Debit {
			continue
		}
		key := core.MonthKey(t.Date)
		sums[key] = sums[key].Add(t.Amount)
	}
	for k, v := range sums {
		sums[k] = core.RoundMoney(v)
	}
	return sums
}

// TrendMatrix returns, per month, each category's share of that month's
// debit spending. Months whose total is zero are omitted.
func TrendMatrix(txns []core.Transaction) map[string]map[core.Category]decimal.Decimal {
	byMonth := make(map[string]map[core.Category]decimal.Decimal)
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t.Direction != core.Debit {
			continue
		}
		key := core.MonthKey(t.Date)
		if byMonth[key] == nil {
			byMonth[key] = make(map[core.Category]decimal.Decimal)
		}
		cat := t.EffectiveCategory()
		byMonth[key][cat] = byMonth[key][cat].Add(t.Amount)
		totals[key] = totals[key].Add(t.Amount)
	}

	out := make(map[string]map[core.Category]decimal.Decimal, len(byMonth))
	for month, sums := range byMonth {
		if !totals[month].IsPositive() {
			continue
		}
		out[month] = shares(sums, totals[month])
	}
	return out
}

func shares(sums map[core.Category]decimal.Decimal, total decimal.Decimal) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal, len(sums))
	if !total.IsPositive() {
		return out
	}
	for cat, v := range sums {
		out[cat] = core.Percentage(v, total)
	}
	return out
}

// Snapshot runs the three reductions concurrently.
func Snapshot(ctx context.Context, txns []core.Transaction) (Report, error) {
	var r Report
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Percentages = CategoryPercentages(txns)
		return nil
	})
	g.Go(func() error {
		r.MonthlyTotals = MonthlyTotals(txns)
		return nil
	})
	g.Go(func() error {
		r.Trends = TrendMatrix(txns)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// Recent returns up to limit transactions, newest first.
func Recent(txns []core.Transaction, limit int) []core.Transaction {
	out := append([]core.Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Ranked lists category values by value descending, then name.
func Ranked(m map[core.Category]decimal.Decimal) []core.CategoryValue {
	out := make([]core.CategoryValue, 0, len(m))
	for k, v := range m {
		out = append(out, core.CategoryValue{Category: string(k), Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Chronological lists month values by key ascending.
func Chronological(m map[string]decimal.Decimal) []core.CategoryValue {
	out := make([]core.CategoryValue, 0, len(m))
	for k, v := range m {
		out = append(out, core.CategoryValue{Category: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Months returns the keys of a trend matrix in ascending order.
func Months(trends map[string]map[core.Category]decimal.Decimal) []string {
	out := make([]string, 0, len(trends))
	for k := range trends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PriorityCategory is the category with the largest share, or "unknown"
// when there is no spending.
func PriorityCategory(percentages map[core.Category]decimal.Decimal) string {
	ranked := Ranked(percentages)
	if len(ranked) == 0 {
		return "unknown"
	}
	return ranked[0].Category
}
