// Package alerts summarizes a transaction window into a profit/loss position
// and decides which notification, if any, it deserves.
package alerts

import (
	"time"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
)

// Kind of decision taken by Evaluate.
type Kind string

const (
	None   Kind = "none"
	Loss   Kind = "loss"
	Profit Kind = "profit"
)

// Decision is the outcome of evaluating a summary against a threshold.
type Decision struct {
	Kind    Kind
	Summary core.PeriodSummary
}

// AlertKind maps the decision onto the persisted alert kind.
func (d Decision) AlertKind() core.AlertKind {
	switch d.Kind {
	case Loss:
		return core.AlertLoss
	case Profit:
		return core.AlertProfit
	}
	return ""
}

// DayStart truncates t to midnight in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Summarize totals credits and debits dated within [start, end], both
// inclusive. loc only picks the calendar days start and end fall on;
// transaction dates are day-granular UTC and compared by calendar date.
// Transactions with an invalid direction are counted but contribute to
// neither sum.
func Summarize(txns []core.Transaction, start, end time.Time, loc *time.Location) core.PeriodSummary {
	from := DayStart(start, loc)
	to := DayStart(end, loc)
	first, last := calendarDate(from), calendarDate(to)

	s := core.PeriodSummary{
		Start:       from,
		End:         to,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}
	for _, t := range txns {
		day := calendarDate(t.Date.UTC())
		if day.Before(first) || day.After(last) {
			continue
		}
		s.TotalTransactions++
		switch t.Direction {
		case core.Credit:
			s.TotalCredit = s.TotalCredit.Add(t.Amount)
		case core.Debit:
			s.TotalDebit = s.TotalDebit.Add(t.Amount)
		}
	}
	s.Balance = s.TotalCredit.Sub(s.TotalDebit)
	return s
}

// calendarDate keeps the year, month and day of t as UTC midnight.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Evaluate returns a loss decision when the loss exceeds threshold, a profit
// decision for any positive balance, and None otherwise.
func Evaluate(s core.PeriodSummary, threshold decimal.Decimal) Decision {
	if s.IsLoss() && s.Balance.Abs().GreaterThan(threshold) {
		return Decision{Kind: Loss, Summary: s}
	}
	if s.IsProfit() {
		return Decision{Kind: Profit, Summary: s}
	}
	return Decision{Kind: None, Summary: s}
}
