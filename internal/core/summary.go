package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodSummary is the credit/debit position over an inclusive day window.
type PeriodSummary struct {
	Start             time.Time
	End               time.Time
	TotalCredit       decimal.Decimal
	TotalDebit        decimal.Decimal
	Balance           decimal.Decimal
	TotalTransactions int
}

func (s PeriodSummary) IsLoss() bool   { return s.Balance.IsNegative() }
func (s PeriodSummary) IsProfit() bool { return s.Balance.IsPositive() }

// LossAmount is the (negative) balance when in loss, zero otherwise.
func (s PeriodSummary) LossAmount() decimal.Decimal {
	if s.IsLoss() {
		return s.Balance
	}
	return decimal.Zero
}
