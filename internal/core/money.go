// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Every derived value (percentages, totals)
// is rounded half-up so results match across storage backends.
package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ratioScale is the number of digits kept by the intermediate division
// before scaling to a percentage.
const ratioScale = 4

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a bank amount string to a non-negative decimal.
//
// The sign is stripped because the transaction direction carries polarity.
// Both dot (12.34) and comma (12,34) separators are accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-12,34") -> 12.34
//	ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "+-")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Abs(), nil
}

// Percentage returns part/total*100 with two decimals. The ratio is first
// rounded half-up to four digits. A non-positive total yields zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.DivRound(total, ratioScale).Mul(hundred).Round(2)
}

// RoundMoney rounds half-up to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MonthKey buckets a timestamp by its UTC year and month.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
