package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
)

const dateLayout = "2006-01-02"

// Formatter renders alert bodies. Currency is the symbol printed before
// every amount.
type Formatter struct {
	Currency string
}

func DefaultFormatter() Formatter {
	return Formatter{Currency: "€"}
}

func (f Formatter) money(d decimal.Decimal) string {
	return f.Currency + d.StringFixed(2)
}

// Message renders the body for a loss or profit decision. None yields "".
func (f Formatter) Message(d Decision, period string) string {
	switch d.Kind {
	case Loss:
		return f.Loss(d.Summary, period)
	case Profit:
		return f.Profit(d.Summary, period)
	}
	return ""
}

func (f Formatter) Loss(s core.PeriodSummary, period string) string {
	return fmt.Sprintf("⚠️ %s LOSS ALERT ⚠️\n\n"+
		"📅 Period: %s to %s\n"+
		"💰 Total Credits: %s\n"+
		"💸 Total Debits: %s\n"+
		"📉 Net Loss: %s\n"+
		"📊 Transactions: %d\n\n"+
		"🔍 Please review your transactions immediately!",
		strings.ToUpper(period),
		s.Start.Format(dateLayout), s.End.Format(dateLayout),
		f.money(s.TotalCredit), f.money(s.TotalDebit), f.money(s.Balance.Abs()),
		s.TotalTransactions)
}

func (f Formatter) Profit(s core.PeriodSummary, period string) string {
	return fmt.Sprintf("✅ %s PROFIT UPDATE\n\n"+
		"📅 Period: %s to %s\n"+
		"💰 Total Credits: %s\n"+
		"💸 Total Debits: %s\n"+
		"📈 Net Profit: %s\n"+
		"📊 Transactions: %d\n\n"+
		"Great job! Keep it up! 🎉",
		strings.ToUpper(period),
		s.Start.Format(dateLayout), s.End.Format(dateLayout),
		f.money(s.TotalCredit), f.money(s.TotalDebit), f.money(s.Balance),
		s.TotalTransactions)
}

func (f Formatter) Summary(s core.PeriodSummary, period string) string {
	status := "⚖️ Break Even"
	switch {
	case s.IsLoss():
		status = "📉 Loss"
	case s.IsProfit():
		status = "📈 Profit"
	}
	return fmt.Sprintf("📊 %s TRANSACTION SUMMARY\n\n"+
		"📅 Period: %s to %s\n"+
		"💰 Total Credits: %s\n"+
		"💸 Total Debits: %s\n"+
		"💵 Net Balance: %s\n"+
		"📊 Transactions: %d\n"+
		"📋 Status: %s",
		strings.ToUpper(period),
		s.Start.Format(dateLayout), s.End.Format(dateLayout),
		f.money(s.TotalCredit), f.money(s.TotalDebit), f.money(s.Balance),
		s.TotalTransactions, status)
}

func (f Formatter) Startup(now time.Time) string {
	return "🚀 Transaction Alert System has started successfully!\n" +
		"Monitoring transactions for loss detection.\n" +
		"Time: " + now.Format("2006-01-02 15:04:05")
}

func (f Formatter) Failure(period string, err error) string {
	return fmt.Sprintf("Error occurred during %s transaction analysis: %v", strings.ToLower(period), err)
}
