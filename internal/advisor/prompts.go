package advisor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"movimenti/internal/analytics"
	"movimenti/internal/chat"
	"movimenti/internal/core"
)

const (
	chatHistoryWindow    = 4
	contextCategoryLimit = 5
	contextRecentLimit   = 5
)

// FinancialData is the subset of the ledger a chat prompt may quote.
type FinancialData struct {
	Percentages   map[core.Category]decimal.Decimal
	MonthlyTotals map[string]decimal.Decimal
	Goals         []core.SavingGoal
	Recent        []core.Transaction
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func wantsSpending(lower string) bool {
	return containsAny(lower, "spending", "categories", "budget", "expense")
}

func wantsGoals(lower string) bool {
	return containsAny(lower, "savings", "goals", "target")
}

func wantsRecent(lower string) bool {
	return containsAny(lower, "recent", "latest", "transaction")
}

func euro(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

// FinancialContext renders the sections of data the message asks about.
// A message that matches no keyword yields "".
func FinancialContext(message string, data FinancialData) string {
	lower := strings.ToLower(message)
	var b strings.Builder

	if wantsSpending(lower) {
		b.WriteString("CURRENT SPENDING BREAKDOWN:\n")
		ranked := analytics.Ranked(data.Percentages)
		if len(ranked) > contextCategoryLimit {
			ranked = ranked[:contextCategoryLimit]
		}
		for _, cv := range ranked {
			fmt.Fprintf(&b, "- %s: %s%%\n", FormatCategoryName(cv.Category), cv.Value.StringFixed(1))
		}
		b.WriteString("\nRECENT MONTHLY TOTALS:\n")
		for _, cv := range analytics.Chronological(data.MonthlyTotals) {
			fmt.Fprintf(&b, "- %s: %s\n", cv.Category, euro(cv.Value))
		}
	}

	if wantsGoals(lower) {
		b.WriteString("\nCURRENT SAVINGS GOALS:\n")
		for _, g := range data.Goals {
			fmt.Fprintf(&b, "- %s: %s / %s (%s%% complete)\n",
				g.Name, euro(g.Saved), euro(g.Target), g.ProgressPercentage().StringFixed(1))
		}
	}

	if wantsRecent(lower) {
		b.WriteString("\nRECENT TRANSACTIONS:\n")
		recent := data.Recent
		if len(recent) > contextRecentLimit {
			recent = recent[:contextRecentLimit]
		}
		for _, t := range recent {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", t.Description, euro(t.Amount), t.Category)
		}
	}

	return b.String()
}

// BuildChatPrompt frames the user's question with the last few turns and any
// quoted ledger data.
func BuildChatPrompt(message, financialContext string, history []chat.Message) string {
	var b strings.Builder
	b.WriteString("You are a helpful personal finance assistant. You help users understand their spending, ")
	b.WriteString("manage their budget, and achieve their savings goals. Be conversational, friendly, and provide actionable advice.\n\n")

	if len(history) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		if len(history) > chatHistoryWindow {
			history = history[len(history)-chatHistoryWindow:]
		}
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(financialContext) != "" {
		b.WriteString("RELEVANT FINANCIAL DATA:\n")
		b.WriteString(financialContext)
		b.WriteString("\n")
	}

	b.WriteString("USER QUESTION: " + message + "\n\n")
	b.WriteString("Please provide a helpful response. If the user is asking about their financial data, ")
	b.WriteString("reference the specific numbers provided above. Keep responses concise but informative.")
	return b.String()
}

// BuildAnalysisPrompt asks for a structured review of the spending report.
func BuildAnalysisPrompt(r analytics.Report) string {
	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Analyze the following spending data and tell me in one or two sentences " +
		"which category is the most problematic and during which month and provide actionable recommendations in bullet points\n\n")

	b.WriteString("CURRENT SPENDING BREAKDOWN BY CATEGORY:\n")
	for _, cv := range analytics.Ranked(r.Percentages) {
		fmt.Fprintf(&b, "- %s: %s%%\n", FormatCategoryName(cv.Category), cv.Value.StringFixed(2))
	}

	b.WriteString("\nMONTHLY SPENDING TOTALS:\n")
	for _, cv := range analytics.Chronological(r.MonthlyTotals) {
		fmt.Fprintf(&b, "- %s: %s\n", cv.Category, euro(cv.Value))
	}

	b.WriteString("\nCATEGORY TRENDS OVER TIME:\n")
	for _, month := range analytics.Months(r.Trends) {
		fmt.Fprintf(&b, "%s: ", month)
		row := r.Trends[month]
		cats := make([]string, 0, len(row))
		for c := range row {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(&b, "%s: %s%%, ", FormatCategoryName(c), row[core.Category(c)].StringFixed(1))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nBased on this data, please provide:\n")
	b.WriteString("1. PRIORITY CATEGORY: Which category should I focus on reducing first and why?\n")
	b.WriteString("2. SPECIFIC RECOMMENDATIONS: 3-5 actionable steps I can take immediately\n")
	b.WriteString("3. TREND ANALYSIS: What concerning trends do you see?\n")
	b.WriteString("4. SAVINGS POTENTIAL: Estimate how much I could save per month\n")
	b.WriteString("\nProvide a clear, structured response with practical advice.")
	return b.String()
}

// FormatCategoryName turns "rent_housing" into "Rent Housing".
func FormatCategoryName(category string) string {
	words := strings.Fields(strings.ReplaceAll(category, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
