package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movimenti/internal/analytics"
	"movimenti/internal/chat"
	"movimenti/internal/core"
	"movimenti/internal/storage/memory"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewWithTransactions([]core.Transaction{
		{ID: "1", Date: day(2025, 1, 5), Description: "LIDL", Amount: d("50"), Direction: core.Debit, Category: core.Groceries},
		{ID: "2", Date: day(2025, 1, 9), Description: "Wolt", Amount: d("15"), Direction: core.Debit, Category: core.FoodDelivery},
		{ID: "3", Date: day(2025, 2, 1), Description: "Rent", Amount: d("35"), Direction: core.Debit, Category: core.RentHousing},
		{ID: "4", Date: day(2025, 2, 2), Description: "Salary", Amount: d("1000"), Direction: core.Credit, Category: core.Income},
	})
	g, err := core.NewSavingGoal("g1", "Holiday", d("1000"), d("250"))
	require.NoError(t, err)
	require.NoError(t, store.CreateGoal(context.Background(), g))
	return store
}

func TestFormatCategoryName(t *testing.T) {
	assert.Equal(t, "Rent Housing", FormatCategoryName("rent_housing"))
	assert.Equal(t, "Groceries", FormatCategoryName("GROCERIES"))
	assert.Equal(t, "", FormatCategoryName(""))
	assert.Equal(t, "Élite Café", FormatCategoryName("élite_CAFÉ"))
	assert.Equal(t, "Ünterhaltung", FormatCategoryName("ünterhaltung"))
}

func TestExtractActionableSteps(t *testing.T) {
	text := "1. PRIORITY CATEGORY: groceries\n" +
		"2. SPECIFIC RECOMMENDATIONS:\n" +
		"- Plan weekly meals\n" +
		"- Buy store brands\n" +
		"3. Cancel unused subscriptions\n" +
		"3. TREND ANALYSIS: spending rose in March\n" +
		"- Not a step\n"

	assert.Equal(t, []string{"Plan weekly meals", "Buy store brands", "Cancel unused subscriptions"}, ExtractActionableSteps(text))
	assert.Equal(t, DefaultSteps, ExtractActionableSteps("no list here"))
	assert.Equal(t, DefaultSteps, ExtractActionableSteps("- item before any heading"))
}

func TestExtractSuggestions(t *testing.T) {
	assert.Equal(t, []string{"Show my spending breakdown", "Help me create a budget"},
		ExtractSuggestions("Your spending is above budget"))
	assert.Equal(t, []string{"Check my savings goals", "Get personalized recommendations"},
		ExtractSuggestions("Your goal needs a recommendation"))
	assert.Len(t, ExtractSuggestions("hello"), 4)
}

func TestAnalysisAndAdviceMessages(t *testing.T) {
	assert.Equal(t, "Which spending categories should I focus on reducing and why?", AnalysisMessage("Categories"))
	assert.Contains(t, AnalysisMessage("anything"), "comprehensive financial health check")
	assert.Contains(t, AdviceMessage("food_delivery"), "reduce my food delivery spending")
	assert.Contains(t, AdviceMessage("  "), "top 3 areas")
	assert.Len(t, QuickResponses(), 7)
}

func TestFinancialContext(t *testing.T) {
	data := FinancialData{
		Percentages:   map[core.Category]decimal.Decimal{core.Groceries: d("50"), core.RentHousing: d("35"), core.FoodDelivery: d("15")},
		MonthlyTotals: map[string]decimal.Decimal{"2025-02": d("35"), "2025-01": d("65")},
		Goals:         []core.SavingGoal{{Name: "Holiday", Target: d("1000"), Saved: d("250")}},
		Recent:        []core.Transaction{{Description: "LIDL", Amount: d("50"), Category: core.Groceries}},
	}

	got := FinancialContext("How is my spending?", data)
	assert.Contains(t, got, "CURRENT SPENDING BREAKDOWN:\n- Groceries: 50.0%\n- Rent Housing: 35.0%\n- Food Delivery: 15.0%\n")
	assert.Contains(t, got, "RECENT MONTHLY TOTALS:\n- 2025-01: €65.00\n- 2025-02: €35.00\n")
	assert.NotContains(t, got, "SAVINGS GOALS")

	got = FinancialContext("savings and latest", data)
	assert.Contains(t, got, "- Holiday: €250.00 / €1000.00 (25.0% complete)")
	assert.Contains(t, got, "- LIDL: €50.00 (groceries)")

	assert.Empty(t, FinancialContext("hello there", data))
}

func TestBuildChatPrompt_LastFourTurns(t *testing.T) {
	var history []chat.Message
	for _, c := range []string{"one", "two", "three", "four", "five"} {
		history = append(history, chat.Message{Role: chat.RoleUser, Content: c})
	}
	p := BuildChatPrompt("five", "", history)
	assert.NotContains(t, p, "USER: one")
	assert.Contains(t, p, "CONVERSATION HISTORY:\nUSER: two\n")
	assert.NotContains(t, p, "RELEVANT FINANCIAL DATA")
	assert.True(t, strings.HasSuffix(p, "Keep responses concise but informative."))
}

func TestBuildAnalysisPrompt(t *testing.T) {
	report, err := analytics.Snapshot(context.Background(), []core.Transaction{
		{ID: "1", Date: day(2025, 1, 5), Amount: d("75"), Direction: core.Debit, Category: core.Groceries},
		{ID: "2", Date: day(2025, 1, 6), Amount: d("25"), Direction: core.Debit, Category: core.Transport},
	})
	require.NoError(t, err)

	p := BuildAnalysisPrompt(report)
	assert.Contains(t, p, "- Groceries: 75.00%\n- Transport: 25.00%\n")
	assert.Contains(t, p, "- 2025-01: €100.00\n")
	assert.Contains(t, p, "2025-01: Groceries: 75.0%, Transport: 25.0%, \n")
	assert.Contains(t, p, "4. SAVINGS POTENTIAL")
}

func TestService_Chat(t *testing.T) {
	llm := &fakeCompleter{reply: "Your spending on groceries is high."}
	svc := NewService(llm, chat.NewStore(10, 0), seededStore(t), time.Second)

	resp := svc.Chat(context.Background(), "s1", "Show my spending")
	assert.True(t, resp.Success)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, llm.reply, resp.Response)
	assert.Equal(t, []string{"Show my spending breakdown"}, resp.Suggestions)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "RELEVANT FINANCIAL DATA:\nCURRENT SPENDING BREAKDOWN:\n- Groceries: 50.0%")
	assert.Contains(t, llm.prompts[0], "USER: Show my spending")

	h := svc.History("s1")
	require.Len(t, h, 2)
	assert.Equal(t, chat.RoleUser, h[0].Role)
	assert.Equal(t, chat.RoleAssistant, h[1].Role)

	svc.ClearHistory("s1")
	assert.Empty(t, svc.History("s1"))
}

func TestService_ChatFallback(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("quota exceeded")}
	svc := NewService(llm, chat.NewStore(10, 0), seededStore(t), time.Second)

	resp := svc.Chat(context.Background(), "s1", "hello")
	assert.False(t, resp.Success)
	assert.Equal(t, FallbackReply, resp.Response)
	assert.Equal(t, FallbackSuggestions, resp.Suggestions)

	h := svc.History("s1")
	require.Len(t, h, 1)
	assert.Equal(t, "hello", h[0].Content)
}

func TestService_Recommendations(t *testing.T) {
	llm := &fakeCompleter{reply: "Groceries dominate.\nRecommendations:\n- Cook at home\n- Compare prices"}
	svc := NewService(llm, chat.NewStore(10, 0), seededStore(t), time.Second)

	rec, err := svc.Recommendations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "groceries", rec.PriorityCategory)
	assert.Equal(t, []string{"Cook at home", "Compare prices"}, rec.ActionableSteps)
	assert.Contains(t, llm.prompts[0], "CURRENT SPENDING BREAKDOWN BY CATEGORY:\n- Groceries: 50.00%")

	llm.err = errors.New("down")
	rec, err = svc.Recommendations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FallbackRecommendation, rec.Recommendation)
	assert.Equal(t, DefaultSteps, rec.ActionableSteps)
	assert.Equal(t, "groceries", rec.PriorityCategory)
}

func TestService_AnalyzeUsesFreshSession(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	store := chat.NewStore(10, 0)
	svc := NewService(llm, store, seededStore(t), time.Second)

	a := svc.Analyze(context.Background(), "goals")
	b := svc.Advice(context.Background(), "")
	assert.True(t, strings.HasPrefix(a.SessionID, "analysis_"))
	assert.True(t, strings.HasPrefix(b.SessionID, "advice_"))
	assert.Len(t, store.Sessions(), 2)
	assert.Contains(t, llm.prompts[0], "- Holiday: €250.00 / €1000.00 (25.0% complete)")
}
