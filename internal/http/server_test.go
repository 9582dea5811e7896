package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"movimenti/internal/advisor"
	"movimenti/internal/categorizer"
	"movimenti/internal/chat"
	"movimenti/internal/core"
	"movimenti/internal/services"
	"movimenti/internal/storage/memory"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f fakeLLM) Complete(context.Context, string) (string, error) { return f.reply, f.err }

// brokenStore fails every read used by the readiness check.
type brokenStore struct {
	*memory.Store
}

func (brokenStore) RecentTransactions(context.Context, int) ([]core.Transaction, error) {
	return nil, errors.New("database unavailable")
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedTransactions() []core.Transaction {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	return []core.Transaction{
		{ID: "t1", Date: day(2, 10), Description: "LIDL #4471", Amount: dec("50.00"), Direction: core.Debit, Category: core.Groceries},
		{ID: "t2", Date: day(3, 2), Description: "NETFLIX.COM", Amount: dec("15.00"), Direction: core.Debit, Category: core.Subscriptions},
		{ID: "t3", Date: day(3, 5), Description: "unknown merchant xyz", Amount: dec("35.00"), Direction: core.Debit, Category: core.Other},
		{ID: "t4", Date: day(3, 1), Description: "PAYROLL ACME", Amount: dec("1000.00"), Direction: core.Credit, Category: core.Income},
	}
}

func newTestServer(t *testing.T, store *memory.Store, llm advisor.Completer, cfg Config) *Server {
	t.Helper()
	cat, err := categorizer.Default()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	svc := Services{
		Transactions: services.NewTransactionService(store, cat),
		Goals:        services.NewGoalService(store),
		Alerts:       store,
	}
	if llm != nil {
		svc.Advisor = advisor.NewService(llm, chat.NewStore(chat.DefaultLimit, 0), store, time.Second)
	}
	srv := NewServer(cfg, svc)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s content type=%q", path, ct)
		}
	}

	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	decode(t, do(t, srv, http.MethodGet, "/readyz", ""), &ready)
	if ready.Status != "ready" || ready.Checks["store"] != "ok" || ready.Checks["advisor"] != "disabled" {
		t.Fatalf("unexpected readiness: %+v", ready)
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	store := memory.New()
	cat, err := categorizer.Default()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	srv := NewServer(DefaultConfig(), Services{
		Transactions: services.NewTransactionService(brokenStore{store}, cat),
		Goals:        services.NewGoalService(store),
		Alerts:       store,
	})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database unavailable") {
		t.Fatalf("missing failure detail: %s", rr.Body.String())
	}

	// Liveness does not depend on the store.
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())
	do(t, srv, http.MethodGet, "/healthz", "")

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"# TYPE http_requests_total counter",
		"cache_hits_total 0",
		"transactions_imported_total 0",
		"rate_limit_active_clients",
		"security_suspicious_requests_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCommonHeaders(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-abc_123")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	want := map[string]string{
		"X-Request-ID":           "client-abc_123",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for name, value := range want {
		if got := rr.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())

	if rr := do(t, srv, http.MethodGet, "/v0/unknown", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/v0/alerts", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method status=%d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("Allow header=%q", allow)
	}
}

func TestSpendingPercentages(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())

	rr := do(t, srv, http.MethodGet, "/v0/transactions/spending-percentages", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got []core.CategoryValue
	decode(t, rr, &got)

	want := []core.CategoryValue{
		{Category: "groceries", Value: dec("50.00")},
		{Category: "other", Value: dec("35.00")},
		{Category: "subscriptions", Value: dec("15.00")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Category != want[i].Category || !got[i].Value.Equal(want[i].Value) {
			t.Errorf("[%d] = %s %s, want %s %s", i, got[i].Category, got[i].Value, want[i].Category, want[i].Value)
		}
	}
}

func TestEmptyLedgerServesEmptyCollections(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())

	tests := []struct {
		path string
		want string
	}{
		{"/v0/transactions", "[]"},
		{"/v0/transactions/spending-percentages", "[]"},
		{"/v0/transactions/trends", "[]"},
		{"/v0/transactions/category-trends", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.want {
				t.Fatalf("body=%s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrends(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())

	var monthly []core.CategoryValue
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions/trends", ""), &monthly)
	if len(monthly) != 2 || monthly[0].Category != "2024-02" || monthly[1].Category != "2024-03" {
		t.Fatalf("unexpected monthly totals: %+v", monthly)
	}
	if !monthly[0].Value.Equal(dec("50")) || !monthly[1].Value.Equal(dec("50")) {
		t.Fatalf("unexpected monthly values: %+v", monthly)
	}

	var matrix map[string]map[string]decimal.Decimal
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions/category-trends", ""), &matrix)
	if len(matrix) != 2 {
		t.Fatalf("expected two months, got %+v", matrix)
	}
	if !matrix["2024-02"]["groceries"].Equal(dec("100")) {
		t.Errorf("february groceries = %s", matrix["2024-02"]["groceries"])
	}
	if !matrix["2024-03"]["other"].Equal(dec("70")) || !matrix["2024-03"]["subscriptions"].Equal(dec("30")) {
		t.Errorf("march row = %+v", matrix["2024-03"])
	}
}

func TestRecentTransactions(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())

	var all []transactionJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions", ""), &all)
	if len(all) != 4 || all[0].ID != "t3" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].Date != "2024-03-05" || all[0].Type != core.Debit {
		t.Fatalf("unexpected encoding: %+v", all[0])
	}

	var two []transactionJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions?limit=2", ""), &two)
	if len(two) != 2 {
		t.Fatalf("limit ignored: %d", len(two))
	}

	if rr := do(t, srv, http.MethodGet, "/v0/transactions?limit=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestOverview(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())

	var ov overviewJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions/overview", ""), &ov)
	if ov.PriorityCategory != "groceries" {
		t.Fatalf("priority=%q", ov.PriorityCategory)
	}
	if len(ov.SpendingPercentages) != 3 || len(ov.MonthlyTotals) != 2 || len(ov.CategoryTrends) != 2 {
		t.Fatalf("unexpected overview: %+v", ov)
	}
	if len(ov.Recent) != 4 {
		t.Fatalf("recent=%d", len(ov.Recent))
	}
}

func TestImportInvalidatesCache(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), nil, DefaultConfig())
	const path = "/v0/transactions/spending-percentages"

	do(t, srv, http.MethodGet, path, "")
	do(t, srv, http.MethodGet, path, "")
	if hits := atomic.LoadInt64(&srv.metrics.cacheHits); hits != 1 {
		t.Fatalf("expected one cache hit, got %d", hits)
	}

	csv := "id,date,description,amount,type,account_number,currency\n" +
		"t9,2024-03-20,SPOTIFY AB,-100.00,debit,MT001,EUR\n" +
		"bad,not-a-date,broken row,1.00,debit,MT001,EUR\n"
	rr := do(t, srv, http.MethodPost, "/v0/transactions/import", csv)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	var res importJSON
	decode(t, rr, &res)
	if res.Imported != 1 || res.Skipped != 1 || len(res.Errors) != 1 {
		t.Fatalf("unexpected import result: %+v", res)
	}

	var got []core.CategoryValue
	decode(t, do(t, srv, http.MethodGet, path, ""), &got)
	if got[0].Category != "subscriptions" || !got[0].Value.Equal(dec("57.5")) {
		t.Fatalf("stale or wrong percentages after import: %+v", got)
	}
	if n := atomic.LoadInt64(&srv.metrics.imports); n != 1 {
		t.Fatalf("imports metric=%d", n)
	}
}

func TestImportRejectsEmptyBody(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())
	if rr := do(t, srv, http.MethodPost, "/v0/transactions/import", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRecategorize(t *testing.T) {
	txns := seedTransactions()
	txns[0].Category = core.Shopping
	srv := newTestServer(t, memory.NewWithTransactions(txns), nil, DefaultConfig())

	var before []core.CategoryValue
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions/spending-percentages", ""), &before)
	if before[0].Category != "shopping" {
		t.Fatalf("unexpected seed: %+v", before)
	}

	var res map[string]int
	decode(t, do(t, srv, http.MethodPost, "/v0/transactions/recategorize", ""), &res)
	if res["recategorized"] != 1 {
		t.Fatalf("expected one change, got %+v", res)
	}

	var after []core.CategoryValue
	decode(t, do(t, srv, http.MethodGet, "/v0/transactions/spending-percentages", ""), &after)
	if after[0].Category != "groceries" {
		t.Fatalf("cache not invalidated: %+v", after)
	}

	decode(t, do(t, srv, http.MethodPost, "/v0/transactions/recategorize", ""), &res)
	if res["recategorized"] != 0 {
		t.Fatalf("second run should change nothing, got %+v", res)
	}
}

func TestSavingsGoalLifecycle(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())

	rr := do(t, srv, http.MethodPost, "/v0/savings-goals", `{"name":"Trip","target":1000,"saved":250}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created goalJSON
	decode(t, rr, &created)
	if created.ID == "" || !created.Remainder.Equal(dec("750")) || !created.ProgressPercentage.Equal(dec("25")) {
		t.Fatalf("unexpected goal: %+v", created)
	}
	if loc := rr.Header().Get("Location"); loc != "/v0/savings-goals/"+created.ID {
		t.Fatalf("Location=%q", loc)
	}

	var goals []goalJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/savings-goals", ""), &goals)
	if len(goals) != 1 || goals[0].Name != "Trip" {
		t.Fatalf("unexpected list: %+v", goals)
	}

	rr = do(t, srv, http.MethodPatch, "/v0/savings-goals/"+created.ID, `{"saved":"400.50"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated goalJSON
	decode(t, rr, &updated)
	if !updated.Saved.Equal(dec("400.50")) || !updated.Remainder.Equal(dec("599.50")) {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if rr := do(t, srv, http.MethodDelete, "/v0/savings-goals/"+created.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/v0/savings-goals/"+created.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
}

func TestSavingsGoalValidation(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())
	rr := do(t, srv, http.MethodPost, "/v0/savings-goals", `{"name":"Car","target":500}`)
	var g goalJSON
	decode(t, rr, &g)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/v0/savings-goals", `{"name":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v0/savings-goals", `{"name":"x","target":1,"color":"red"}`, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/v0/savings-goals", `{"target":100}`, http.StatusBadRequest},
		{"missing target", http.MethodPost, "/v0/savings-goals", `{"name":"x"}`, http.StatusBadRequest},
		{"zero target", http.MethodPost, "/v0/savings-goals", `{"name":"x","target":0}`, http.StatusBadRequest},
		{"negative saved", http.MethodPost, "/v0/savings-goals", `{"name":"x","target":10,"saved":-1}`, http.StatusBadRequest},
		{"saved above target", http.MethodPost, "/v0/savings-goals", `{"name":"x","target":10,"saved":11}`, http.StatusBadRequest},
		{"patch without saved", http.MethodPatch, "/v0/savings-goals/" + g.ID, `{}`, http.StatusBadRequest},
		{"patch above target", http.MethodPatch, "/v0/savings-goals/" + g.ID, `{"saved":501}`, http.StatusBadRequest},
		{"patch unknown goal", http.MethodPatch, "/v0/savings-goals/nope", `{"saved":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d, want %d, body=%s", rr.Code, tt.want, rr.Body.String())
			}
			var body errorBody
			decode(t, rr, &body)
			if body.Error == "" {
				t.Fatal("error message missing")
			}
		})
	}
}

func TestAlerts(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, nil, DefaultConfig())

	rr := do(t, srv, http.MethodGet, "/v0/alerts", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("expected null before any alert, got %d %s", rr.Code, rr.Body.String())
	}

	ctx := context.Background()
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, kind := range []core.AlertKind{core.AlertStartup, core.AlertLoss} {
		a := core.Alert{ID: string(kind), Kind: kind, Message: "m", Delivered: i == 1, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.InsertAlert(ctx, a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	var latest alertJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/alerts", ""), &latest)
	if latest.Kind != core.AlertLoss || !latest.Delivered {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	var history []alertJSON
	decode(t, do(t, srv, http.MethodGet, "/v0/alerts/history", ""), &history)
	if len(history) != 2 || history[0].Kind != core.AlertLoss {
		t.Fatalf("unexpected history: %+v", history)
	}
	decode(t, do(t, srv, http.MethodGet, "/v0/alerts/history?limit=1", ""), &history)
	if len(history) != 1 {
		t.Fatalf("limit ignored: %+v", history)
	}
	if rr := do(t, srv, http.MethodGet, "/v0/alerts/history?limit=0", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAIRoutesWithoutAdvisor(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil, DefaultConfig())

	if rr := do(t, srv, http.MethodGet, "/v0/ai/recommendations", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var quick []string
	rr := do(t, srv, http.MethodGet, "/v0/ai/quick-responses", "")
	decode(t, rr, &quick)
	if rr.Code != http.StatusOK || len(quick) != 7 {
		t.Fatalf("quick responses: %d %v", rr.Code, quick)
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), fakeLLM{reply: "Cut your spending on groceries."}, DefaultConfig())

	tests := []struct {
		name string
		body string
	}{
		{"missing session", `{"message":"hi"}`},
		{"missing message", `{"sessionId":"s1"}`},
		{"blank message", `{"sessionId":"s1","message":"   "}`},
		{"message too long", `{"sessionId":"s1","message":"` + strings.Repeat("a", 1001) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, srv, http.MethodPost, "/v0/ai/chat", tt.body); rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}

	rr := do(t, srv, http.MethodPost, "/v0/ai/chat", `{"sessionId":"s1","message":"How is my spending?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("chat status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp advisor.ChatResponse
	decode(t, rr, &resp)
	if !resp.Success || resp.SessionID != "s1" || resp.Response != "Cut your spending on groceries." {
		t.Fatalf("unexpected chat response: %+v", resp)
	}

	var history []chat.Message
	decode(t, do(t, srv, http.MethodGet, "/v0/ai/chat/history/s1", ""), &history)
	if len(history) != 2 || history[0].Role != chat.RoleUser || history[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected history: %+v", history)
	}

	if rr := do(t, srv, http.MethodDelete, "/v0/ai/chat/history/s1", ""); rr.Code != http.StatusOK {
		t.Fatalf("clear status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/v0/ai/chat/history/s1", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("history not cleared: %s", rr.Body.String())
	}
}

func TestChatFallbackWhenModelFails(t *testing.T) {
	srv := newTestServer(t, memory.New(), fakeLLM{err: errors.New("quota exceeded")}, DefaultConfig())

	rr := do(t, srv, http.MethodPost, "/v0/ai/chat", `{"sessionId":"s2","message":"hello"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp advisor.ChatResponse
	decode(t, rr, &resp)
	if resp.Success || resp.Response != advisor.FallbackReply {
		t.Fatalf("expected fallback, got %+v", resp)
	}
}

func TestAnalyzeAdviceAndRecommendations(t *testing.T) {
	reply := "Key recommendations:\n1. Cook at home\n2. Cancel unused subscriptions\n"
	srv := newTestServer(t, memory.NewWithTransactions(seedTransactions()), fakeLLM{reply: reply}, DefaultConfig())

	if rr := do(t, srv, http.MethodGet, "/v0/ai/analyze", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("analyze without topic: %d", rr.Code)
	}

	var resp advisor.ChatResponse
	decode(t, do(t, srv, http.MethodGet, "/v0/ai/analyze?topic=spending", ""), &resp)
	if !resp.Success || !strings.HasPrefix(resp.SessionID, "analysis_") {
		t.Fatalf("unexpected analysis: %+v", resp)
	}

	decode(t, do(t, srv, http.MethodGet, "/v0/ai/advice?category=food_delivery", ""), &resp)
	if !resp.Success || !strings.HasPrefix(resp.SessionID, "advice_") {
		t.Fatalf("unexpected advice: %+v", resp)
	}

	rr := do(t, srv, http.MethodGet, "/v0/ai/recommendations", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("recommendations status=%d", rr.Code)
	}
	var rec struct {
		AIAnalysis          string                     `json:"aiAnalysis"`
		PriorityCategory    string                     `json:"priorityCategory"`
		ActionableSteps     []string                   `json:"actionableSteps"`
		CategoryPercentages map[string]decimal.Decimal `json:"categoryPercentages"`
	}
	decode(t, rr, &rec)
	if rec.AIAnalysis != reply || rec.PriorityCategory != "groceries" {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if len(rec.ActionableSteps) != 2 || rec.ActionableSteps[0] != "Cook at home" {
		t.Fatalf("unexpected steps: %v", rec.ActionableSteps)
	}
	if !rec.CategoryPercentages["groceries"].Equal(dec("50")) {
		t.Fatalf("unexpected percentages: %v", rec.CategoryPercentages)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	srv := newTestServer(t, memory.New(), nil, cfg)

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	var body errorBody
	decode(t, rr, &body)
	if body.Error == "" {
		t.Fatal("rate limit body missing error")
	}
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}
