// Package advisor turns the ledger into prompts for a language model and
// keeps the chat assistant's conversations.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"movimenti/internal/analytics"
	"movimenti/internal/chat"
	"movimenti/internal/core"
)

const (
	DefaultTimeout = 30 * time.Second

	FallbackReply          = "I'm sorry, I'm having trouble processing your request right now. Please try again."
	FallbackRecommendation = "AI analysis is temporarily unavailable. Review your largest spending category first."

	recentForContext = 10
)

// DataSource is the read side of the ledger the assistant quotes from.
type DataSource interface {
	ListByDirection(ctx context.Context, dir core.Direction) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	ListGoals(ctx context.Context) ([]core.SavingGoal, error)
}

// Recommendation carries the model's review next to the figures it was
// based on.
type Recommendation struct {
	CategoryPercentages map[core.Category]decimal.Decimal `json:"categoryPercentages"`
	MonthlyTrends       map[string]decimal.Decimal        `json:"monthlyTrends"`
	Recommendation      string                            `json:"aiAnalysis"`
	PriorityCategory    string                            `json:"priorityCategory"`
	ActionableSteps     []string                          `json:"actionableSteps"`
}

type ChatResponse struct {
	Response    string    `json:"message"`
	SessionID   string    `json:"sessionId"`
	Success     bool      `json:"success"`
	Suggestions []string  `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
}

type Service struct {
	llm     Completer
	history *chat.Store
	data    DataSource
	timeout time.Duration
}

func NewService(llm Completer, history *chat.Store, data DataSource, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{llm: llm, history: history, data: data, timeout: timeout}
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.llm.Complete(ctx, prompt)
}

func (s *Service) report(ctx context.Context) (analytics.Report, error) {
	debits, err := s.data.ListByDirection(ctx, core.Debit)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("list debit transactions: %w", err)
	}
	return analytics.Snapshot(ctx, debits)
}

// Recommendations asks the model to review current spending. Only a failure
// to read the ledger is returned; a model failure degrades to a static
// recommendation.
func (s *Service) Recommendations(ctx context.Context) (Recommendation, error) {
	report, err := s.report(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	priority := analytics.PriorityCategory(report.Percentages)

	text, err := s.complete(ctx, BuildAnalysisPrompt(report))
	if err != nil {
		slog.WarnContext(ctx, "Recommendation completion failed, using fallback", "error", err)
		return Recommendation{
			CategoryPercentages: report.Percentages,
			MonthlyTrends:       report.MonthlyTotals,
			Recommendation:      FallbackRecommendation,
			PriorityCategory:    priority,
			ActionableSteps:     append([]string(nil), DefaultSteps...),
		}, nil
	}

	return Recommendation{
		CategoryPercentages: report.Percentages,
		MonthlyTrends:       report.MonthlyTotals,
		Recommendation:      text,
		PriorityCategory:    priority,
		ActionableSteps:     ExtractActionableSteps(text),
	}, nil
}

// Chat answers message within session. The user turn is always recorded;
// the assistant turn only when the model answered.
func (s *Service) Chat(ctx context.Context, sessionID, message string) ChatResponse {
	s.history.Append(sessionID, chat.Message{Role: chat.RoleUser, Content: message})

	financial, err := s.financialContext(ctx, message)
	if err != nil {
		slog.WarnContext(ctx, "Could not load financial context", "session_id", sessionID, "error", err)
	}
	prompt := BuildChatPrompt(message, financial, s.history.History(sessionID))

	text, err := s.complete(ctx, prompt)
	if err != nil {
		slog.WarnContext(ctx, "Chat completion failed, using fallback", "session_id", sessionID, "error", err)
		return ChatResponse{
			Response:    FallbackReply,
			SessionID:   sessionID,
			Success:     false,
			Suggestions: append([]string(nil), FallbackSuggestions...),
			Timestamp:   time.Now().UTC(),
		}
	}

	s.history.Append(sessionID, chat.Message{Role: chat.RoleAssistant, Content: text})
	return ChatResponse{
		Response:    text,
		SessionID:   sessionID,
		Success:     true,
		Suggestions: ExtractSuggestions(text),
		Timestamp:   time.Now().UTC(),
	}
}

// financialContext loads only the data sections the message asks for.
func (s *Service) financialContext(ctx context.Context, message string) (string, error) {
	lower := strings.ToLower(message)
	var data FinancialData

	if wantsSpending(lower) {
		report, err := s.report(ctx)
		if err != nil {
			return "", err
		}
		data.Percentages = report.Percentages
		data.MonthlyTotals = report.MonthlyTotals
	}
	if wantsGoals(lower) {
		goals, err := s.data.ListGoals(ctx)
		if err != nil {
			return "", fmt.Errorf("list goals: %w", err)
		}
		data.Goals = goals
	}
	if wantsRecent(lower) {
		recent, err := s.data.RecentTransactions(ctx, recentForContext)
		if err != nil {
			return "", fmt.Errorf("recent transactions: %w", err)
		}
		data.Recent = recent
	}
	return FinancialContext(message, data), nil
}

// Analyze runs a one-off chat about topic in a fresh session.
func (s *Service) Analyze(ctx context.Context, topic string) ChatResponse {
	return s.Chat(ctx, "analysis_"+uuid.NewString(), AnalysisMessage(topic))
}

// Advice runs a one-off chat about reducing spending in category.
func (s *Service) Advice(ctx context.Context, category string) ChatResponse {
	return s.Chat(ctx, "advice_"+uuid.NewString(), AdviceMessage(category))
}

func (s *Service) History(sessionID string) []chat.Message {
	return s.history.History(sessionID)
}

func (s *Service) ClearHistory(sessionID string) {
	s.history.Clear(sessionID)
}
