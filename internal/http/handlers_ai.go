package http

import (
	"net/http"
	"strings"

	"movimenti/internal/advisor"
	"movimenti/internal/chat"
)

const (
	maxChatMessageLength = 1000
	maxSessionIDLength   = 128
	maxTopicLength       = 50
)

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// withAdvisor answers 503 when no language model is configured.
func (s *Server) withAdvisor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.svc.Advisor == nil {
			ErrorResponse(http.StatusServiceUnavailable, "AI assistant is not configured").Write(w)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Advisor.Recommendations(r.Context())
	if err != nil {
		writeError(w, r, "recommendations", err)
		return
	}
	NewResponse().JSON(rec).Write(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "chat", err)
		return
	}
	sessionID, err := requireText("sessionId", req.SessionID, maxSessionIDLength)
	if err != nil {
		writeError(w, r, "chat", err)
		return
	}
	message, err := requireText("message", req.Message, maxChatMessageLength)
	if err != nil {
		writeError(w, r, "chat", err)
		return
	}
	NewResponse().JSON(s.svc.Advisor.Chat(r.Context(), sessionID, message)).Write(w)
}

func (s *Server) handleQuickResponses(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(advisor.QuickResponses()).Write(w)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history := s.svc.Advisor.History(r.PathValue("sessionId"))
	if history == nil {
		history = []chat.Message{}
	}
	NewResponse().JSON(history).Write(w)
}

func (s *Server) handleClearChatHistory(w http.ResponseWriter, r *http.Request) {
	s.svc.Advisor.ClearHistory(r.PathValue("sessionId"))
	NewResponse().Write(w)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	topic, err := requireText("topic", r.URL.Query().Get("topic"), maxTopicLength)
	if err != nil {
		writeError(w, r, "analyze", err)
		return
	}
	NewResponse().JSON(s.svc.Advisor.Analyze(r.Context(), topic)).Write(w)
}

// handleAdvice asks about one category, or about the biggest savings
// opportunities when category is omitted.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.URL.Query().Get("category"))
	if len(category) > maxTopicLength {
		writeError(w, r, "advice", invalidf("category cannot exceed %d characters", maxTopicLength))
		return
	}
	NewResponse().JSON(s.svc.Advisor.Advice(r.Context(), strings.ToLower(category))).Write(w)
}
