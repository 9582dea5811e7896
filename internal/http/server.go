package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"movimenti/internal/advisor"
	"movimenti/internal/cache"
	applog "movimenti/internal/log"
	"movimenti/internal/middleware/ratelimit"
	"movimenti/internal/middleware/security"
	"movimenti/internal/middleware/trace"
	"movimenti/internal/ports"
	"movimenti/internal/services"
)

// Services are the application services behind the routes. A nil Advisor
// answers the AI routes with 503.
type Services struct {
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Alerts       ports.AlertStore
	Advisor      *advisor.Service
}

// Config holds server tuning.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// CacheTTL bounds how long an analytics response is reused (default: 1m)
	CacheTTL        time.Duration
	CacheSize       int
	CleanupInterval time.Duration
	Logger          *applog.Logger
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8081",
		RateLimitPerMinute: 120,
		CacheTTL:           time.Minute,
		CacheSize:          64,
		CleanupInterval:    5 * time.Minute,
	}
}

type appMetrics struct {
	started     time.Time
	cacheHits   int64
	cacheMisses int64
	imports     int64
}

type Server struct {
	http.Server
	svc Services

	responses    cache.Cache[[]byte]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	metrics      appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and starts the background cleanup
// of caches. Call Shutdown to release them.
func NewServer(cfg Config, svc Services) *Server {
	def := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	responses := cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL)
	s := &Server{
		svc:          svc,
		responses:    responses,
		cacheManager: cache.NewManager(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: cfg.RateLimitPerMinute, Window: time.Minute}),
		detector:     security.NewDetector(),
		metrics:      appMetrics{started: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.cacheManager.Register(responses)
	s.cacheManager.Register(s.rateLimiter)
	s.cacheManager.StartCleanup(cfg.CleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(logger, trace.GetRequestID)(handler)
	handler = recoverPanics(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /v0/transactions", s.handleRecentTransactions)
	mux.HandleFunc("GET /v0/transactions/overview", s.handleOverview)
	mux.HandleFunc("GET /v0/transactions/spending-percentages", s.handleSpendingPercentages)
	mux.HandleFunc("GET /v0/transactions/trends", s.handleMonthlyTrends)
	mux.HandleFunc("GET /v0/transactions/category-trends", s.handleCategoryTrends)
	mux.HandleFunc("POST /v0/transactions/recategorize", s.handleRecategorize)
	mux.HandleFunc("POST /v0/transactions/import", s.handleImport)

	mux.HandleFunc("GET /v0/alerts", s.handleLatestAlert)
	mux.HandleFunc("GET /v0/alerts/history", s.handleAlertHistory)

	mux.HandleFunc("GET /v0/savings-goals", s.handleListGoals)
	mux.HandleFunc("POST /v0/savings-goals", s.handleCreateGoal)
	mux.HandleFunc("PATCH /v0/savings-goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /v0/savings-goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /v0/ai/recommendations", s.withAdvisor(s.handleRecommendations))
	mux.HandleFunc("POST /v0/ai/chat", s.withAdvisor(s.handleChat))
	mux.HandleFunc("GET /v0/ai/quick-responses", s.handleQuickResponses)
	mux.HandleFunc("GET /v0/ai/chat/history/{sessionId}", s.withAdvisor(s.handleChatHistory))
	mux.HandleFunc("DELETE /v0/ai/chat/history/{sessionId}", s.withAdvisor(s.handleClearChatHistory))
	mux.HandleFunc("GET /v0/ai/analyze", s.withAdvisor(s.handleAnalyze))
	mux.HandleFunc("GET /v0/ai/advice", s.withAdvisor(s.handleAdvice))
}

// RegisterCleaner adds expirable state, such as chat sessions, to the
// periodic cleanup.
func (s *Server) RegisterCleaner(c cache.Cleaner) {
	s.cacheManager.Register(c)
}

// InvalidateCache drops every cached analytics response.
func (s *Server) InvalidateCache() {
	s.responses.Clear()
}

// Shutdown stops the background cleanup and gracefully shuts down the
// listener. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// cachedJSON serves key from the response cache or computes, encodes and
// stores it. Errors are never cached.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (any, error)) {
	if body, ok := s.responses.Get(key); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		slog.DebugContext(r.Context(), "Response cache hit", "key", key)
		writeJSONBody(w, http.StatusOK, body)
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	v, err := compute(r.Context())
	if err != nil {
		writeError(w, r, key, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, key, fmt.Errorf("encode %s: %w", key, err))
		return
	}
	s.responses.Set(key, body)
	writeJSONBody(w, http.StatusOK, body)
}

// recoverPanics turns a handler panic into a 500 so one bad request cannot
// take the server down.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "Handler panic",
					"request_id", trace.GetRequestID(r.Context()),
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				InternalServerError().Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
