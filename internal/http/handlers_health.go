package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the ledger store answers within readyTimeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"cache": map[string]int{"entries": s.responses.Size()},
		"rate_limiter": map[string]int{
			"active_clients": s.rateLimiter.ActiveClients(),
		},
	}

	if s.svc.Transactions == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if _, err := s.svc.Transactions.Recent(ctx, 1); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.svc.Advisor == nil {
		checks["advisor"] = "disabled"
	} else {
		checks["advisor"] = "ok"
	}

	NewResponse().Status(code).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request, cache and security counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.GetMetrics()
	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v float64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", tm.TotalRequests)
	gauge("http_response_time_avg_seconds", "Average response time", tm.AverageResponseTime.Seconds())
	counter("transactions_imported_total", "Transactions written by API imports", atomic.LoadInt64(&s.metrics.imports))
	counter("cache_hits_total", "Total response cache hits", atomic.LoadInt64(&s.metrics.cacheHits))
	counter("cache_misses_total", "Total response cache misses", atomic.LoadInt64(&s.metrics.cacheMisses))
	gauge("cache_entries", "Current response cache entries", float64(s.responses.Size()))
	counter("rate_limit_rejections_total", "Requests rejected by the rate limiter", s.rateLimiter.Rejected())
	gauge("rate_limit_active_clients", "Clients tracked by the rate limiter", float64(s.rateLimiter.ActiveClients()))
	counter("security_suspicious_requests_total", "Requests flagged as suspicious", s.detector.SuspiciousCount())
	gauge("uptime_seconds", "Seconds since the server started", time.Since(s.metrics.started).Seconds())
}
