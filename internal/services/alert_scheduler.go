package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"movimenti/internal/alerts"
	"movimenti/internal/core"
	"movimenti/internal/notify"
	"movimenti/internal/ports"
)

const (
	TriggerStartup = "startup"
	TriggerDaily   = "daily"
)

// AlertSchedulerConfig holds configuration for the alert scheduler
type AlertSchedulerConfig struct {
	// Enabled gates the summary and daily evaluation; the startup message is always sent.
	Enabled bool

	// LossThreshold is the loss a day must exceed before a loss alert is sent (default: 0.00)
	LossThreshold decimal.Decimal

	// DailyAt is the wall-clock time of the daily check (default: 09:00)
	DailyAt TimeOfDay

	// Location defines day boundaries and the daily trigger (default: UTC)
	Location *time.Location

	// NotifyTimeout bounds a single notification attempt (default: 15s)
	NotifyTimeout time.Duration
}

func DefaultAlertSchedulerConfig() AlertSchedulerConfig {
	return AlertSchedulerConfig{
		Enabled:       true,
		LossThreshold: decimal.Zero,
		DailyAt:       TimeOfDay{Hour: 9},
		Location:      time.UTC,
		NotifyTimeout: 15 * time.Second,
	}
}

// Outcome reports what one trigger did.
type Outcome struct {
	Trigger string
	Skipped bool
	Reason  string
	Alerts  []core.Alert
}

// AlertScheduler sends the startup notice and the daily profit/loss alert.
// Each trigger type runs at most once at a time; an overlapping call is
// skipped rather than queued.
type AlertScheduler struct {
	txns     ports.TransactionStore
	alertLog ports.AlertStore
	notifier notify.Notifier
	format   alerts.Formatter
	config   AlertSchedulerConfig
	now      func() time.Time

	startupSem *semaphore.Weighted
	dailySem   *semaphore.Weighted

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewAlertScheduler(
	txns ports.TransactionStore,
	alertLog ports.AlertStore,
	notifier notify.Notifier,
	format alerts.Formatter,
	config AlertSchedulerConfig,
) *AlertScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &AlertScheduler{
		txns:       txns,
		alertLog:   alertLog,
		notifier:   notifier,
		format:     format,
		config:     config,
		now:        time.Now,
		startupSem: semaphore.NewWeighted(1),
		dailySem:   semaphore.NewWeighted(1),
	}
}

// Startup announces the process start and, when alerts are enabled, sends
// today's summary if there was any activity.
func (s *AlertScheduler) Startup(ctx context.Context, now time.Time) (Outcome, error) {
	out := Outcome{Trigger: TriggerStartup}
	if !s.startupSem.TryAcquire(1) {
		slog.WarnContext(ctx, "Skipping startup check, previous run still in flight")
		out.Skipped, out.Reason = true, "in flight"
		return out, nil
	}
	defer s.startupSem.Release(1)

	loc := s.config.Location
	out.Alerts = append(out.Alerts, s.deliver(ctx, core.AlertStartup, s.format.Startup(now.In(loc))))

	if !s.config.Enabled {
		return out, nil
	}

	txns, err := s.txns.ListTransactions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Startup summary failed", "error", err)
		return out, fmt.Errorf("list transactions: %w", err)
	}

	summary := alerts.Summarize(txns, now, now, loc)
	if summary.TotalTransactions > 0 {
		out.Alerts = append(out.Alerts, s.deliver(ctx, core.AlertSummary, s.format.Summary(summary, "Today")))
	}
	return out, nil
}

// RunDaily evaluates yesterday (relative to now in the configured location)
// and sends a loss or profit alert. A failure to read transactions is itself
// reported through the notifier.
func (s *AlertScheduler) RunDaily(ctx context.Context, now time.Time) (Outcome, error) {
	out := Outcome{Trigger: TriggerDaily}
	if !s.config.Enabled {
		slog.InfoContext(ctx, "Alerts are disabled, skipping analysis")
		out.Skipped, out.Reason = true, "disabled"
		return out, nil
	}
	if !s.dailySem.TryAcquire(1) {
		slog.WarnContext(ctx, "Skipping daily check, previous run still in flight")
		out.Skipped, out.Reason = true, "in flight"
		return out, nil
	}
	defer s.dailySem.Release(1)

	loc := s.config.Location
	yesterday := alerts.DayStart(now, loc).AddDate(0, 0, -1)

	txns, err := s.txns.ListTransactions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Daily transaction analysis failed", "error", err)
		out.Alerts = append(out.Alerts, s.deliver(ctx, core.AlertError, s.format.Failure("Daily", err)))
		return out, fmt.Errorf("list transactions: %w", err)
	}

	summary := alerts.Summarize(txns, yesterday, yesterday, loc)
	decision := alerts.Evaluate(summary, s.config.LossThreshold)

	slog.InfoContext(ctx, "Daily transaction analysis",
		"day", yesterday.Format("2006-01-02"),
		"transactions", summary.TotalTransactions,
		"balance", summary.Balance.StringFixed(2),
		"decision", decision.Kind)

	if decision.Kind == alerts.None {
		slog.InfoContext(ctx, "No significant changes in daily transactions")
		return out, nil
	}

	out.Alerts = append(out.Alerts, s.deliver(ctx, decision.AlertKind(), s.format.Message(decision, "Daily")))
	return out, nil
}

// deliver sends message within NotifyTimeout and records the alert whether
// or not delivery succeeded.
func (s *AlertScheduler) deliver(ctx context.Context, kind core.AlertKind, message string) core.Alert {
	alert := core.Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}

	nctx := notify.WithKind(ctx, kind)
	if s.config.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(nctx, s.config.NotifyTimeout)
		defer cancel()
	}

	if err := s.notifier.Notify(nctx, message); err != nil {
		slog.ErrorContext(ctx, "Alert delivery failed",
			"alert_id", alert.ID,
			"alert_kind", kind,
			"error", err)
	} else {
		alert.Delivered = true
	}

	if err := s.alertLog.InsertAlert(ctx, alert); err != nil {
		slog.ErrorContext(ctx, "Failed to record alert",
			"alert_id", alert.ID,
			"alert_kind", kind,
			"error", err)
	}
	return alert
}

// NextRun is the next daily trigger strictly after now.
func (s *AlertScheduler) NextRun(now time.Time) time.Time {
	return s.config.DailyAt.Next(now, s.config.Location)
}

// Start runs the startup check and then the daily loop in the background.
// Returns an error if already running.
func (s *AlertScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("alert scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Alert scheduler started",
		"enabled", s.config.Enabled,
		"daily_at", s.config.DailyAt.String(),
		"location", s.config.Location.String(),
		"loss_threshold", s.config.LossThreshold.StringFixed(2))
	return nil
}

// Stop signals the loop and waits for the in-flight run to finish. When ctx
// expires first the scheduler keeps reporting itself running until the loop
// exits on its own.
func (s *AlertScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Alert scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Alert scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *AlertScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *AlertScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(doneCh)
	}()

	if _, err := s.Startup(ctx, s.now()); err != nil {
		slog.ErrorContext(ctx, "Startup check failed", "error", err)
	}

	for {
		next := s.NextRun(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		slog.DebugContext(ctx, "Next daily check scheduled", "at", next)

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunDaily(ctx, s.now()); err != nil {
				slog.ErrorContext(ctx, "Daily check failed", "error", err)
			}
		}
	}
}
