package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"movimenti/internal/amqp"
	"movimenti/internal/notify"
)

// NotifyWorker delivers queued alert messages through a Notifier.
type NotifyWorker struct {
	notifier notify.Notifier
	timeout  time.Duration
}

// NewNotifyWorker bounds every delivery by timeout; zero means no bound
// beyond the consumer context.
func NewNotifyWorker(notifier notify.Notifier, timeout time.Duration) *NotifyWorker {
	return &NotifyWorker{notifier: notifier, timeout: timeout}
}

// HandleAlert processes a single alert message from AMQP. A returned error
// makes the consumer requeue the message, except for rejections by the
// provider, which wrap amqp.ErrPermanent and are dropped.
func (w *NotifyWorker) HandleAlert(ctx context.Context, msg *amqp.AlertMessage) error {
	slog.InfoContext(ctx, "Processing alert message",
		"alert_id", msg.AlertID,
		"alert_kind", msg.Kind,
		"queued_at", msg.Timestamp)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.notifier.Notify(notify.WithKind(ctx, msg.Kind), msg.Message); err != nil {
		if notify.Permanent(err) {
			slog.ErrorContext(ctx, "Alert rejected by provider, dropping",
				"alert_id", msg.AlertID,
				"alert_kind", msg.Kind,
				"error", err)
			return fmt.Errorf("deliver alert %s: %w: %w", msg.AlertID, amqp.ErrPermanent, err)
		}
		return fmt.Errorf("deliver alert %s: %w", msg.AlertID, err)
	}

	slog.InfoContext(ctx, "Alert delivered",
		"alert_id", msg.AlertID,
		"alert_kind", msg.Kind,
		"latency", time.Since(msg.Timestamp).Round(time.Millisecond))
	return nil
}
