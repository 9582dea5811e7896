// Package notify delivers alert text to people.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"movimenti/internal/core"
)

// Notifier sends a human-readable message. Implementations must honor ctx
// cancellation so callers can bound delivery time.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LogNotifier only logs. It is used when no delivery channel is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, message string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Notification (log only)", "message", message)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, message string) error

func (f Func) Notify(ctx context.Context, message string) error { return f(ctx, message) }

type kindKey struct{}

// WithKind tags ctx with the alert kind being delivered so queue-backed
// notifiers can forward it.
func WithKind(ctx context.Context, kind core.AlertKind) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

// KindFrom returns the kind set by WithKind, or "".
func KindFrom(ctx context.Context) core.AlertKind {
	k, _ := ctx.Value(kindKey{}).(core.AlertKind)
	return k
}
