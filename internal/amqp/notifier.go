package amqp

import (
	"context"

	"movimenti/internal/notify"
)

type publisher interface {
	PublishAlert(ctx context.Context, msg *AlertMessage) error
}

// QueueNotifier hands alerts to the notify worker instead of delivering
// them in-process.
type QueueNotifier struct {
	pub publisher
}

var _ notify.Notifier = (*QueueNotifier)(nil)

func NewQueueNotifier(c *Client) *QueueNotifier {
	return &QueueNotifier{pub: c}
}

func (n *QueueNotifier) Notify(ctx context.Context, message string) error {
	return n.pub.PublishAlert(ctx, NewAlertMessage(notify.KindFrom(ctx), message))
}
