package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"movimenti/internal/core"
)

// AlertMessage carries a rendered alert to the notify worker. The worker
// only delivers the text; persistence already happened on the producer side.
type AlertMessage struct {
	AlertID   string         `json:"alert_id"`
	Kind      core.AlertKind `json:"kind,omitempty"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewAlertMessage stamps a fresh id and the current time.
func NewAlertMessage(kind core.AlertKind, message string) *AlertMessage {
	return &AlertMessage{
		AlertID:   uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON decodes a delivery body. Messages without text are
// rejected so the consumer can drop them instead of requeueing forever.
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Message == "" {
		return nil, errEmptyMessage
	}
	return &msg, nil
}
