package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

const DefaultWhatsAppBaseURL = "https://graph.facebook.com/v22.0"

// WhatsAppConfig holds the Cloud API credentials and recipient.
type WhatsAppConfig struct {
	BaseURL     string
	Token       string
	AccountID   string // phone number ID that sends the message
	To          string
	MaxAttempts uint
	RetryDelay  time.Duration
}

func (c WhatsAppConfig) Enabled() bool {
	return c.Token != "" && c.AccountID != "" && c.To != ""
}

// WhatsApp sends text messages through the WhatsApp Cloud API.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
}

type textBody struct {
	Body string `json:"body"`
}

type messagePayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whatsapp api returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Permanent reports whether err carries an API response that a retry cannot
// change, such as a rejected token or recipient.
func Permanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && !se.retryable()
}

func NewWhatsApp(cfg WhatsAppConfig, client *http.Client) *WhatsApp {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWhatsAppBaseURL
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WhatsApp{cfg: cfg, client: client}
}

// Notify posts message as a text message. Rate limiting, server errors and
// transport failures are retried until ctx expires or attempts run out.
func (w *WhatsApp) Notify(ctx context.Context, message string) error {
	payload, err := json.Marshal(messagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               w.cfg.To,
		Type:             "text",
		Text:             textBody{Body: message},
	})
	if err != nil {
		return fmt.Errorf("encode whatsapp payload: %w", err)
	}
	url := strings.TrimRight(w.cfg.BaseURL, "/") + "/" + w.cfg.AccountID + "/messages"

	err = retry.Do(
		func() error { return w.send(ctx, url, payload) },
		retry.RetryIf(func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.retryable()
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "WhatsApp delivery failed, retrying", "attempt", n+1, "error", err)
		}),
		retry.Attempts(w.cfg.MaxAttempts),
		retry.Delay(w.cfg.RetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

func (w *WhatsApp) send(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
