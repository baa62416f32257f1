package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/betselot/gojo-bookings/internal"
)

// Kind distinguishes the two notification messages the payment lifecycle
// can trigger.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindFailure      Kind = "failure"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	Kind      Kind
	Recipient string
	Subject   string
	Body      string
}

// Mailer delivers a single message. Implementations are expected to be
// at-least-once; the dispatcher guarantees only that each transition
// enqueues exactly one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailClient posts messages to an HTTP mail relay.
type MailClient struct {
	relayURL    string
	apiKey      string
	fromAddress string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewMailClient(cfg internal.MailConfig, logger *slog.Logger) *MailClient {
	return &MailClient{
		relayURL:    cfg.RelayURL,
		apiKey:      cfg.APIKey,
		fromAddress: cfg.FromAddress,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

type relayPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (c *MailClient) Send(ctx context.Context, msg Message) error {
	payload := relayPayload{
		From:    c.fromAddress,
		To:      msg.Recipient,
		Subject: msg.Subject,
		Body:    msg.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("mail relay request failed", "recipient", msg.Recipient, "error", err)
		return internal.NewExternalError("mail relay unreachable", internal.ErrCodeNotificationError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("mail relay returned error",
			"recipient", msg.Recipient,
			"status_code", resp.StatusCode,
			"response", string(respBody))
		return internal.NewExternalError(
			fmt.Sprintf("mail relay returned status %d", resp.StatusCode),
			internal.ErrCodeNotificationError,
			nil,
		)
	}

	c.logger.Info("notification delivered", "kind", msg.Kind, "recipient", msg.Recipient)
	return nil
}
