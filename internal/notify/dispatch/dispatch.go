// Package dispatch forwards operator messages for an incident to the
// downstream dispatch collaborator via a webhook. Delivery guarantees are
// the collaborator's problem, not ours.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// Channel is the delivery channel for a dispatch message.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelRadio    Channel = "RADIO"
	ChannelInternal Channel = "INTERNAL"
)

// Valid reports whether the channel is one of the supported values.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelRadio, ChannelInternal:
		return true
	}
	return false
}

// Message is one outbound dispatch request.
type Message struct {
	IncidentID string  `json:"incidentId"`
	Channel    Channel `json:"channel"`
	Message    string  `json:"message"`
}

// Notifier posts dispatch messages to the configured webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new dispatch notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a message to the dispatch webhook. If no webhook URL is
// configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, msg *Message) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("dispatch: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("dispatch: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dispatch: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
