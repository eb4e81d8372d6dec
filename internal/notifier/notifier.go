package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/bookpoll-api/internal/logger"
)

// Notifier delivers outbound announcements to an opaque channel reference.
// Delivery is best-effort: the lifecycle logs failures and never lets them
// block or roll back a phase transition.
type Notifier interface {
	Post(channelRef, content string) error
}

// Webhook posts announcements as JSON to a per-channel webhook URL
type Webhook struct {
	baseURL string
	client  *http.Client
	log     *log.Logger
}

// NewWebhook creates a webhook notifier. The channel reference is appended
// to the base URL to form the delivery endpoint.
func NewWebhook(baseURL string, timeout time.Duration) *Webhook {
	return &Webhook{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logger.Notifier(),
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (w *Webhook) Post(channelRef, content string) error {
	if w.baseURL == "" {
		w.log.Debug("webhook base URL not configured, dropping announcement", "channel", channelRef)
		return nil
	}

	body, err := json.Marshal(webhookPayload{Content: content})
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}

	url := w.baseURL + "/" + channelRef
	resp, err := w.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to deliver announcement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("announcement delivery returned status %d", resp.StatusCode)
	}

	w.log.Debug("announcement delivered", "channel", channelRef, "status", resp.StatusCode)
	return nil
}

// Noop swallows all announcements; used in tests and when no messaging
// surface is configured.
type Noop struct{}

func (Noop) Post(channelRef, content string) error {
	return nil
}
